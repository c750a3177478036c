package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talentqx/crewrisk/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		secret, privateKeyFile string
		issuer, audience       string
		userID, orgID          string
		roles                  []string
		ttl                    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for the riskd API",
		Long: `Signs a token with the shared HS256 secret or an RS256 private key.
The secret falls back to the JWT_SECRET environment variable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := auth.JWTConfig{Issuer: issuer, Audience: audience, Expiration: ttl}
			switch {
			case privateKeyFile != "":
				pem, err := auth.LoadKeyFromFile(privateKeyFile)
				if err != nil {
					return err
				}
				cfg.PrivateKeyPEM = string(pem)
			case secret != "":
				cfg.Secret = secret
			case os.Getenv("JWT_SECRET") != "":
				cfg.Secret = os.Getenv("JWT_SECRET")
			default:
				return errors.New("a signing key is required (--private-key, --secret or JWT_SECRET)")
			}

			svc, err := auth.NewJWTService(cfg)
			if err != nil {
				return err
			}

			user, err := parseOrNew(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			org, err := parseOrNew(orgID)
			if err != nil {
				return fmt.Errorf("invalid --org: %w", err)
			}

			token, err := svc.GenerateToken(user, org, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HS256 shared secret")
	cmd.Flags().StringVar(&privateKeyFile, "private-key", "", "RS256 private key (PEM)")
	cmd.Flags().StringVar(&issuer, "issuer", "crewrisk", "iss claim")
	cmd.Flags().StringVar(&audience, "audience", auth.DefaultAudience, "aud claim")
	cmd.Flags().StringVar(&userID, "user", "", "user ID (random when empty)")
	cmd.Flags().StringVar(&orgID, "org", "", "organization ID (random when empty)")
	cmd.Flags().StringSliceVar(&roles, "role", []string{auth.RoleOperator}, fmt.Sprintf("roles to grant %v", auth.Roles))
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func parseOrNew(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}
