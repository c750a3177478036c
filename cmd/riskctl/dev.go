package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talentqx/crewrisk/pkg/auth"
	"github.com/talentqx/crewrisk/pkg/tlsutil"
)

func newDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Generate local development credentials",
	}
	cmd.AddCommand(newDevCertsCmd(), newDevKeygenCmd())
	return cmd
}

func newDevCertsCmd() *cobra.Command {
	var (
		out    string
		hosts  []string
		client string
	)

	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Write a throwaway CA with server and client certificates for mutual TLS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pki, err := tlsutil.GenerateDevPKI(hosts, client, out)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "TLS_CERT_FILE=%s\nTLS_KEY_FILE=%s\nTLS_CA_FILE=%s\n", pki.Server, pki.ServerKey, pki.CA)
			fmt.Fprintf(w, "# client: %s %s\n", pki.Client, pki.ClientKey)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "./certs", "output directory")
	cmd.Flags().StringSliceVar(&hosts, "host", []string{"localhost", "127.0.0.1"}, "server certificate hosts")
	cmd.Flags().StringVar(&client, "client", "riskctl", "client certificate common name")
	return cmd
}

func newDevKeygenCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Write an RS256 key pair for token signing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			privPEM, pubPEM, err := auth.GenerateKeyPair()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}

			privPath := filepath.Join(out, "jwt-private.pem")
			pubPath := filepath.Join(out, "jwt-public.pem")
			if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
				return fmt.Errorf("failed to write private key: %w", err)
			}
			if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil { //nolint:gosec // public key
				return fmt.Errorf("failed to write public key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "JWT_PUBLIC_KEY_FILE=%s\n# sign with: riskctl token --private-key %s\n", pubPath, privPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "./keys", "output directory")
	return cmd
}
