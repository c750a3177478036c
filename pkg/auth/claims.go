package auth

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role constants.
const (
	RoleAdmin     = "admin"
	RoleOperator  = "operator"
	RoleReviewer  = "reviewer"
	RoleAuditor   = "auditor"
	RoleAPIClient = "api_client"
)

// Roles lists every role a token may carry.
var Roles = []string{RoleAdmin, RoleOperator, RoleReviewer, RoleAuditor, RoleAPIClient}

// Claims are the JWT claims accepted by crewrisk services.
type Claims struct {
	jwt.RegisteredClaims
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Roles          []string  `json:"roles"`
}

// HasRole reports whether the claims include role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether the claims include at least one of roles.
func (c Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}

func (c Claims) validate() error {
	if c.UserID == uuid.Nil {
		return errors.New("user_id claim is required")
	}
	if len(c.Roles) == 0 {
		return errors.New("at least one role is required")
	}
	for _, r := range c.Roles {
		if !slices.Contains(Roles, r) {
			return fmt.Errorf("unknown role %q", r)
		}
	}
	return nil
}
