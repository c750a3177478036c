package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type claimsKey struct{}

// ContextWithClaims attaches verified claims to ctx.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims attached by the auth interceptor.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

var errNoBearer = errors.New("authorization must use the Bearer scheme")

// BearerToken extracts the token from an Authorization header value. The
// scheme name is matched case-insensitively.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNoBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNoBearer
	}
	return token, nil
}

// UnaryAuthInterceptor authenticates every call except those in public, which
// are full method names such as the health check.
func UnaryAuthInterceptor(validator TokenValidator, public []string) grpc.UnaryServerInterceptor {
	open := make(map[string]bool, len(public))
	for _, m := range public {
		open[m] = true
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return handler(ctx, req)
		}
		claims, err := authenticate(ctx, validator)
		if err != nil {
			return nil, err
		}
		return handler(ContextWithClaims(ctx, claims), req)
	}
}

func authenticate(ctx context.Context, validator TokenValidator) (*Claims, error) {
	values := metadata.ValueFromIncomingContext(ctx, "authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	}
	token, err := BearerToken(values[0])
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	claims, err := validator.ValidateToken(token)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}
	return claims, nil
}

// CheckRole returns a gRPC status error unless the context carries claims
// with at least one of roles.
func CheckRole(ctx context.Context, roles ...string) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "no claims in context")
	}
	if !claims.HasAnyRole(roles...) {
		return status.Errorf(codes.PermissionDenied, "requires one of roles %s", strings.Join(roles, ", "))
	}
	return nil
}
