package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Defaults applied when JWTConfig leaves a field empty.
const (
	DefaultAudience   = "crewrisk-api"
	DefaultExpiration = 15 * time.Minute
	DefaultLeeway     = 30 * time.Second
)

var (
	// ErrInvalidToken wraps every token rejection.
	ErrInvalidToken = errors.New("invalid token")
	// ErrValidationOnly is returned by GenerateToken on a service holding
	// only a public key.
	ErrValidationOnly = errors.New("jwt service has no signing key")
)

// JWTConfig selects the key material and the claims every token must carry.
// Exactly one of PrivateKeyPEM, PublicKeyPEM or Secret is used, in that order.
type JWTConfig struct {
	Secret        string
	PrivateKeyPEM string
	PublicKeyPEM  string

	Issuer     string
	Audience   string
	Expiration time.Duration
	// Leeway tolerates clock skew on exp, nbf and iat.
	Leeway time.Duration
}

// JWTService issues and validates access tokens.
type JWTService struct {
	method     jwt.SigningMethod
	signKey    any
	verifyKey  any
	parser     *jwt.Parser
	issuer     string
	audience   string
	expiration time.Duration
}

// NewJWTService builds a service in one of three modes: RS256 issuer
// (private key), RS256 validator (public key), or HS256 (shared secret).
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	svc := &JWTService{
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		expiration: cfg.Expiration,
	}
	if svc.audience == "" {
		svc.audience = DefaultAudience
	}
	if svc.expiration == 0 {
		svc.expiration = DefaultExpiration
	}

	switch {
	case cfg.PrivateKeyPEM != "":
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
		}
		svc.method, svc.signKey, svc.verifyKey = jwt.SigningMethodRS256, key, &key.PublicKey

	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		svc.method, svc.verifyKey = jwt.SigningMethodRS256, key

	case cfg.Secret != "":
		svc.method, svc.signKey, svc.verifyKey = jwt.SigningMethodHS256, []byte(cfg.Secret), []byte(cfg.Secret)

	default:
		return nil, errors.New("jwt configuration requires PrivateKeyPEM, PublicKeyPEM, or Secret")
	}

	leeway := cfg.Leeway
	if leeway == 0 {
		leeway = DefaultLeeway
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{svc.method.Alg()}),
		jwt.WithAudience(svc.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(leeway),
	}
	if svc.issuer != "" {
		opts = append(opts, jwt.WithIssuer(svc.issuer))
	}
	svc.parser = jwt.NewParser(opts...)

	return svc, nil
}

// GenerateToken issues a token for a user of an organization. Every role
// must be one of the known roles.
func (s *JWTService) GenerateToken(userID, organizationID uuid.UUID, roles []string) (string, error) {
	if s.signKey == nil {
		return "", ErrValidationOnly
	}
	claims := Claims{UserID: userID, OrganizationID: organizationID, Roles: roles}
	if err := claims.validate(); err != nil {
		return "", err
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{s.audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the signature and registered claims, then the
// crewrisk claims. All failures wrap ErrInvalidToken.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := claims.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// LoadKeyFromFile reads a PEM-encoded key from a file path.
func LoadKeyFromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	return data, nil
}

// GenerateKeyPair generates a 2048-bit RSA key pair as PKCS#1 private and
// PKIX public PEM blocks.
func GenerateKeyPair() (privateKeyPEM, publicKeyPEM []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	privateKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	publicKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privateKeyPEM, publicKeyPEM, nil
}
