// Package jwt signs and verifies the engine's access tokens.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Method selects the signing algorithm.
type Method string

const (
	MethodHS256 Method = "HS256"
	MethodEdDSA Method = "EdDSA"
)

// TokenVersion is the claim-shape version stamped into every token.
// Bump it when the claim layout changes so verifiers can reject stale
// shapes.
const TokenVersion = 1

// Config holds signing material and validation policy.
type Config struct {
	Method    Method
	// SigningKey is the HMAC secret for HS256, or an Ed25519 seed,
	// private key, or PEM block for EdDSA.
	SigningKey []byte
	// VerifyKey is the Ed25519 public key; derived from SigningKey
	// when omitted. Ignored for HS256.
	VerifyKey []byte
	Issuer    string
	AccessTTL time.Duration
	Leeway    time.Duration
}

// AccessClaims is the payload of an access token. The short claim
// names are part of the wire contract.
type AccessClaims struct {
	IdentityID   string   `json:"iid"`
	IdentityType string   `json:"itp"`
	TenantID     string   `json:"tid,omitempty"`
	Roles        []string `json:"roles"`
	Version      int      `json:"ver"`
	jwt.RegisteredClaims
}

// Manager signs and parses access tokens with a fixed key pair.
type Manager struct {
	config    Config
	signKey   any
	verifyKey any
}

// NewManager validates cfg and resolves the key material once so the
// hot paths never re-parse PEM.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("jwt: access TTL must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: leeway out of range")
	}

	m := &Manager{config: cfg}

	switch cfg.Method {
	case MethodHS256:
		if len(cfg.SigningKey) < 32 {
			return nil, errors.New("jwt: HS256 key must be at least 32 bytes")
		}
		m.signKey = cfg.SigningKey
		m.verifyKey = cfg.SigningKey
	case MethodEdDSA:
		priv, err := parseEdPrivateKey(cfg.SigningKey)
		if err != nil {
			return nil, err
		}
		m.signKey = priv
		if len(cfg.VerifyKey) > 0 {
			pub, err := parseEdPublicKey(cfg.VerifyKey)
			if err != nil {
				return nil, err
			}
			m.verifyKey = pub
		} else {
			m.verifyKey = priv.Public()
		}
	default:
		return nil, fmt.Errorf("jwt: unsupported signing method %q", cfg.Method)
	}

	return m, nil
}

// CreateAccess signs a token for subject acting as the given identity.
func (m *Manager) CreateAccess(subject, identityID, identityType, tenantID string, roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	now := time.Now()
	claims := AccessClaims{
		IdentityID:   identityID,
		IdentityType: identityType,
		TenantID:     tenantID,
		Roles:        roles,
		Version:      TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}

	token := jwt.NewWithClaims(m.method(), claims)
	return token.SignedString(m.signKey)
}

// ParseAccess verifies signature, expiry, issuer, and claim version.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		return m.verifyKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Version != TokenVersion {
		return nil, fmt.Errorf("jwt: unsupported claim version %d", claims.Version)
	}

	return claims, nil
}

func (m *Manager) method() jwt.SigningMethod {
	if m.config.Method == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	switch len(key) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(key), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 public key type")
	}
	return edKey, nil
}
