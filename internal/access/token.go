package access

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims carries the identity-to-wallet binding inside the token
type sessionClaims struct {
	jwt.RegisteredClaims
	Username  string   `json:"username"`
	Admin     bool     `json:"admin"`
	Addresses []string `json:"addresses"`
}

// TokenManager issues and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager with the shared signing secret
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a session token for the identity
func (m *TokenManager) Issue(identity *Identity, now time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username:  identity.Username,
		Admin:     identity.Admin,
		Addresses: identity.Addresses,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the identity it
// carries. Any parse, signature, or expiry failure maps to
// ErrUnauthorized.
func (m *TokenManager) Verify(tokenString string) (*Identity, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	return &Identity{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Admin:     claims.Admin,
		Addresses: claims.Addresses,
	}, nil
}
