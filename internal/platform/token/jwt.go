// Package token issues and validates the bearer tokens the SPA stores under
// its `token` key. HS256 with a shared signing key; claims carry user id and
// role only.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"landreg/internal/platform/middleware"
	id "landreg/pkg/domain"
)

// DefaultTTL bounds session lifetime.
const DefaultTTL = 24 * time.Hour

// Manager signs and validates JWTs. Implements middleware.JWTValidator.
type Manager struct {
	signingKey []byte
	ttl        time.Duration
}

func NewManager(signingKey string) *Manager {
	return &Manager{signingKey: []byte(signingKey), ttl: DefaultTTL}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue creates a signed token for the user.
func (m *Manager) Issue(userID id.UserID, role string, now time.Time) (string, error) {
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token.
func (m *Manager) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	userID, err := id.ParseUserID(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	return &middleware.JWTClaims{UserID: userID, Role: c.Role}, nil
}
