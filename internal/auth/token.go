// Package auth issues and verifies the gateway's login tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that are malformed, expired or
// signed with another secret.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues signed JWTs for authenticated users.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate issues a signed JWT string for the provided user.
func (t *TokenManager) Generate(user schema.PublicUser) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"iss":      t.issuer,
		"sub":      user.Email,
		"role":     user.Role,
		"name":     user.Name,
		"verified": user.Verified,
		"created":  user.CreatedAt,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(t.ttl).Unix(),
	}
	if len(user.Profile) > 0 {
		claims["profile"] = user.Profile
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies a token and returns the user it was issued for, with the
// same fields the login response carries.
func (t *TokenManager) Parse(raw string) (schema.PublicUser, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return schema.PublicUser{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return schema.PublicUser{}, ErrInvalidToken
	}
	email, _ := claims.GetSubject()
	if email == "" {
		return schema.PublicUser{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)
	verified, _ := claims["verified"].(bool)
	created, _ := claims["created"].(string)
	profile, _ := claims["profile"].(map[string]any)
	return schema.PublicUser{
		Email:     email,
		Role:      role,
		Name:      name,
		Profile:   profile,
		Verified:  verified,
		CreatedAt: created,
	}, nil
}
