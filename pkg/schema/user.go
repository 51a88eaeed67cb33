// Package schema defines universal data structures used across the eflash store.
package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// DefaultAdminEmail is the protected administrator account.
const DefaultAdminEmail = "admin@eflash24.tech"

// Credential is a stored username/password record. It is keyed by its
// normalised email, which is also its record id.
type Credential struct {
	Email        string         `json:"email"`
	PasswordHash string         `json:"passwordHash"`
	Role         string         `json:"role"`
	Name         string         `json:"name,omitempty"`
	Profile      map[string]any `json:"profile,omitempty"`
	Verified     bool           `json:"verified"`
	CreatedAt    string         `json:"createdAt"`
	UpdatedAt    string         `json:"updatedAt,omitempty"`
}

// PublicUser is the projection of a Credential safe to hand to callers.
type PublicUser struct {
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	Name      string         `json:"name,omitempty"`
	Profile   map[string]any `json:"profile,omitempty"`
	Verified  bool           `json:"verified"`
	CreatedAt string         `json:"createdAt"`
}

// Public drops the password hash.
func (c Credential) Public() PublicUser {
	return PublicUser{
		Email:     c.Email,
		Role:      c.Role,
		Name:      c.Name,
		Profile:   c.Profile,
		Verified:  c.Verified,
		CreatedAt: c.CreatedAt,
	}
}

// IsAdmin reports whether the user holds the administrator role.
func (u PublicUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is the single authenticated user of this client.
type Session struct {
	User PublicUser `json:"user"`
	// Token is the gateway-issued token; empty when the login was served locally.
	Token     string `json:"token,omitempty"`
	Source    string `json:"source"`
	CreatedAt string `json:"createdAt"`
}

// NormalizeEmail trims, lowercases and NFC-normalises an email address.
func NormalizeEmail(email string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(email)))
}
