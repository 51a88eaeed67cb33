// Package accounts manages credential records on top of a document store.
// The gateway's auth routes and the client's local fallback both use it,
// so the two paths agree on hashing, normalisation and admin protection.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/internal/vault"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// DefaultCollection holds credential records. The leading underscore keeps
// it off the generic collection routes.
const DefaultCollection = "_credentials"

// Store is the subset of engine.Store the service needs.
type Store interface {
	engine.Reader
	engine.Writer
}

// Registration is the input to Register.
type Registration struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Name     string         `json:"name,omitempty"`
	Profile  map[string]any `json:"profile,omitempty"`
}

// Service registers, authenticates and removes credentials.
type Service struct {
	store      Store
	collection string
	hasher     vault.PasswordHasher
	adminEmail string
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCollection overrides DefaultCollection.
func WithCollection(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.collection = name
		}
	}
}

// WithAdminEmail sets the protected administrator account.
func WithAdminEmail(email string) Option {
	return func(s *Service) {
		if email != "" {
			s.adminEmail = schema.NormalizeEmail(email)
		}
	}
}

// NewService creates a Service. The hasher carries its own work factor.
func NewService(store Store, hasher vault.PasswordHasher, opts ...Option) *Service {
	s := &Service{
		store:      store,
		collection: DefaultCollection,
		hasher:     hasher,
		adminEmail: schema.DefaultAdminEmail,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AdminEmail returns the normalised protected account.
func (s *Service) AdminEmail() string {
	return s.adminEmail
}

// Register stores a new customer credential.
func (s *Service) Register(ctx context.Context, reg Registration) (schema.PublicUser, error) {
	return s.create(ctx, reg, schema.RoleCustomer, false)
}

func (s *Service) create(ctx context.Context, reg Registration, role string, verified bool) (schema.PublicUser, error) {
	email := schema.NormalizeEmail(reg.Email)
	if email == "" || !strings.Contains(email, "@") {
		return schema.PublicUser{}, fmt.Errorf("%w: a valid email is required", schema.ErrBadRequest)
	}
	if reg.Password == "" {
		return schema.PublicUser{}, fmt.Errorf("%w: password is required", schema.ErrBadRequest)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return schema.PublicUser{}, err
	}

	ts := schema.Timestamp(s.now())
	cred := schema.Credential{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         strings.TrimSpace(reg.Name),
		Profile:      reg.Profile,
		Verified:     verified,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	rec, err := schema.Encode(cred)
	if err != nil {
		return schema.PublicUser{}, err
	}
	rec[schema.FieldID] = email

	if _, err := s.store.Insert(ctx, s.collection, rec); err != nil {
		if errors.Is(err, engine.ErrAlreadyExists) {
			return schema.PublicUser{}, schema.ErrDuplicateEmail
		}
		return schema.PublicUser{}, fmt.Errorf("store credential: %w", err)
	}
	return cred.Public(), nil
}

// Authenticate checks a password. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (schema.PublicUser, error) {
	cred, err := s.lookup(ctx, email)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return schema.PublicUser{}, schema.ErrInvalidCredentials
		}
		return schema.PublicUser{}, err
	}

	ok, err := s.hasher.Verify(password, cred.PasswordHash)
	if err != nil || !ok {
		return schema.PublicUser{}, schema.ErrInvalidCredentials
	}
	return cred.Public(), nil
}

// Lookup returns the public projection of a credential.
func (s *Service) Lookup(ctx context.Context, email string) (schema.PublicUser, error) {
	cred, err := s.lookup(ctx, email)
	if err != nil {
		return schema.PublicUser{}, err
	}
	return cred.Public(), nil
}

func (s *Service) lookup(ctx context.Context, email string) (schema.Credential, error) {
	rec, err := s.store.Get(ctx, s.collection, schema.NormalizeEmail(email))
	if err != nil {
		return schema.Credential{}, err
	}
	return schema.Decode[schema.Credential](rec)
}

// Delete removes a credential. The administrator account is never removed.
func (s *Service) Delete(ctx context.Context, email string) error {
	email = schema.NormalizeEmail(email)
	if email == s.adminEmail {
		return schema.ErrForbidden
	}
	return s.store.Delete(ctx, s.collection, email)
}

// SeedAdmin creates the administrator credential unless a record with the
// admin role already exists. It reports whether a record was created.
func (s *Service) SeedAdmin(ctx context.Context, password string) (bool, error) {
	if password == "" {
		return false, nil
	}
	records, err := s.store.List(ctx, s.collection, engine.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("list credentials: %w", err)
	}
	for _, rec := range records {
		if role, _ := rec["role"].(string); role == schema.RoleAdmin {
			return false, nil
		}
	}

	_, err = s.create(ctx, Registration{Email: s.adminEmail, Password: password, Name: "Administrator"}, schema.RoleAdmin, true)
	if errors.Is(err, schema.ErrDuplicateEmail) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
