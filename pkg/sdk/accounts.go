package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eflash24/eflash-store/internal/accounts"
	"github.com/eflash24/eflash-store/internal/vault"
	"github.com/eflash24/eflash-store/pkg/broadcast"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// Accounts registers and logs in users against the gateway, falling back to
// local credentials when the gateway is unavailable, and keeps the one
// current Session.
//
// Validation failures from either side (duplicate email, bad credentials,
// protected admin) are returned to the caller; only an unreachable or
// failing backend triggers the fallback.
type Accounts struct {
	mu         sync.Mutex
	remote     AuthBackend // nil means offline
	local      *accounts.Service
	slots      SlotStore
	sessionKey []byte
	bus        *broadcast.Bus
	events     []string
	now        func() time.Time
}

// AccountsOption configures Accounts.
type AccountsOption func(*Accounts)

// WithSessionKey seals the persisted session with AES-GCM.
func WithSessionKey(key []byte) AccountsOption {
	return func(a *Accounts) { a.sessionKey = key }
}

// WithEvents sets the events published after registrations and deletions.
func WithEvents(events ...string) AccountsOption {
	return func(a *Accounts) { a.events = events }
}

// NewAccounts wires the credential service. remote may be nil.
func NewAccounts(remote AuthBackend, local *accounts.Service, slots SlotStore, bus *broadcast.Bus, opts ...AccountsOption) *Accounts {
	if bus == nil {
		bus = broadcast.New()
	}
	a := &Accounts{
		remote: remote,
		local:  local,
		slots:  slots,
		bus:    bus,
		events: []string{schema.DefaultEvent("users"), "usersUpdated"},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// authUnavailable widens unavailable: a gateway without auth routes
// answers 404 or 405 to register and login.
func authUnavailable(err error) bool {
	switch statusOf(err) {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return true
	}
	return unavailable(err)
}

// Register creates a customer account.
func (a *Accounts) Register(ctx context.Context, reg accounts.Registration) (schema.PublicUser, error) {
	if a.remote != nil {
		user, err := a.remote.Register(ctx, reg.Email, reg.Password, reg.Name, reg.Profile)
		if err == nil {
			a.bus.Publish(a.events...)
			return user, nil
		}
		if !authUnavailable(err) {
			return schema.PublicUser{}, err
		}
		slog.Debug("auth backend unavailable, registering locally", "op", "register", "error", err)
	}

	user, err := a.local.Register(ctx, reg)
	if err != nil {
		return schema.PublicUser{}, err
	}
	a.bus.Publish(a.events...)
	return user, nil
}

// Login authenticates and makes the user the current session.
func (a *Accounts) Login(ctx context.Context, email, password string) (schema.Session, error) {
	var session schema.Session
	served := false

	if a.remote != nil {
		token, user, err := a.remote.Login(ctx, email, password)
		switch {
		case err == nil:
			session = schema.Session{User: user, Token: token, Source: SourceGateway}
			served = true
		case !authUnavailable(err):
			return schema.Session{}, err
		default:
			slog.Debug("auth backend unavailable, logging in locally", "op", "login", "error", err)
		}
	}

	if !served {
		user, err := a.local.Authenticate(ctx, email, password)
		if err != nil {
			return schema.Session{}, err
		}
		session = schema.Session{User: user, Source: SourceLocal}
	}

	session.CreatedAt = schema.Timestamp(a.now())
	if err := a.saveSession(session); err != nil {
		return schema.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Logout clears the session. It is safe to call when logged out.
func (a *Accounts) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slots.DeleteSlot(SlotSession)
}

// Session returns the current session, if any.
func (a *Accounts) Session() (schema.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadSessionLocked()
}

// CurrentUser returns the logged-in user, if any.
func (a *Accounts) CurrentUser() (schema.PublicUser, bool) {
	s, ok := a.Session()
	return s.User, ok
}

// DeleteUser removes an account. The administrator is refused before any
// store is asked. A gateway that cannot serve the call, or does not know the
// email, hands over to the local credentials; ErrNotFound means neither
// store had the account.
func (a *Accounts) DeleteUser(ctx context.Context, email string) error {
	if schema.NormalizeEmail(email) == a.local.AdminEmail() {
		return schema.ErrForbidden
	}

	deleted := false
	if a.remote != nil {
		err := a.remote.DeleteUser(ctx, email)
		switch {
		case err == nil:
			deleted = true
			// A local copy would still let the fallback log the user in.
			if lerr := a.local.Delete(ctx, email); lerr != nil && !errors.Is(lerr, schema.ErrNotFound) {
				slog.Warn("local credential left behind", "email", schema.NormalizeEmail(email), "error", lerr)
			}
		case !authUnavailable(err):
			return err
		default:
			slog.Debug("auth backend could not delete, trying local credentials", "op", "delete-user", "error", err)
		}
	}
	if !deleted {
		if err := a.local.Delete(ctx, email); err != nil {
			return err
		}
	}

	if current, ok := a.CurrentUser(); ok && current.Email == schema.NormalizeEmail(email) {
		a.Logout()
	}
	a.bus.Publish(a.events...)
	return nil
}

// SeedAdmin creates the local administrator once. An empty password skips it.
func (a *Accounts) SeedAdmin(ctx context.Context, password string) (bool, error) {
	return a.local.SeedAdmin(ctx, password)
}

// --- Session slot ---

func (a *Accounts) saveSession(s schema.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sessionKey == nil {
		return a.slots.SetSlot(SlotSession, s)
	}
	plain, err := json.Marshal(s)
	if err != nil {
		return err
	}
	sealed, err := vault.Seal(plain, a.sessionKey)
	if err != nil {
		return err
	}
	return a.slots.SetSlot(SlotSession, sealed)
}

// loadSessionLocked MUST be called while holding a.mu. An unreadable slot
// counts as logged out.
func (a *Accounts) loadSessionLocked() (schema.Session, bool) {
	var s schema.Session
	if a.sessionKey == nil {
		ok, err := a.slots.GetSlot(SlotSession, &s)
		if err != nil {
			slog.Warn("discarding unreadable session", "error", err)
			return schema.Session{}, false
		}
		return s, ok && s.User.Email != ""
	}

	var sealed string
	ok, err := a.slots.GetSlot(SlotSession, &sealed)
	if !ok || err != nil {
		if err != nil {
			slog.Warn("discarding unreadable session", "error", err)
		}
		return schema.Session{}, false
	}
	plain, err := vault.Open(sealed, a.sessionKey)
	if err != nil {
		slog.Warn("discarding sealed session", "error", err)
		return schema.Session{}, false
	}
	if err := json.Unmarshal(plain, &s); err != nil {
		slog.Warn("discarding unreadable session", "error", err)
		return schema.Session{}, false
	}
	return s, s.User.Email != ""
}
