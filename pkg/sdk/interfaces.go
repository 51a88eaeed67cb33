package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// Session sources.
const (
	SourceGateway = "gateway"
	SourceLocal   = "local"
)

// Slot keys in the local store.
const (
	SlotSession       = "session"
	SlotAnalytics     = "analytics"
	SlotNotifications = "notifications"
	SlotPushed        = "pushed"
)

// --- Functional Interfaces ---

// Remote is the gateway half of a Collection.
type Remote interface {
	engine.Reader
	engine.Writer
}

// Local is the fallback half of a Collection.
type Local interface {
	engine.Reader
	engine.Writer
	engine.Enumerator
}

// SlotStore holds single JSON values by key (session, analytics, notifications).
type SlotStore interface {
	GetSlot(key string, v any) (bool, error)
	SetSlot(key string, v any) error
	DeleteSlot(key string)
}

// AuthBackend is the gateway half of Accounts.
type AuthBackend interface {
	Register(ctx context.Context, email, password, name string, profile map[string]any) (schema.PublicUser, error)
	Login(ctx context.Context, email, password string) (string, schema.PublicUser, error)
	DeleteUser(ctx context.Context, email string) error
}

// GatewayError is a non-2xx answer from the gateway.
type GatewayError struct {
	Status  int
	Label   string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gateway %d: %s", e.Status, http.StatusText(e.Status))
}

// Unwrap maps the status onto the schema error it stands for.
func (e *GatewayError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return schema.ErrBadRequest
	case e.Status == http.StatusUnauthorized:
		return schema.ErrInvalidCredentials
	case e.Status == http.StatusForbidden:
		return schema.ErrForbidden
	case e.Status == http.StatusNotFound:
		return schema.ErrNotFound
	case e.Status == http.StatusMethodNotAllowed:
		return schema.ErrMethodNotAllowed
	case e.Status == http.StatusConflict:
		return schema.ErrAlreadyExists
	default:
		return schema.ErrInternal
	}
}

// statusOf returns the gateway status carried by err, or 0.
func statusOf(err error) int {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Status
	}
	return 0
}

// unavailable reports whether err means the backend could not serve the call
// at all, as opposed to answering with a real validation failure.
func unavailable(err error) bool {
	if errors.Is(err, schema.ErrTransport) {
		return true
	}
	return statusOf(err) >= http.StatusInternalServerError
}
