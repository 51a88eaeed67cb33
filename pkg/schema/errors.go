package schema

import "errors"

// Gateway errors
var (
	ErrBadRequest       = errors.New("bad request")        // 400
	ErrNotFound         = errors.New("record not found")   // 404
	ErrMethodNotAllowed = errors.New("method not allowed") // 405
	ErrAlreadyExists    = errors.New("record already exists")
	ErrInternal         = errors.New("internal error") // 500
)

// Credential store errors
var (
	ErrDuplicateEmail     = errors.New("email already registered")  // 409
	ErrInvalidCredentials = errors.New("invalid email or password") // 401
	ErrForbidden          = errors.New("forbidden")                 // 403
)

// Client errors
var (
	// ErrTransport marks a failure reaching the gateway. It never reaches UI callers.
	ErrTransport = errors.New("gateway unreachable")
	// ErrInvalidRecord is returned when a record fails its collection's shape validator.
	ErrInvalidRecord = errors.New("invalid record")
)
