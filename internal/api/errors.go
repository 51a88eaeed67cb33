package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eflash24/eflash-store/internal/auth"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/gin-gonic/gin"
)

// statusFor maps store and credential errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, schema.ErrAlreadyExists), errors.Is(err, schema.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, schema.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, schema.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the {"error", "message"} body. message is omitted when empty.
func abortWithError(c *gin.Context, status int, message string) {
	body := gin.H{"error": http.StatusText(status)}
	if message != "" {
		body["message"] = message
	}
	c.AbortWithStatusJSON(status, body)
}

// fail reports err with the status statusFor picks. Internal faults keep
// their message for diagnostics and are logged.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}
	abortWithError(c, status, err.Error())
}
