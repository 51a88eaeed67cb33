package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eflash24/eflash-store/internal/accounts"
	"github.com/eflash24/eflash-store/internal/auth"
	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/internal/vault"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *engine.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := engine.NewMemStore(nil, nil)
	svc := accounts.NewService(store, vault.Bcrypt{Cost: bcrypt.MinCost})
	_, err := svc.SeedAdmin(context.Background(), "admin-pass")
	require.NoError(t, err)
	tokens := auth.NewTokenManager("test-secret", "eflash-gateway", time.Hour)
	return NewRouter(store, Options{BasePath: basePath, Accounts: svc, Tokens: tokens}), store
}

func TestAuthFlow(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := do(r, http.MethodPost, "/auth/register", map[string]any{"email": "A@B.com", "password": "secret", "name": "Ann", "profile": map[string]any{"city": "Oslo"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = do(r, http.MethodPost, "/auth/register", map[string]any{"email": "a@b.com", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/auth/login", map[string]any{"email": "a@b.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/login", map[string]any{"email": "a@b.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	var login loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, "a@b.com", login.User.Email)
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var session schema.PublicUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, login.User, session)
	assert.Equal(t, "Oslo", session.Profile["city"])
	assert.NotEmpty(t, session.CreatedAt)

	w = do(r, http.MethodGet, "/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodDelete, "/auth/users/a@b.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodDelete, "/auth/users/a@b.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_ProtectedAdmin(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := do(r, http.MethodDelete, "/auth/users/admin@eflash24.tech", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/auth/login", map[string]any{"email": "admin@eflash24.tech", "password": "admin-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_CredentialsNotExposed(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := do(r, http.MethodGet, basePath+"/_credentials", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodGet, basePath+"/_credentials/admin@eflash24.tech", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
