package sdk_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eflash24/eflash-store/internal/accounts"
	"github.com/eflash24/eflash-store/internal/api"
	"github.com/eflash24/eflash-store/internal/auth"
	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/internal/vault"
	"github.com/eflash24/eflash-store/pkg/sdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAdminPassword = "admin-pass"

// startGateway runs a real gateway over an in-memory store.
func startGateway(t *testing.T) (*httptest.Server, *engine.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := engine.NewMemStore(nil, nil)
	svc := accounts.NewService(store, vault.Bcrypt{Cost: bcrypt.MinCost})
	_, err := svc.SeedAdmin(context.Background(), testAdminPassword)
	require.NoError(t, err)

	router := api.NewRouter(store, api.Options{
		BasePath: "/api/data",
		Accounts: svc,
		Tokens:   auth.NewTokenManager("test-secret", "eflash-gateway", time.Hour),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

// deadURL points at a port nothing listens on.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	return url
}

func newClient(t *testing.T, baseURL string) *sdk.Client {
	t.Helper()
	c, err := sdk.New(sdk.Config{
		DevURL:        baseURL + "/api/data",
		DataDir:       t.TempDir(),
		Timeout:       2 * time.Second,
		HashCost:      bcrypt.MinCost,
		AdminPassword: testAdminPassword,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}
