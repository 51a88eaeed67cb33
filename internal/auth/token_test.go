package auth

import (
	"testing"
	"time"

	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "eflash-gateway", time.Hour)
	user := schema.PublicUser{Email: "jane@example.com", Role: schema.RoleCustomer, Name: "Jane", Verified: true}

	token, err := tm.Generate(user)
	require.NoError(t, err)

	got, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestTokenManager_CarriesFullProjection(t *testing.T) {
	tm := NewTokenManager("secret", "eflash-gateway", time.Hour)
	user := schema.PublicUser{
		Email:     "ann@example.com",
		Role:      schema.RoleCustomer,
		Name:      "Ann",
		Profile:   map[string]any{"city": "Oslo", "visits": 3.0},
		CreatedAt: "2024-05-01T08:00:00.000000000Z",
	}

	token, err := tm.Generate(user)
	require.NoError(t, err)

	got, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", "eflash-gateway", time.Hour)
	token, err := tm.Generate(schema.PublicUser{Email: "jane@example.com"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", "eflash-gateway", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewTokenManager("secret", "someone-else", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", "eflash-gateway", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
