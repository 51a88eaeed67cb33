package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a disposable database; they are skipped otherwise.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("EFLASH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("EFLASH_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewStore(ctx, url)
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `TRUNCATE documents;`)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.Insert(ctx, "projects", schema.Record{"title": "Site"}.Stamp(schema.Now()))
	require.NoError(t, err)

	updated, err := s.Update(ctx, "projects", created.ID(), schema.Record{"title": "Shop", "createdAt": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Shop", updated["title"])
	assert.Equal(t, created.CreatedAt(), updated.CreatedAt())

	_, err = s.Insert(ctx, "projects", schema.Record{"id": created.ID()})
	assert.ErrorIs(t, err, engine.ErrAlreadyExists)

	require.NoError(t, s.Delete(ctx, "projects", created.ID()))
	_, err = s.Get(ctx, "projects", created.ID())
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestStore_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := s.Insert(ctx, "reviews", schema.Record{"n": float64(i)}.Stamp(schema.Timestamp(base.Add(time.Duration(i)*time.Hour))))
		require.NoError(t, err)
	}

	page, err := s.List(ctx, "reviews", engine.ListOptions{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2.0, page[0]["n"])
	assert.Equal(t, 1.0, page[1]["n"])
}
