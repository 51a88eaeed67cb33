package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, driver := range []string{DriverMemory, DriverFile, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			store, err := Open(ctx, Config{
				Driver:     driver,
				DataDir:    filepath.Join(dir, driver),
				SQLitePath: filepath.Join(dir, driver, "eflash.db"),
			})
			require.NoError(t, err)
			defer store.Close()

			rec, err := store.Insert(ctx, "products", schema.Record{"name": "Mug"})
			require.NoError(t, err)
			got, err := store.Get(ctx, "products", rec.ID())
			require.NoError(t, err)
			assert.Equal(t, "Mug", got["name"])
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = Open(context.Background(), Config{Driver: DriverPostgres})
	assert.Error(t, err)
}

func TestOpen_PostgresIsLazy(t *testing.T) {
	store, err := Open(context.Background(), Config{Driver: DriverPostgres, DatabaseURL: "postgres://nobody@127.0.0.1:1/none"})
	require.NoError(t, err)
	assert.IsType(t, &engine.Lazy{}, store)
}
