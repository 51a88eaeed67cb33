// Package postgres stores collections as JSONB documents in a single table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the engine.Store interface at compile time.
var _ engine.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for collections.
type Store struct {
	pool *pgxpool.Pool
	ids  engine.IDGenerator
}

// NewStore connects to databaseURL and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool, ids: engine.UUIDGenerator{}}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			seq BIGSERIAL,
			created_at TEXT NOT NULL DEFAULT '',
			doc JSONB NOT NULL,
			PRIMARY KEY (collection, id)
		);`,
		`CREATE INDEX IF NOT EXISTS documents_listing_idx ON documents (collection, created_at DESC, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection;`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) List(ctx context.Context, collection string, opts engine.ListOptions) ([]schema.Record, error) {
	// LIMIT NULL means no limit.
	var limit any
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	const query = `
	SELECT doc FROM documents
	WHERE collection = $1
	ORDER BY created_at DESC, seq ASC
	OFFSET $2 LIMIT $3;
	`
	rows, err := s.pool.Query(ctx, query, collection, max(opts.Skip, 0), limit)
	if err != nil {
		return nil, err
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.Record, error) {
		return scanDoc(row)
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []schema.Record{}
	}
	return records, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (schema.Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT doc FROM documents WHERE collection = $1 AND id = $2;`, collection, id)
	return scanDoc(row)
}

func (s *Store) Insert(ctx context.Context, collection string, rec schema.Record) (schema.Record, error) {
	stored := rec.Clone()
	if stored == nil {
		stored = schema.Record{}
	}
	if stored.ID() == "" {
		stored[schema.FieldID] = s.ids.NewID()
	}
	doc, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrBadRequest, err)
	}

	const query = `
	INSERT INTO documents (collection, id, created_at, doc)
	VALUES ($1, $2, $3, $4::jsonb)
	RETURNING doc;
	`
	row := s.pool.QueryRow(ctx, query, collection, stored.ID(), stored.CreatedAt(), string(doc))
	created, err := scanDoc(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, engine.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch schema.Record) (schema.Record, error) {
	doc, err := json.Marshal(engine.SanitizePatch(patch))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrBadRequest, err)
	}
	const query = `
	UPDATE documents SET doc = doc || $3::jsonb
	WHERE collection = $1 AND id = $2
	RETURNING doc;
	`
	return scanDoc(s.pool.QueryRow(ctx, query, collection, id, string(doc)))
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2;`, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func scanDoc(row pgx.Row) (schema.Record, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	var rec schema.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return rec, nil
}
