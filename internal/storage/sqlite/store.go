// Package sqlite stores collections as JSON documents in a single SQLite
// table. It is the gateway's option for single-node deployments that want
// a real database file instead of the JSON directory.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Ensure Store satisfies the engine.Store interface at compile time.
var _ engine.Store = (*Store)(nil)

// Store is a SQLite-backed document store.
type Store struct {
	db  *sql.DB
	ids engine.IDGenerator
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, ids: engine.UUIDGenerator{}}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) List(ctx context.Context, collection string, opts engine.ListOptions) ([]schema.Record, error) {
	// LIMIT -1 means no limit in SQLite.
	limit := -1
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM documents
		WHERE collection = ?
		ORDER BY created_at DESC, seq ASC
		LIMIT ? OFFSET ?`, collection, limit, max(opts.Skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []schema.Record{}
	for rows.Next() {
		rec, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) Get(ctx context.Context, collection, id string) (schema.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id)
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, created_at, doc) VALUES (?, ?, ?, ?)`,
		collection, stored.ID(), stored.CreatedAt(), string(doc))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, engine.ErrAlreadyExists
		}
		return nil, err
	}
	return stored, nil
}

// Update merges patch into the stored document inside one transaction.
func (s *Store) Update(ctx context.Context, collection, id string, patch schema.Record) (schema.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := scanDoc(tx.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id))
	if err != nil {
		return nil, err
	}

	merged := current.Merge(engine.SanitizePatch(patch))
	doc, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrBadRequest, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET doc = ? WHERE collection = ? AND id = ?`,
		string(doc), collection, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoc(row scanner) (schema.Record, error) {
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	var rec schema.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return rec, nil
}
