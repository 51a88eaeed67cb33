// Package engine defines the document-store contract and the embedded
// in-memory engine used both by the gateway and by the client-side fallback.
package engine

import (
	"context"
	"sort"

	"github.com/eflash24/eflash-store/pkg/schema"
)

// Aliases for the store-level errors.
var (
	ErrNotFound      = schema.ErrNotFound
	ErrAlreadyExists = schema.ErrAlreadyExists
)

// ListOptions pages a collection listing. Zero values mean "no skip" and "no limit".
type ListOptions struct {
	Skip  int
	Limit int
}

// --- Functional Interfaces ---

// Reader defines the read operations on collections.
type Reader interface {
	List(ctx context.Context, collection string, opts ListOptions) ([]schema.Record, error)
	Get(ctx context.Context, collection, id string) (schema.Record, error)
}

// Writer defines the mutating operations on collections.
type Writer interface {
	// Insert stores rec and returns it as stored. An id is assigned only
	// when rec carries none; an id collision fails with ErrAlreadyExists.
	Insert(ctx context.Context, collection string, rec schema.Record) (schema.Record, error)
	// Update replaces the fields present in patch. id and createdAt never change.
	Update(ctx context.Context, collection, id string, patch schema.Record) (schema.Record, error)
	// Delete removes the record, failing with ErrNotFound when absent.
	Delete(ctx context.Context, collection, id string) error
}

// Enumerator lists the collections holding data.
type Enumerator interface {
	Collections(ctx context.Context) ([]string, error)
}

// Store is the complete document-store contract.
type Store interface {
	Reader
	Writer
	Enumerator
	Close() error
}

// immutableFields are stripped from every update patch.
var immutableFields = []string{schema.FieldID, schema.FieldCreatedAt}

// SanitizePatch drops the fields an update may not change.
func SanitizePatch(patch schema.Record) schema.Record {
	return patch.Without(immutableFields...)
}

// SortNewestFirst orders records by createdAt descending. Records without
// createdAt go last; ties keep their insertion order.
func SortNewestFirst(records []schema.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt() > records[j].CreatedAt()
	})
}

// Page applies skip then limit to an ordered listing.
func Page(records []schema.Record, opts ListOptions) []schema.Record {
	if opts.Skip > 0 {
		if opts.Skip >= len(records) {
			return []schema.Record{}
		}
		records = records[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	return records
}
