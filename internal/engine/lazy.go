package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eflash24/eflash-store/pkg/schema"
)

// Ensure Lazy satisfies the Store interface at compile time.
var _ Store = (*Lazy)(nil)

// Opener establishes a store connection.
type Opener func(ctx context.Context) (Store, error)

// Lazy is a process-wide store handle opened on first use and reused after.
// Concurrent first callers are serialized: one opens, the rest wait and
// reuse its handle. A failed open is retried by the next caller.
type Lazy struct {
	open    Opener
	mu      sync.Mutex
	current atomic.Pointer[handle]
}

type handle struct {
	store Store
}

// NewLazy wraps open in a Lazy handle.
func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

// Handle returns the shared store, opening it if needed.
func (l *Lazy) Handle(ctx context.Context) (Store, error) {
	if h := l.current.Load(); h != nil {
		return h.store, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if h := l.current.Load(); h != nil {
		return h.store, nil
	}
	s, err := l.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	l.current.Store(&handle{store: s})
	return s, nil
}

func (l *Lazy) Collections(ctx context.Context) ([]string, error) {
	s, err := l.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return s.Collections(ctx)
}

func (l *Lazy) List(ctx context.Context, collection string, opts ListOptions) ([]schema.Record, error) {
	s, err := l.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, collection, opts)
}

func (l *Lazy) Get(ctx context.Context, collection, id string) (schema.Record, error) {
	s, err := l.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, collection, id)
}

func (l *Lazy) Insert(ctx context.Context, collection string, rec schema.Record) (schema.Record, error) {
	s, err := l.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return s.Insert(ctx, collection, rec)
}

func (l *Lazy) Update(ctx context.Context, collection, id string, patch schema.Record) (schema.Record, error) {
	s, err := l.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, collection, id, patch)
}

func (l *Lazy) Delete(ctx context.Context, collection, id string) error {
	s, err := l.Handle(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, collection, id)
}

// Close closes the underlying store if it was ever opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.current.Swap(nil)
	if h == nil {
		return nil
	}
	return h.store.Close()
}
