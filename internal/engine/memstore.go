package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/eflash24/eflash-store/pkg/schema"
)

// Ensure MemStore satisfies the Store interface at compile time.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe in-memory document store. Collections keep
// insertion order. Stored records are never mutated in place, so snapshots
// handed to the persister can share them.
type MemStore struct {
	mu          sync.RWMutex
	collections map[string][]schema.Record
	slots       map[string]json.RawMessage
	revs        map[string]uint64
	ids         IDGenerator
	persister   *Persistence
	wg          sync.WaitGroup
}

// Option configures a MemStore.
type Option func(*MemStore)

// WithIDs sets the generator used for records inserted without an id.
func WithIDs(g IDGenerator) Option {
	return func(m *MemStore) {
		m.ids = g
	}
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and an optional persister.
func NewMemStore(initial *Snapshot, p *Persistence, opts ...Option) *MemStore {
	m := &MemStore{
		collections: make(map[string][]schema.Record),
		slots:       make(map[string]json.RawMessage),
		revs:        make(map[string]uint64),
		ids:         UUIDGenerator{},
		persister:   p,
	}
	if initial != nil {
		for name, records := range initial.Collections {
			m.collections[name] = records
		}
		for key, raw := range initial.Slots {
			m.slots[key] = raw
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OpenMemStore loads a file-backed MemStore from dir.
func OpenMemStore(dir string, opts ...Option) (*MemStore, error) {
	p, err := NewPersistence(dir)
	if err != nil {
		return nil, err
	}
	snap, err := p.LoadAll()
	if err != nil {
		return nil, err
	}
	return NewMemStore(snap, p, opts...), nil
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

// Close flushes pending writes.
func (m *MemStore) Close() error {
	m.Wait()
	return nil
}

// --- Collections ---

func (m *MemStore) Collections(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]string, 0, len(m.collections))
	for name := range m.collections {
		list = append(list, name)
	}
	sort.Strings(list)
	return list, nil
}

func (m *MemStore) List(_ context.Context, collection string, opts ListOptions) ([]schema.Record, error) {
	m.mu.RLock()
	records := make([]schema.Record, len(m.collections[collection]))
	copy(records, m.collections[collection])
	m.mu.RUnlock()

	SortNewestFirst(records)
	records = Page(records, opts)
	out := make([]schema.Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out, nil
}

func (m *MemStore) Get(_ context.Context, collection, id string) (schema.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(collection, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return m.collections[collection][i].Clone(), nil
}

func (m *MemStore) Insert(_ context.Context, collection string, rec schema.Record) (schema.Record, error) {
	stored := rec.Clone()
	if stored == nil {
		stored = schema.Record{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id := stored.ID(); id == "" {
		stored[schema.FieldID] = m.ids.NewID()
	} else if m.indexOf(collection, id) >= 0 {
		return nil, ErrAlreadyExists
	}
	m.collections[collection] = append(m.collections[collection], stored)
	m.persistCollectionLocked(collection)
	return stored.Clone(), nil
}

func (m *MemStore) Update(_ context.Context, collection, id string, patch schema.Record) (schema.Record, error) {
	patch = SanitizePatch(patch.Clone())

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(collection, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	merged := m.collections[collection][i].Merge(patch)
	m.collections[collection][i] = merged
	m.persistCollectionLocked(collection)
	return merged.Clone(), nil
}

func (m *MemStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(collection, id)
	if i < 0 {
		return ErrNotFound
	}
	records := m.collections[collection]
	kept := make([]schema.Record, 0, len(records)-1)
	kept = append(kept, records[:i]...)
	kept = append(kept, records[i+1:]...)
	m.collections[collection] = kept
	m.persistCollectionLocked(collection)
	return nil
}

// indexOf MUST be called while holding m.mu.
func (m *MemStore) indexOf(collection, id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range m.collections[collection] {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

// --- Slots ---

// GetSlot decodes the slot into v. It reports false when the slot is empty.
func (m *MemStore) GetSlot(key string, v any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.slots[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetSlot stores v as the slot's JSON value.
func (m *MemStore) SetSlot(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = raw
	m.persistSlotLocked(key, raw)
	return nil
}

// DeleteSlot empties the slot. Deleting an empty slot is a no-op.
func (m *MemStore) DeleteSlot(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[key]; !ok {
		return
	}
	delete(m.slots, key)
	m.persistSlotLocked(key, nil)
}

// --- Background persistence ---

// persistCollectionLocked MUST be called while holding m.mu.Lock.
func (m *MemStore) persistCollectionLocked(collection string) {
	if m.persister == nil {
		return
	}
	rev := m.nextRevLocked("c/" + collection)
	records := make([]schema.Record, len(m.collections[collection]))
	copy(records, m.collections[collection])

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.persister.SaveCollection(collection, rev, records); err != nil {
			slog.Error("persist collection failed", "collection", collection, "error", err)
		}
	}()
}

// persistSlotLocked MUST be called while holding m.mu.Lock.
func (m *MemStore) persistSlotLocked(key string, raw json.RawMessage) {
	if m.persister == nil {
		return
	}
	rev := m.nextRevLocked("s/" + key)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.persister.SaveSlot(key, rev, raw); err != nil {
			slog.Error("persist slot failed", "slot", key, "error", err)
		}
	}()
}

func (m *MemStore) nextRevLocked(key string) uint64 {
	m.revs[key]++
	return m.revs[key]
}
