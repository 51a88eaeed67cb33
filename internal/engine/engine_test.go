package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eflash24/eflash-store/pkg/schema"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

func stamped(ts time.Time, fields schema.Record) schema.Record {
	rec := fields.Clone()
	if rec == nil {
		rec = schema.Record{}
	}
	return rec.Stamp(schema.Timestamp(ts))
}

func TestMemStore_InsertGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(nil, nil, WithIDs(&seqIDs{}))

	created, err := ms.Insert(ctx, "products", schema.Record{"name": "Mug", "price": 500.0})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if created.ID() != "id-1" {
		t.Fatalf("Expected assigned id id-1, got %q", created.ID())
	}

	got, err := ms.Get(ctx, "products", "id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["name"] != "Mug" {
		t.Errorf("Expected Mug, got %v", got["name"])
	}

	updated, err := ms.Update(ctx, "products", "id-1", schema.Record{"price": 450.0, "id": "hijack"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated["price"] != 450.0 || updated["name"] != "Mug" || updated.ID() != "id-1" {
		t.Errorf("Unexpected merge result: %v", updated)
	}

	if err := ms.Delete(ctx, "products", "id-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := ms.Get(ctx, "products", "id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := ms.Delete(ctx, "products", "id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemStore_InsertKeepsSuppliedID(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(nil, nil)

	if _, err := ms.Insert(ctx, "orders", schema.Record{"id": "o-1"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := ms.Insert(ctx, "orders", schema.Record{"id": "o-1"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemStore_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(nil, nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rec, _ := ms.Insert(ctx, "projects", stamped(base, schema.Record{"title": "Site"}))
	updated, err := ms.Update(ctx, "projects", rec.ID(), schema.Record{"createdAt": "1999", "title": "Shop"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.CreatedAt() != schema.Timestamp(base) {
		t.Errorf("createdAt changed to %q", updated.CreatedAt())
	}
}

func TestMemStore_ListOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(nil, nil, WithIDs(&seqIDs{}))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of order to prove sorting does not rely on insertion order.
	for _, minute := range []int{3, 1, 4, 0, 2} {
		ms.Insert(ctx, "blog_posts", stamped(base.Add(time.Duration(minute)*time.Minute), schema.Record{"n": float64(minute)}))
	}

	all, _ := ms.List(ctx, "blog_posts", ListOptions{})
	if len(all) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].CreatedAt() <= all[i].CreatedAt() {
			t.Fatalf("List not strictly descending at %d: %v", i, all)
		}
	}

	page, _ := ms.List(ctx, "blog_posts", ListOptions{Skip: 1, Limit: 2})
	if len(page) != 2 || page[0]["n"] != 3.0 || page[1]["n"] != 2.0 {
		t.Errorf("Unexpected page: %v", page)
	}

	past, _ := ms.List(ctx, "blog_posts", ListOptions{Skip: 10})
	if len(past) != 0 {
		t.Errorf("Expected empty page past the end, got %v", past)
	}

	empty, err := ms.List(ctx, "never-used", ListOptions{})
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected empty list for unknown collection, got %v, %v", empty, err)
	}
}

func TestMemStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(nil, nil)

	rec, _ := ms.Insert(ctx, "products", schema.Record{"tags": []any{"a"}})
	rec["tags"].([]any)[0] = "mutated"

	got, _ := ms.Get(ctx, "products", rec.ID())
	if got["tags"].([]any)[0] != "a" {
		t.Error("Store state leaked through a returned record")
	}
}

func TestMemStore_Slots(t *testing.T) {
	ms := NewMemStore(nil, nil)

	var out map[string]int
	ok, err := ms.GetSlot("analytics", &out)
	if ok || err != nil {
		t.Fatalf("Expected empty slot, got %v, %v", ok, err)
	}

	if err := ms.SetSlot("analytics", map[string]int{"views": 3}); err != nil {
		t.Fatalf("SetSlot failed: %v", err)
	}
	ok, _ = ms.GetSlot("analytics", &out)
	if !ok || out["views"] != 3 {
		t.Errorf("Unexpected slot value: %v", out)
	}

	ms.DeleteSlot("analytics")
	ms.DeleteSlot("analytics")
	if ok, _ := ms.GetSlot("analytics", &out); ok {
		t.Error("Slot should be empty after delete")
	}
}

func TestPersistence(t *testing.T) {
	tmpDir := t.TempDir()

	p, err := NewPersistence(tmpDir)
	if err != nil {
		t.Fatalf("NewPersistence failed: %v", err)
	}

	records := []schema.Record{{"id": "1", "name": "Mug"}}
	if err := p.SaveCollection("products", 1, records); err != nil {
		t.Fatalf("SaveCollection failed: %v", err)
	}
	// A stale revision must not overwrite the newer file.
	if err := p.SaveCollection("products", 1, nil); err != nil {
		t.Fatalf("SaveCollection failed: %v", err)
	}
	if err := p.SaveSlot("session", 1, []byte(`{"user":{"email":"a@b.com"}}`)); err != nil {
		t.Fatalf("SaveSlot failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "collections", "products.json")); os.IsNotExist(err) {
		t.Fatal("Collection file was not created")
	}

	snap, err := p.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(snap.Collections["products"]) != 1 || snap.Collections["products"][0]["name"] != "Mug" {
		t.Errorf("Loaded data mismatch: %v", snap.Collections)
	}
	if _, ok := snap.Slots["session"]; !ok {
		t.Error("Session slot was not loaded")
	}

	if err := p.SaveSlot("session", 2, nil); err != nil {
		t.Fatalf("SaveSlot removal failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "slots", "session.json")); !os.IsNotExist(err) {
		t.Error("Slot file should have been removed")
	}
}

func TestPersistence_RejectsBadNames(t *testing.T) {
	p, _ := NewPersistence(t.TempDir())
	if err := p.SaveCollection("../escape", 1, nil); err == nil {
		t.Error("Expected error for path-like collection name")
	}
}

func TestMemStore_Persistence(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	ms, err := OpenMemStore(tmpDir)
	if err != nil {
		t.Fatalf("OpenMemStore failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		ms.Insert(ctx, "reviews", schema.Record{"rating": float64(i%5 + 1)})
	}
	ms.SetSlot("notifications", []string{"hello"})
	ms.Wait()

	reopened, err := OpenMemStore(tmpDir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	all, _ := reopened.List(ctx, "reviews", ListOptions{})
	if len(all) != 20 {
		t.Errorf("Expected 20 persisted reviews, got %d", len(all))
	}
	var notes []string
	if ok, _ := reopened.GetSlot("notifications", &notes); !ok || len(notes) != 1 {
		t.Errorf("Expected persisted slot, got %v", notes)
	}
}

func TestMemStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	ms := NewMemStore(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := ms.Insert(ctx, "orders", schema.Record{"n": float64(i)})
			if err != nil {
				t.Errorf("Insert failed: %v", err)
				return
			}
			ms.Update(ctx, "orders", rec.ID(), schema.Record{"seen": true})
			ms.List(ctx, "orders", ListOptions{Limit: 5})
		}(i)
	}
	wg.Wait()

	all, _ := ms.List(ctx, "orders", ListOptions{})
	if len(all) != 50 {
		t.Errorf("Expected 50 orders, got %d", len(all))
	}
}

func TestTimestampIDs_Monotonic(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := &TimestampIDs{now: func() time.Time { return fixed }}

	a, b := g.NewID(), g.NewID()
	if a == b {
		t.Fatalf("Expected distinct ids, got %s twice", a)
	}
	if a != fmt.Sprint(fixed.UnixMilli()) {
		t.Errorf("Expected first id to be the timestamp, got %s", a)
	}
}

func TestLazy_OpensOnceAndRetriesFailure(t *testing.T) {
	ctx := context.Background()
	calls := 0
	fail := true
	lazy := NewLazy(func(context.Context) (Store, error) {
		calls++
		if fail {
			return nil, errors.New("database down")
		}
		return NewMemStore(nil, nil), nil
	})

	if _, err := lazy.List(ctx, "products", ListOptions{}); err == nil {
		t.Fatal("Expected open failure to surface")
	}

	fail = false
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := lazy.Insert(ctx, "products", schema.Record{}); err != nil {
				t.Errorf("Insert failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls != 2 {
		t.Errorf("Expected 2 open attempts, got %d", calls)
	}
	all, _ := lazy.List(ctx, "products", ListOptions{})
	if len(all) != 10 {
		t.Errorf("Expected 10 records through the shared handle, got %d", len(all))
	}
	if err := lazy.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	src := NewMemStore(nil, nil)
	dst := NewMemStore(nil, nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	src.Insert(ctx, "products", stamped(base, schema.Record{"name": "old"}))
	src.Insert(ctx, "products", stamped(base.Add(time.Hour), schema.Record{"name": "new"}))
	src.Insert(ctx, "_credentials", schema.Record{"id": "a@b.com"})

	n, err := Migrate(ctx, src, dst, func(name string) bool { return !schema.IsReserved(name) })
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 migrated records, got %d", n)
	}

	names, _ := dst.Collections(ctx)
	if len(names) != 1 || names[0] != "products" {
		t.Errorf("Expected only products in destination, got %v", names)
	}
	all, _ := dst.List(ctx, "products", ListOptions{})
	if all[0]["name"] != "new" {
		t.Errorf("Expected newest first after migration, got %v", all)
	}
}
