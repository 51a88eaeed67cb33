package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/eflash24/eflash-store/pkg/schema"
)

const (
	collectionsDir = "collections"
	slotsDir       = "slots"
)

// Snapshot is everything a Persistence holds on disk.
type Snapshot struct {
	Collections map[string][]schema.Record
	Slots       map[string]json.RawMessage
}

// Persistence handles the disk I/O for the MemStore. Every collection and
// every slot lives in its own JSON file.
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
	written map[string]uint64
}

// NewPersistence initializes a persistence handler.
func NewPersistence(dir string) (*Persistence, error) {
	for _, sub := range []string{collectionsDir, slotsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, err
		}
	}
	return &Persistence{DataDir: dir, written: make(map[string]uint64)}, nil
}

// SaveCollection writes a collection as a JSON list. Writes carrying a
// revision older than one already written are dropped.
func (p *Persistence) SaveCollection(name string, rev uint64, records []schema.Record) error {
	if !schema.ValidCollectionName(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	if records == nil {
		records = []schema.Record{}
	}
	bytes, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return p.write("c/"+name, rev, filepath.Join(p.DataDir, collectionsDir, name+".json"), bytes)
}

// SaveSlot writes a slot value. A nil value removes the slot file.
func (p *Persistence) SaveSlot(key string, rev uint64, raw json.RawMessage) error {
	if !schema.ValidCollectionName(key) {
		return fmt.Errorf("invalid slot key %q", key)
	}
	return p.write("s/"+key, rev, filepath.Join(p.DataDir, slotsDir, key+".json"), raw)
}

func (p *Persistence) write(key string, rev uint64, filePath string, bytes []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rev <= p.written[key] {
		return nil
	}
	p.written[key] = rev

	if bytes == nil {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	// Write to a temporary file first, then swap it in.
	// A crash leaves either the old file or the new one, never a torn one.
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, filePath)
}

// LoadAll returns all collections and slots found in the data directory.
func (p *Persistence) LoadAll() (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := &Snapshot{
		Collections: make(map[string][]schema.Record),
		Slots:       make(map[string]json.RawMessage),
	}

	err := p.readDir(collectionsDir, func(name string, content []byte) error {
		var records []schema.Record
		if err := json.Unmarshal(content, &records); err != nil {
			return err
		}
		snap.Collections[name] = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.readDir(slotsDir, func(name string, content []byte) error {
		if !json.Valid(content) {
			return fmt.Errorf("invalid JSON")
		}
		snap.Slots[name] = json.RawMessage(content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (p *Persistence) readDir(sub string, load func(name string, content []byte) error) error {
	dir := filepath.Join(p.DataDir, sub)
	files, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(file.Name(), ".json")
		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			slog.Warn("could not read data file", "file", file.Name(), "error", err)
			continue // Skip unreadable files
		}
		if err := load(name, content); err != nil {
			slog.Warn("could not decode data file", "file", file.Name(), "error", err)
			continue
		}
	}
	return nil
}
