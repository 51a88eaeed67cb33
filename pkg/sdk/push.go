package sdk

import (
	"context"
	"slices"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// pushLog lists, per collection, the local ids already sent to the gateway.
type pushLog map[string][]string

func (l pushLog) has(collection, id string) bool {
	return slices.Contains(l[collection], id)
}

// pendingSource hides records the push log already lists.
type pendingSource struct {
	engine.Source
	sent pushLog
}

func (s pendingSource) List(ctx context.Context, collection string, opts engine.ListOptions) ([]schema.Record, error) {
	records, err := s.Source.List(ctx, collection, opts)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(records, func(rec schema.Record) bool {
		return s.sent.has(collection, rec.ID())
	}), nil
}

// recordingWriter adds the local id of every record the gateway accepted.
type recordingWriter struct {
	engine.Writer
	sent pushLog
}

func (w recordingWriter) Insert(ctx context.Context, collection string, rec schema.Record) (schema.Record, error) {
	localID := rec.ID()
	created, err := w.Writer.Insert(ctx, collection, rec)
	if err == nil && localID != "" {
		w.sent[collection] = append(w.sent[collection], localID)
	}
	return created, err
}
