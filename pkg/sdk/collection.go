package sdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/broadcast"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// Collection is the resilient client for one collection. Each call tries the
// gateway first; only when that attempt has failed does it run against the
// local store. Mutations publish the collection's events once they complete.
type Collection struct {
	spec      schema.CollectionSpec
	remote    Remote // nil means offline
	local     Local
	bus       *broadcast.Bus
	validator *schema.Validator
	now       func() time.Time
}

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) CollectionOption {
	return func(c *Collection) { c.now = now }
}

// NewCollection builds the client for spec. remote may be nil. A spec with a
// CUE schema gets a validator run on every Add.
func NewCollection(spec schema.CollectionSpec, remote Remote, local Local, bus *broadcast.Bus, opts ...CollectionOption) (*Collection, error) {
	if !schema.ValidCollectionName(spec.Name) {
		return nil, fmt.Errorf("%w: invalid collection %q", schema.ErrBadRequest, spec.Name)
	}
	if len(spec.Events) == 0 {
		spec.Events = []string{schema.DefaultEvent(spec.Name)}
	}
	if bus == nil {
		bus = broadcast.New()
	}
	c := &Collection{spec: spec, remote: remote, local: local, bus: bus, now: time.Now}
	if spec.Schema != "" {
		v, err := schema.NewValidator(spec.Schema)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", spec.Name, err)
		}
		c.validator = v
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.spec.Name }

// Events returns the event names published after each mutation.
func (c *Collection) Events() []string { return append([]string(nil), c.spec.Events...) }

// Subscribe registers fn for this collection's changes. fn runs once per
// mutation even though several event names are published.
func (c *Collection) Subscribe(fn broadcast.Handler) (unsubscribe func()) {
	return c.bus.SubscribeAny(fn, c.spec.Events...)
}

func (c *Collection) publish() {
	c.bus.Publish(c.spec.Events...)
}

func (c *Collection) fellBack(op string, err error) {
	slog.Debug("gateway failed, using local store", "collection", c.spec.Name, "op", op, "error", err)
}

// List never fails: when the gateway cannot answer it returns the local
// snapshot, which may be empty.
func (c *Collection) List(ctx context.Context, opts engine.ListOptions) []schema.Record {
	if c.remote != nil {
		records, err := c.remote.List(ctx, c.spec.Name, opts)
		if err == nil {
			return records
		}
		c.fellBack("list", err)
	}

	records, err := c.local.List(ctx, c.spec.Name, opts)
	if err != nil {
		slog.Warn("local list failed", "collection", c.spec.Name, "error", err)
		return []schema.Record{}
	}
	return records
}

// GetByID reports false when neither store holds the record. A gateway 404
// is an answer, not a failure, so the local store is not consulted.
func (c *Collection) GetByID(ctx context.Context, id string) (schema.Record, bool) {
	if id == "" {
		return nil, false
	}
	if c.remote != nil {
		rec, err := c.remote.Get(ctx, c.spec.Name, id)
		switch {
		case err == nil:
			return rec, true
		case errors.Is(err, schema.ErrNotFound):
			return nil, false
		}
		c.fellBack("get", err)
	}

	rec, err := c.local.Get(ctx, c.spec.Name, id)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// Add stamps rec, validates it and stores it. The result carries the id the
// serving store assigned.
func (c *Collection) Add(ctx context.Context, rec schema.Record) (schema.Record, error) {
	stamped := rec.Clone()
	if stamped == nil {
		stamped = schema.Record{}
	}
	stamped.Stamp(schema.Timestamp(c.now()))

	if c.validator != nil {
		if err := c.validator.Validate(stamped); err != nil {
			return nil, err
		}
	}

	if c.remote != nil {
		created, err := c.remote.Insert(ctx, c.spec.Name, stamped)
		if err == nil {
			c.publish()
			return created, nil
		}
		c.fellBack("add", err)
	}

	created, err := c.local.Insert(ctx, c.spec.Name, stamped)
	if err != nil {
		return nil, err
	}
	c.publish()
	return created, nil
}

// Update merges patch into the record. id and createdAt in patch are ignored.
// A record missing from the local store fails with ErrNotFound.
func (c *Collection) Update(ctx context.Context, id string, patch schema.Record) (schema.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", schema.ErrBadRequest)
	}
	clean := engine.SanitizePatch(patch)
	clean[schema.FieldUpdatedAt] = schema.Timestamp(c.now())

	if c.remote != nil {
		updated, err := c.remote.Update(ctx, c.spec.Name, id, clean)
		if err == nil {
			c.publish()
			return updated, nil
		}
		c.fellBack("update", err)
	}

	updated, err := c.local.Update(ctx, c.spec.Name, id, clean)
	if err != nil {
		return nil, err
	}
	c.publish()
	return updated, nil
}

// Delete removes the record. The local fallback treats an absent record as
// already deleted, so only an empty id fails.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", schema.ErrBadRequest)
	}

	if c.remote != nil {
		err := c.remote.Delete(ctx, c.spec.Name, id)
		if err == nil {
			c.publish()
			return nil
		}
		c.fellBack("delete", err)
	}

	if err := c.local.Delete(ctx, c.spec.Name, id); err != nil && !errors.Is(err, engine.ErrNotFound) {
		slog.Warn("local delete failed", "collection", c.spec.Name, "id", id, "error", err)
	}
	c.publish()
	return nil
}

// --- Generics Support ---

// ListAs lists the collection decoded into T.
func ListAs[T any](ctx context.Context, c *Collection, opts engine.ListOptions) ([]T, error) {
	records := c.List(ctx, opts)
	out := make([]T, 0, len(records))
	for _, rec := range records {
		v, err := schema.Decode[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetAs fetches one record decoded into T.
func GetAs[T any](ctx context.Context, c *Collection, id string) (T, bool, error) {
	var target T
	rec, ok := c.GetByID(ctx, id)
	if !ok {
		return target, false, nil
	}
	target, err := schema.Decode[T](rec)
	return target, err == nil, err
}

// AddAs encodes v and adds it.
func AddAs[T any](ctx context.Context, c *Collection, v T) (schema.Record, error) {
	rec, err := schema.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrBadRequest, err)
	}
	return c.Add(ctx, rec)
}
