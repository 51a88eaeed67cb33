package engine

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator assigns identifiers to records inserted without one.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues time-sortable UUIDv7 identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// TimestampIDs issues millisecond-timestamp identifiers, bumped so that no
// two calls on the same generator return the same value.
type TimestampIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTimestampIDs creates a timestamp id generator on the wall clock.
func NewTimestampIDs() *TimestampIDs {
	return &TimestampIDs{now: time.Now}
}

func (g *TimestampIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	id := now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return strconv.FormatInt(id, 10)
}
