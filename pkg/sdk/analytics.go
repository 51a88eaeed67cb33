package sdk

import (
	"sync"
	"time"

	"github.com/eflash24/eflash-store/pkg/broadcast"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// EventAnalytics is published after every analytics write.
const EventAnalytics = "analyticsUpdated"

// Summary is the analytics slot.
type Summary struct {
	PageViews  map[string]int `json:"pageViews"`
	Events     map[string]int `json:"events"`
	TotalViews int            `json:"totalViews"`
	LastVisit  string         `json:"lastVisit,omitempty"`
}

// Analytics counts page views and named events in the local store only.
type Analytics struct {
	mu    sync.Mutex
	slots SlotStore
	bus   *broadcast.Bus
	now   func() time.Time
}

// NewAnalytics creates the counter on slots.
func NewAnalytics(slots SlotStore, bus *broadcast.Bus) *Analytics {
	if bus == nil {
		bus = broadcast.New()
	}
	return &Analytics{slots: slots, bus: bus, now: time.Now}
}

// TrackPageView counts one view of path.
func (a *Analytics) TrackPageView(path string) error {
	return a.update(func(s *Summary) {
		s.PageViews[path]++
		s.TotalViews++
		s.LastVisit = schema.Timestamp(a.now())
	})
}

// TrackEvent counts one occurrence of name.
func (a *Analytics) TrackEvent(name string) error {
	return a.update(func(s *Summary) {
		s.Events[name]++
	})
}

// Summary returns the current counters.
func (a *Analytics) Summary() (Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked()
}

// Reset clears every counter.
func (a *Analytics) Reset() {
	a.mu.Lock()
	a.slots.DeleteSlot(SlotAnalytics)
	a.mu.Unlock()
	a.bus.Publish(EventAnalytics)
}

func (a *Analytics) update(fn func(*Summary)) error {
	a.mu.Lock()
	s, err := a.loadLocked()
	if err == nil {
		fn(&s)
		err = a.slots.SetSlot(SlotAnalytics, s)
	}
	a.mu.Unlock()
	if err != nil {
		return err
	}
	a.bus.Publish(EventAnalytics)
	return nil
}

func (a *Analytics) loadLocked() (Summary, error) {
	var s Summary
	if _, err := a.slots.GetSlot(SlotAnalytics, &s); err != nil {
		return Summary{}, err
	}
	if s.PageViews == nil {
		s.PageViews = map[string]int{}
	}
	if s.Events == nil {
		s.Events = map[string]int{}
	}
	return s, nil
}
