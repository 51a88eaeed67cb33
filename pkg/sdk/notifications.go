package sdk

import (
	"slices"
	"sync"
	"time"

	"github.com/eflash24/eflash-store/pkg/broadcast"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/google/uuid"
)

// EventNotifications is published after every notification change.
const EventNotifications = "notificationsUpdated"

// Notification is one entry in the local inbox.
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

// Notifications is a local inbox kept newest first.
type Notifications struct {
	mu    sync.Mutex
	slots SlotStore
	bus   *broadcast.Bus
	now   func() time.Time
}

// NewNotifications creates the inbox on slots.
func NewNotifications(slots SlotStore, bus *broadcast.Bus) *Notifications {
	if bus == nil {
		bus = broadcast.New()
	}
	return &Notifications{slots: slots, bus: bus, now: time.Now}
}

// Push adds a notification at the top of the inbox.
func (n *Notifications) Push(title, body, kind string) (Notification, error) {
	note := Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Kind:      kind,
		CreatedAt: schema.Timestamp(n.now()),
	}
	err := n.update(func(list []Notification) ([]Notification, error) {
		return append([]Notification{note}, list...), nil
	})
	if err != nil {
		return Notification{}, err
	}
	return note, nil
}

// List returns the inbox, newest first.
func (n *Notifications) List() ([]Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loadLocked()
}

// MarkRead flags one notification as read.
func (n *Notifications) MarkRead(id string) error {
	return n.update(func(list []Notification) ([]Notification, error) {
		i := slices.IndexFunc(list, func(note Notification) bool { return note.ID == id })
		if i < 0 {
			return nil, schema.ErrNotFound
		}
		list[i].Read = true
		return list, nil
	})
}

// UnreadCount counts notifications not yet read.
func (n *Notifications) UnreadCount() (int, error) {
	list, err := n.List()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, note := range list {
		if !note.Read {
			count++
		}
	}
	return count, nil
}

// Clear empties the inbox.
func (n *Notifications) Clear() {
	n.mu.Lock()
	n.slots.DeleteSlot(SlotNotifications)
	n.mu.Unlock()
	n.bus.Publish(EventNotifications)
}

func (n *Notifications) update(fn func([]Notification) ([]Notification, error)) error {
	n.mu.Lock()
	list, err := n.loadLocked()
	if err == nil {
		list, err = fn(list)
	}
	if err == nil {
		err = n.slots.SetSlot(SlotNotifications, list)
	}
	n.mu.Unlock()
	if err != nil {
		return err
	}
	n.bus.Publish(EventNotifications)
	return nil
}

func (n *Notifications) loadLocked() ([]Notification, error) {
	list := []Notification{}
	if _, err := n.slots.GetSlot(SlotNotifications, &list); err != nil {
		return nil, err
	}
	return list, nil
}
