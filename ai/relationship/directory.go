package relationship

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Directory that has no record of a contact.
var ErrNotFound = errors.New("contact not found")

// Directory groups.
const (
	GroupFamily = "family"
	GroupFriend = "friend"
	GroupWork   = "work"
)

// Entry is the directory metadata of one contact.
type Entry struct {
	DisplayName string `json:"display_name"`
	// Group is GroupFamily, GroupFriend, GroupWork or empty.
	Group    string `json:"group,omitempty"`
	Favorite bool   `json:"favorite"`
	// RecentInteractions counts exchanges within the directory's recency window.
	RecentInteractions int `json:"recent_interactions"`
}

// Directory resolves a raw contact identifier to directory metadata.
type Directory interface {
	// Lookup returns ErrNotFound when the contact is unknown.
	Lookup(ctx context.Context, contactID string) (Entry, error)
}

// InMemoryDirectory is a Directory kept in process memory.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewInMemoryDirectory creates an empty directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{entries: make(map[string]Entry)}
}

// Put adds or replaces a contact.
func (d *InMemoryDirectory) Put(contactID string, e Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[contactID] = e
}

// Lookup implements Directory.
func (d *InMemoryDirectory) Lookup(ctx context.Context, contactID string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.entries[contactID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}
