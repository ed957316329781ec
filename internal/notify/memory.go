package notify

import (
	"sync"

	"subtrack/internal/subtrack"
)

// MemoryNotifier records posted notifications in memory, useful for testing.
// Safe for concurrent use.
type MemoryNotifier struct {
	mu        sync.Mutex
	byGroup   map[string]Notification
	posts     int
	permitted bool
}

var _ subtrack.NotificationFacility = (*MemoryNotifier)(nil)

// NewMemoryNotifier creates a notifier with posting permitted.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{
		byGroup:   make(map[string]Notification),
		permitted: true,
	}
}

func (m *MemoryNotifier) Post(groupKey, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byGroup[groupKey] = Notification{GroupKey: groupKey, Title: title, Body: body}
	m.posts++
	return nil
}

func (m *MemoryNotifier) PostAllowed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permitted
}

// SetPostAllowed flips the permission state, for tests.
func (m *MemoryNotifier) SetPostAllowed(allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permitted = allowed
}

// Visible returns the notification currently visible for the group, if any.
// Replaced notifications are not retained.
func (m *MemoryNotifier) Visible(groupKey string) (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byGroup[groupKey]
	return n, ok
}

// Posts returns the total number of Post calls, including replacements.
func (m *MemoryNotifier) Posts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts
}
