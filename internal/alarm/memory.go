package alarm

import (
	"sort"
	"sync"
	"time"

	"subtrack/internal/subtrack"
)

// MemoryAlarms is an in-memory alarm table, useful for testing. Safe for
// concurrent use.
type MemoryAlarms struct {
	mu        sync.Mutex
	pending   map[int64]Pending
	permitted bool
}

var _ subtrack.AlarmFacility = (*MemoryAlarms)(nil)

// NewMemoryAlarms creates an empty table with exact scheduling permitted.
func NewMemoryAlarms() *MemoryAlarms {
	return &MemoryAlarms{
		pending:   make(map[int64]Pending),
		permitted: true,
	}
}

// Schedule registers a wake-up, replacing any pending one under the same key.
func (m *MemoryAlarms) Schedule(key int64, payableID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[key] = Pending{Key: key, PayableID: payableID, At: at}
	return nil
}

// Cancel removes any pending wake-up for the key; absent keys are a no-op.
func (m *MemoryAlarms) Cancel(key int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
	return nil
}

func (m *MemoryAlarms) ExactAllowed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permitted
}

// SetExactAllowed flips the permission state, for tests exercising the
// permission-denied path.
func (m *MemoryAlarms) SetExactAllowed(allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permitted = allowed
}

// Elapsed atomically removes and returns every wake-up due at or before now,
// soonest first. Removal models the one-shot nature of the facility: a
// delivered alarm is gone from the table.
func (m *MemoryAlarms) Elapsed(now time.Time) ([]Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []Pending
	for key, p := range m.pending {
		if !p.At.After(now) {
			due = append(due, p)
			delete(m.pending, key)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].At.Before(due[j].At) })
	return due, nil
}

// Snapshot returns the current table contents, for tests.
func (m *MemoryAlarms) Snapshot() []Pending {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Pending, 0, len(m.pending))
	for _, p := range m.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
