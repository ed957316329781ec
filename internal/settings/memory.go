package settings

import (
	"sync"

	"subtrack/internal/subtrack"
)

// MemorySettings is an in-memory implementation of the Settings interface,
// useful for testing. Safe for concurrent use.
type MemorySettings struct {
	typed

	mu     sync.RWMutex
	values map[string]string
}

var _ subtrack.Settings = (*MemorySettings)(nil)

// NewMemorySettings creates an empty in-memory settings store.
func NewMemorySettings() *MemorySettings {
	s := &MemorySettings{values: make(map[string]string)}
	s.typed.kv = s
	return s
}

func (s *MemorySettings) get(name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok, nil
}

func (s *MemorySettings) set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *MemorySettings) Close() error { return nil }
