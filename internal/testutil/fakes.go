package testutil

import (
	"subtrack/internal/alarm"
	"subtrack/internal/notify"
	"subtrack/internal/settings"
	"subtrack/internal/store"
)

// NewTestStore creates an in-memory record store for testing.
func NewTestStore() *store.MemoryStore {
	return store.NewMemoryStore()
}

// NewTestSettings creates an in-memory settings store for testing.
func NewTestSettings() *settings.MemorySettings {
	return settings.NewMemorySettings()
}

// NewTestAlarms creates an in-memory alarm table for testing.
func NewTestAlarms() *alarm.MemoryAlarms {
	return alarm.NewMemoryAlarms()
}

// NewTestNotifier creates an in-memory notifier for testing.
func NewTestNotifier() *notify.MemoryNotifier {
	return notify.NewMemoryNotifier()
}
