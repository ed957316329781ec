package subtrack

import "time"

// AlarmFacility is the OS exact-alarm surface. The facility's table is the
// only source of truth for pending alarms: callers never cache "is scheduled"
// state, and Schedule replaces any pending alarm under the same key rather
// than adding a second one.
type AlarmFacility interface {
	// Schedule registers a one-shot wake-up for the key, replacing any
	// pending wake-up under the same key.
	Schedule(key int64, payableID string, at time.Time) error

	// Cancel removes any pending wake-up for the key. Cancelling a key with
	// no pending wake-up is a no-op.
	Cancel(key int64) error

	// ExactAllowed reports whether exact scheduling is currently permitted.
	// Callers must re-check on every scheduling attempt, never cache.
	ExactAllowed() bool
}

// NotificationFacility is the OS notification surface. Posting under a group
// key replaces any earlier notification with the same key, so duplicate
// deliveries of one alarm collapse into a single visible notification.
type NotificationFacility interface {
	// Post emits a user-visible notification under the group key.
	Post(groupKey string, title string, body string) error

	// PostAllowed reports whether posting notifications is currently
	// permitted. Re-checked on every attempt, never cached.
	PostAllowed() bool
}
