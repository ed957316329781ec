package subtrack

import (
	"fmt"
	"time"
)

// TimeOfDay is a civil wall-clock time with minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var tod TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &tod.Hour, &tod.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day out of range: %q", s)
	}
	return tod, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant at this time of day on the given date, in the
// date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// Settings is the durable preference store read by the scheduler and
// dispatcher. Implementations return documented defaults for unset keys.
// There is no transactional multi-key read: two sequential reads within one
// reschedule may observe a preference change in between.
type Settings interface {
	DefaultCurrency() (string, error) // default "USD"
	SetDefaultCurrency(code string) error

	NotificationTime() (TimeOfDay, error) // default 09:00
	SetNotificationTime(tod TimeOfDay) error

	ReminderDays() (int, error) // default 2
	SetReminderDays(days int) error

	PushEnabled() (bool, error) // default true
	SetPushEnabled(enabled bool) error

	LockScreenVisible() (bool, error) // default false
	SetLockScreenVisible(visible bool) error

	// PermissionRequested reports whether the one-time first-run permission
	// request has already happened.
	PermissionRequested() (bool, error)
	MarkPermissionRequested() error

	// Enabled payable set: a payable outside this set must never have a
	// live alarm.
	IsPayableEnabled(id string) (bool, error)
	EnablePayable(id string) error
	DisablePayable(id string) error
	EnabledPayables() ([]string, error)

	Close() error
}
