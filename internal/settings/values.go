package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"subtrack/internal/subtrack"
)

// Preference keys. The enabled-payable set is one key holding a
// newline-joined identifier list.
const (
	keyDefaultCurrency     = "default_currency"
	keyNotificationTime    = "notification_time"
	keyReminderDays        = "reminder_days"
	keyPushEnabled         = "push_enabled"
	keyLockScreenVisible   = "lock_screen_visible"
	keyPermissionRequested = "permission_requested"
	keyEnabledPayables     = "enabled_payables"
)

// Defaults returned for unset keys.
const (
	DefaultCurrency     = "USD"
	DefaultReminderDays = 2
)

// DefaultNotificationTime is 09:00 local time.
var DefaultNotificationTime = subtrack.TimeOfDay{Hour: 9, Minute: 0}

// kv is the raw string store the typed accessors sit on.
type kv interface {
	get(name string) (value string, ok bool, err error)
	set(name, value string) error
}

// typed implements the subtrack.Settings accessors over a kv store.
// Each accessor is a single key read or write; there is no multi-key
// transaction, and callers tolerate values changing between reads.
type typed struct {
	kv kv
}

func (t *typed) DefaultCurrency() (string, error) {
	v, ok, err := t.kv.get(keyDefaultCurrency)
	if err != nil || !ok {
		return DefaultCurrency, err
	}
	return v, nil
}

func (t *typed) SetDefaultCurrency(code string) error {
	return t.kv.set(keyDefaultCurrency, code)
}

func (t *typed) NotificationTime() (subtrack.TimeOfDay, error) {
	v, ok, err := t.kv.get(keyNotificationTime)
	if err != nil || !ok {
		return DefaultNotificationTime, err
	}
	tod, err := subtrack.ParseTimeOfDay(v)
	if err != nil {
		return DefaultNotificationTime, fmt.Errorf("stored notification time: %w", err)
	}
	return tod, nil
}

func (t *typed) SetNotificationTime(tod subtrack.TimeOfDay) error {
	return t.kv.set(keyNotificationTime, tod.String())
}

func (t *typed) ReminderDays() (int, error) {
	v, ok, err := t.kv.get(keyReminderDays)
	if err != nil || !ok {
		return DefaultReminderDays, err
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 0 {
		return DefaultReminderDays, fmt.Errorf("stored reminder offset %q is not a non-negative integer", v)
	}
	return days, nil
}

func (t *typed) SetReminderDays(days int) error {
	if days < 0 {
		return fmt.Errorf("reminder offset must be non-negative, got %d", days)
	}
	return t.kv.set(keyReminderDays, strconv.Itoa(days))
}

func (t *typed) PushEnabled() (bool, error) {
	return t.boolValue(keyPushEnabled, true)
}

func (t *typed) SetPushEnabled(enabled bool) error {
	return t.kv.set(keyPushEnabled, strconv.FormatBool(enabled))
}

func (t *typed) LockScreenVisible() (bool, error) {
	return t.boolValue(keyLockScreenVisible, false)
}

func (t *typed) SetLockScreenVisible(visible bool) error {
	return t.kv.set(keyLockScreenVisible, strconv.FormatBool(visible))
}

func (t *typed) PermissionRequested() (bool, error) {
	return t.boolValue(keyPermissionRequested, false)
}

func (t *typed) MarkPermissionRequested() error {
	return t.kv.set(keyPermissionRequested, "true")
}

func (t *typed) IsPayableEnabled(id string) (bool, error) {
	ids, err := t.EnabledPayables()
	if err != nil {
		return false, err
	}
	for _, v := range ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

func (t *typed) EnablePayable(id string) error {
	ids, err := t.EnabledPayables()
	if err != nil {
		return err
	}
	for _, v := range ids {
		if v == id {
			return nil
		}
	}
	ids = append(ids, id)
	sort.Strings(ids)
	return t.kv.set(keyEnabledPayables, strings.Join(ids, "\n"))
}

func (t *typed) DisablePayable(id string) error {
	ids, err := t.EnabledPayables()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return t.kv.set(keyEnabledPayables, strings.Join(kept, "\n"))
}

func (t *typed) EnabledPayables() ([]string, error) {
	v, ok, err := t.kv.get(keyEnabledPayables)
	if err != nil || !ok || v == "" {
		return nil, err
	}
	return strings.Split(v, "\n"), nil
}

func (t *typed) boolValue(name string, fallback bool) (bool, error) {
	v, ok, err := t.kv.get(name)
	if err != nil || !ok {
		return fallback, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("stored %s flag %q is not a boolean", name, v)
	}
	return b, nil
}
