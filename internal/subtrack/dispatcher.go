package subtrack

import (
	"fmt"
	"time"

	"subtrack/internal/model"
)

// NotificationDispatcher handles "alarm elapsed" events delivered by the
// alarm facility. Handling is synchronous: post the reminder, advance the
// payable's billing anchor past the consumed cycle, and re-arm the next
// cycle's alarm before returning, so one-time wake-ups chain into an
// unbroken sequence of reminders.
type NotificationDispatcher struct {
	store     RecordStore
	scheduler *AlarmScheduler
	notifier  NotificationFacility
	settings  Settings
	clock     Clock
	logger    Logger
}

// NewNotificationDispatcher creates a dispatcher.
func NewNotificationDispatcher(store RecordStore, scheduler *AlarmScheduler, notifier NotificationFacility, settings Settings, clock Clock, logger Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		store:     store,
		scheduler: scheduler,
		notifier:  notifier,
		settings:  settings,
		clock:     clock,
		logger:    logger,
	}
}

// HandleElapsed processes an elapsed alarm for the payable. The reschedule
// step runs unconditionally, even when posting the notification failed, so a
// single bad delivery never breaks the recurrence chain. Duplicate deliveries
// of the same alarm are absorbed: once the anchor has advanced, a repeat
// delivery finds the current cycle's reminder still in the future and only
// re-arms.
func (d *NotificationDispatcher) HandleElapsed(payableID string) (Outcome, error) {
	p, err := d.store.GetPayable(payableID)
	if err != nil {
		return OutcomeOSRejected, fmt.Errorf("loading payable %s: %w", payableID, err)
	}
	if p == nil {
		// Deleted since the alarm was armed; the one-shot wake-up is already
		// consumed, nothing to cancel.
		d.logger.Warn("alarm elapsed for unknown payable", "payable", payableID)
		return OutcomeSkipped, nil
	}

	now := d.clock.Now()
	days, err := d.settings.ReminderDays()
	if err != nil {
		return OutcomeOSRejected, fmt.Errorf("reading reminder offset: %w", err)
	}
	tod, err := d.settings.NotificationTime()
	if err != nil {
		return OutcomeOSRejected, fmt.Errorf("reading notification time: %w", err)
	}

	due := DueAfter(p.AnchorDate, p.Cycle, p.IntervalDays, now)

	if !ReminderInstant(due, days, tod).After(now) {
		d.post(p, due)

		// Consume the cycle: the anchor moves one cycle past the due date we
		// just reminded about, monotonically forward.
		p.AnchorDate = NextDueDate(due, p.Cycle, p.IntervalDays)
		if err := d.store.UpdatePayable(p); err != nil {
			return OutcomeOSRejected, fmt.Errorf("advancing billing anchor for %s: %w", payableID, err)
		}
	} else {
		d.logger.Debug("duplicate alarm delivery, reminder still pending", "payable", payableID, "due", due)
	}

	return d.scheduler.RescheduleNextAlarm(p)
}

// post emits the user-visible reminder. Failures are reported and swallowed;
// the caller re-arms regardless.
func (d *NotificationDispatcher) post(p *model.Payable, due time.Time) {
	if !d.notifier.PostAllowed() {
		d.logger.Error("notification permission required", "payable", p.ID)
		return
	}

	if enabled, err := d.settings.PushEnabled(); err != nil {
		d.logger.Error("reading push preference", "payable", p.ID, "error", err)
		return
	} else if !enabled {
		d.logger.Debug("push notifications disabled, not posting", "payable", p.ID)
		return
	}

	body := fmt.Sprintf("%s %s due %s", p.Amount.StringFixed(2), p.Currency, due.Format("2006-01-02"))
	if err := d.notifier.Post(p.ID, p.Title, body); err != nil {
		d.logger.Error("posting notification", "payable", p.ID, "error", err)
	}
}
