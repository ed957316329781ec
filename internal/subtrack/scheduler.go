package subtrack

import (
	"fmt"
	"hash/fnv"
	"time"

	"subtrack/internal/model"
)

// AlarmScheduler owns the contract with the OS alarm facility: it schedules,
// cancels, and re-arms exactly one wake-up per payable. The facility's table
// is authoritative — the scheduler holds no "is scheduled" state of its own.
//
// Operations on a given payable behave as if serialized per identifier.
// Concurrent callers (the periodic sweep and a just-fired alarm) may race,
// but Schedule replaces by key, so the last writer wins and at most one alarm
// exists for the payable either way.
type AlarmScheduler struct {
	alarms   AlarmFacility
	settings Settings
	clock    Clock
	logger   Logger
}

// NewAlarmScheduler creates a scheduler over the given facility.
func NewAlarmScheduler(alarms AlarmFacility, settings Settings, clock Clock, logger Logger) *AlarmScheduler {
	return &AlarmScheduler{
		alarms:   alarms,
		settings: settings,
		clock:    clock,
		logger:   logger,
	}
}

// AlarmKey derives the stable facility key for a payable identifier.
func AlarmKey(payableID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(payableID))
	return int64(h.Sum64())
}

// ScheduleAlarm registers a wake-up for the payable at the given instant,
// replacing any pending wake-up under the same key. The instant must be
// strictly in the future and the exact-alarm capability must be permitted at
// call time. On any outcome other than OutcomeScheduled the caller must not
// assume an alarm is pending.
func (s *AlarmScheduler) ScheduleAlarm(payableID string, at time.Time) (Outcome, error) {
	now := s.clock.Now()
	if !at.After(now) {
		s.logger.Debug("reminder instant not in the future", "payable", payableID, "at", at)
		return OutcomePast, nil
	}

	if !s.alarms.ExactAllowed() {
		s.logger.Warn("exact alarm permission required", "payable", payableID)
		return OutcomeNoPermission, nil
	}

	if err := s.alarms.Schedule(AlarmKey(payableID), payableID, at); err != nil {
		s.logger.Error("alarm registration rejected", "payable", payableID, "error", err)
		return OutcomeOSRejected, fmt.Errorf("registering alarm for %s: %w", payableID, err)
	}

	s.logger.Info("alarm scheduled", "payable", payableID, "at", at)
	return OutcomeScheduled, nil
}

// CancelAlarm removes any pending wake-up for the payable. Cancelling when
// none exists is a no-op, not an error.
func (s *AlarmScheduler) CancelAlarm(payableID string) error {
	if err := s.alarms.Cancel(AlarmKey(payableID)); err != nil {
		return fmt.Errorf("cancelling alarm for %s: %w", payableID, err)
	}
	s.logger.Debug("alarm cancelled", "payable", payableID)
	return nil
}

// RescheduleNextAlarm computes the next reminder instant for the payable and
// schedules it. A payable outside the enabled set is skipped without any
// facility call — that is a deliberate skip, distinct from a scheduling
// failure.
func (s *AlarmScheduler) RescheduleNextAlarm(p *model.Payable) (Outcome, error) {
	enabled, err := s.settings.IsPayableEnabled(p.ID)
	if err != nil {
		return OutcomeOSRejected, fmt.Errorf("reading enabled set: %w", err)
	}
	if !enabled {
		s.logger.Debug("payable not opted in, skipping", "payable", p.ID)
		return OutcomeSkipped, nil
	}

	days, err := s.settings.ReminderDays()
	if err != nil {
		return OutcomeOSRejected, fmt.Errorf("reading reminder offset: %w", err)
	}
	tod, err := s.settings.NotificationTime()
	if err != nil {
		return OutcomeOSRejected, fmt.Errorf("reading notification time: %w", err)
	}

	due := DueAfter(p.AnchorDate, p.Cycle, p.IntervalDays, s.clock.Now())
	return s.ScheduleAlarm(p.ID, ReminderInstant(due, days, tod))
}
