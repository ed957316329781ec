package subtrack

import (
	"time"

	"subtrack/internal/model"
)

// NextDueDate returns the due date one cycle after anchor. It is pure and
// total: every cycle value has a defined advancement rule, and the result is
// always strictly after anchor. intervalDays is only consulted for
// model.CycleCustom; non-positive intervals advance by a single day so the
// strictly-after guarantee holds.
func NextDueDate(anchor time.Time, cycle model.BillingCycle, intervalDays int) time.Time {
	return addCycles(anchor, cycle, intervalDays, 1)
}

// DueAfter returns the smallest due date strictly after now, advancing from
// anchor by whole cycles. An anchor already in the future is itself the
// pending due date. Cycle counts are computed from the original anchor, not
// by repeated single-step advancement, so a month-end anchor keeps landing on
// month ends instead of decaying to the clamped day.
func DueAfter(anchor time.Time, cycle model.BillingCycle, intervalDays int, now time.Time) time.Time {
	if anchor.After(now) {
		return anchor
	}
	for n := 1; ; n++ {
		due := addCycles(anchor, cycle, intervalDays, n)
		if due.After(now) {
			return due
		}
	}
}

// ReminderInstant derives the absolute alarm instant for a due date: the
// configured time of day, reminderDays calendar days before the due date, in
// the due date's location. The result may be in the past; deciding whether
// that is schedulable belongs to the caller.
func ReminderInstant(due time.Time, reminderDays int, tod TimeOfDay) time.Time {
	return tod.On(due.AddDate(0, 0, -reminderDays))
}

// addCycles advances anchor by n cycles.
func addCycles(anchor time.Time, cycle model.BillingCycle, intervalDays int, n int) time.Time {
	switch cycle {
	case model.CycleWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case model.CycleYearly:
		return addMonthsClamped(anchor, 12*n)
	case model.CycleCustom:
		if intervalDays < 1 {
			intervalDays = 1
		}
		return anchor.AddDate(0, 0, intervalDays*n)
	default: // model.CycleMonthly and any unknown value
		return addMonthsClamped(anchor, n)
	}
}

// addMonthsClamped adds months without the stdlib's overflow normalization:
// Jan 31 + 1 month is Feb 28 (29 in leap years), not Mar 2 or 3.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
