package subtrack_test

import (
	"testing"
	"time"

	"subtrack/internal/alarm"
	"subtrack/internal/model"
	"subtrack/internal/settings"
	"subtrack/internal/subtrack"
	"subtrack/internal/testutil"

	"github.com/shopspring/decimal"
)

type schedulerFixture struct {
	scheduler *subtrack.AlarmScheduler
	alarms    *alarm.MemoryAlarms
	settings  *settings.MemorySettings
	clock     *testutil.StubClock
}

func newSchedulerFixture() *schedulerFixture {
	f := &schedulerFixture{
		alarms:   testutil.NewTestAlarms(),
		settings: testutil.NewTestSettings(),
		clock:    testutil.FixedClock(),
	}
	f.scheduler = subtrack.NewAlarmScheduler(f.alarms, f.settings, f.clock, subtrack.NewNopLogger())
	return f
}

func testPayable(id string) *model.Payable {
	return &model.Payable{
		ID:         id,
		Title:      "Streaming",
		Amount:     decimal.RequireFromString("9.99"),
		Currency:   "USD",
		AnchorDate: date(2024, time.January, 31),
		Cycle:      model.CycleMonthly,
	}
}

func TestScheduleAlarm(t *testing.T) {
	t.Parallel()

	t.Run("schedules a future instant", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		at := f.clock.Now().Add(48 * time.Hour)

		outcome, err := f.scheduler.ScheduleAlarm("p1", at)
		if err != nil {
			t.Fatalf("ScheduleAlarm: %v", err)
		}
		if outcome != subtrack.OutcomeScheduled {
			t.Fatalf("outcome = %v, want %v", outcome, subtrack.OutcomeScheduled)
		}
		pending := f.alarms.Snapshot()
		if len(pending) != 1 {
			t.Fatalf("pending alarms = %d, want 1", len(pending))
		}
		if pending[0].PayableID != "p1" || !pending[0].At.Equal(at) {
			t.Errorf("pending = %+v, want p1 at %v", pending[0], at)
		}
	})

	t.Run("second schedule replaces the first", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		first := f.clock.Now().Add(24 * time.Hour)
		second := f.clock.Now().Add(72 * time.Hour)

		if _, err := f.scheduler.ScheduleAlarm("p1", first); err != nil {
			t.Fatalf("first ScheduleAlarm: %v", err)
		}
		if _, err := f.scheduler.ScheduleAlarm("p1", second); err != nil {
			t.Fatalf("second ScheduleAlarm: %v", err)
		}

		pending := f.alarms.Snapshot()
		if len(pending) != 1 {
			t.Fatalf("pending alarms = %d, want 1", len(pending))
		}
		if !pending[0].At.Equal(second) {
			t.Errorf("pending at %v, want the replacing instant %v", pending[0].At, second)
		}
	})

	t.Run("past instant is reported without scheduling", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()

		outcome, err := f.scheduler.ScheduleAlarm("p1", f.clock.Now().Add(-time.Minute))
		if err != nil {
			t.Fatalf("ScheduleAlarm: %v", err)
		}
		if outcome != subtrack.OutcomePast {
			t.Errorf("outcome = %v, want %v", outcome, subtrack.OutcomePast)
		}
		if n := len(f.alarms.Snapshot()); n != 0 {
			t.Errorf("pending alarms = %d, want 0", n)
		}
	})

	t.Run("now itself is not in the future", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()

		outcome, err := f.scheduler.ScheduleAlarm("p1", f.clock.Now())
		if err != nil {
			t.Fatalf("ScheduleAlarm: %v", err)
		}
		if outcome != subtrack.OutcomePast {
			t.Errorf("outcome = %v, want %v", outcome, subtrack.OutcomePast)
		}
	})

	t.Run("denied exact-alarm permission", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		f.alarms.SetExactAllowed(false)

		outcome, err := f.scheduler.ScheduleAlarm("p1", f.clock.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("ScheduleAlarm: %v", err)
		}
		if outcome != subtrack.OutcomeNoPermission {
			t.Errorf("outcome = %v, want %v", outcome, subtrack.OutcomeNoPermission)
		}
		if n := len(f.alarms.Snapshot()); n != 0 {
			t.Errorf("pending alarms = %d, want 0", n)
		}
	})

	t.Run("permission re-granted without restart", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		f.alarms.SetExactAllowed(false)
		at := f.clock.Now().Add(time.Hour)

		if outcome, _ := f.scheduler.ScheduleAlarm("p1", at); outcome != subtrack.OutcomeNoPermission {
			t.Fatalf("outcome = %v, want %v", outcome, subtrack.OutcomeNoPermission)
		}

		f.alarms.SetExactAllowed(true)
		if outcome, _ := f.scheduler.ScheduleAlarm("p1", at); outcome != subtrack.OutcomeScheduled {
			t.Errorf("outcome after re-grant = %v, want %v", outcome, subtrack.OutcomeScheduled)
		}
	})
}

func TestCancelAlarm(t *testing.T) {
	t.Parallel()

	t.Run("removes the pending alarm", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		if _, err := f.scheduler.ScheduleAlarm("p1", f.clock.Now().Add(time.Hour)); err != nil {
			t.Fatalf("ScheduleAlarm: %v", err)
		}

		if err := f.scheduler.CancelAlarm("p1"); err != nil {
			t.Fatalf("CancelAlarm: %v", err)
		}
		if n := len(f.alarms.Snapshot()); n != 0 {
			t.Errorf("pending alarms = %d, want 0", n)
		}
	})

	t.Run("cancelling an absent alarm is a no-op", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		if err := f.scheduler.CancelAlarm("never-scheduled"); err != nil {
			t.Errorf("CancelAlarm: %v", err)
		}
	})
}

func TestRescheduleNextAlarm(t *testing.T) {
	t.Parallel()

	t.Run("arms the next reminder for an enabled payable", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		p := testPayable("p1")
		if err := f.settings.EnablePayable(p.ID); err != nil {
			t.Fatalf("EnablePayable: %v", err)
		}

		outcome, err := f.scheduler.RescheduleNextAlarm(p)
		if err != nil {
			t.Fatalf("RescheduleNextAlarm: %v", err)
		}
		if outcome != subtrack.OutcomeScheduled {
			t.Fatalf("outcome = %v, want %v", outcome, subtrack.OutcomeScheduled)
		}

		// Clock is 2024-01-15, anchor 2024-01-31: the anchor itself is the
		// pending due date, reminded 2 days earlier at 09:00.
		want := time.Date(2024, time.January, 29, 9, 0, 0, 0, time.UTC)
		pending := f.alarms.Snapshot()
		if len(pending) != 1 {
			t.Fatalf("pending alarms = %d, want 1", len(pending))
		}
		if !pending[0].At.Equal(want) {
			t.Errorf("alarm at %v, want %v", pending[0].At, want)
		}
	})

	t.Run("skips a payable outside the enabled set", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		f.alarms.SetExactAllowed(false) // would surface as NoPermission if touched

		outcome, err := f.scheduler.RescheduleNextAlarm(testPayable("p1"))
		if err != nil {
			t.Fatalf("RescheduleNextAlarm: %v", err)
		}
		if outcome != subtrack.OutcomeSkipped {
			t.Errorf("outcome = %v, want %v", outcome, subtrack.OutcomeSkipped)
		}
		if n := len(f.alarms.Snapshot()); n != 0 {
			t.Errorf("pending alarms = %d, want 0", n)
		}
	})

	t.Run("honors a changed reminder offset", func(t *testing.T) {
		t.Parallel()
		f := newSchedulerFixture()
		p := testPayable("p1")
		if err := f.settings.EnablePayable(p.ID); err != nil {
			t.Fatalf("EnablePayable: %v", err)
		}
		if err := f.settings.SetReminderDays(5); err != nil {
			t.Fatalf("SetReminderDays: %v", err)
		}
		if err := f.settings.SetNotificationTime(subtrack.TimeOfDay{Hour: 20, Minute: 30}); err != nil {
			t.Fatalf("SetNotificationTime: %v", err)
		}

		if _, err := f.scheduler.RescheduleNextAlarm(p); err != nil {
			t.Fatalf("RescheduleNextAlarm: %v", err)
		}

		want := time.Date(2024, time.January, 26, 20, 30, 0, 0, time.UTC)
		pending := f.alarms.Snapshot()
		if len(pending) != 1 || !pending[0].At.Equal(want) {
			t.Errorf("pending = %+v, want single alarm at %v", pending, want)
		}
	})
}

func TestAlarmKey(t *testing.T) {
	t.Parallel()

	if subtrack.AlarmKey("p1") != subtrack.AlarmKey("p1") {
		t.Error("AlarmKey is not stable for the same identifier")
	}
	if subtrack.AlarmKey("p1") == subtrack.AlarmKey("p2") {
		t.Error("AlarmKey collides for distinct identifiers")
	}
}
