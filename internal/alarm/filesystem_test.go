package alarm_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"subtrack/internal/alarm"
)

func newFileAlarms(t *testing.T) (*alarm.FileAlarms, string) {
	t.Helper()
	dir := t.TempDir()
	f, err := alarm.NewFileAlarms(dir)
	if err != nil {
		t.Fatalf("NewFileAlarms: %v", err)
	}
	return f, dir
}

func TestFileAlarmsSchedule(t *testing.T) {
	t.Parallel()

	t.Run("replace by key", func(t *testing.T) {
		t.Parallel()
		f, _ := newFileAlarms(t)
		first := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
		second := first.AddDate(0, 1, 0)

		if err := f.Schedule(42, "p1", first); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if err := f.Schedule(42, "p1", second); err != nil {
			t.Fatalf("Schedule: %v", err)
		}

		pending, err := f.Pending()
		if err != nil {
			t.Fatalf("Pending: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("pending = %d, want 1", len(pending))
		}
		if !pending[0].At.Equal(second) {
			t.Errorf("pending at %v, want %v", pending[0].At, second)
		}
	})

	t.Run("distinct keys coexist", func(t *testing.T) {
		t.Parallel()
		f, _ := newFileAlarms(t)
		at := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

		if err := f.Schedule(1, "p1", at); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if err := f.Schedule(2, "p2", at.Add(time.Hour)); err != nil {
			t.Fatalf("Schedule: %v", err)
		}

		pending, err := f.Pending()
		if err != nil {
			t.Fatalf("Pending: %v", err)
		}
		if len(pending) != 2 {
			t.Errorf("pending = %d, want 2", len(pending))
		}
	})

	t.Run("table survives reopening", func(t *testing.T) {
		t.Parallel()
		f, dir := newFileAlarms(t)
		at := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
		if err := f.Schedule(42, "p1", at); err != nil {
			t.Fatalf("Schedule: %v", err)
		}

		reopened, err := alarm.NewFileAlarms(dir)
		if err != nil {
			t.Fatalf("reopening: %v", err)
		}
		pending, err := reopened.Pending()
		if err != nil {
			t.Fatalf("Pending: %v", err)
		}
		if len(pending) != 1 || pending[0].PayableID != "p1" || !pending[0].At.Equal(at) {
			t.Errorf("pending = %+v, want p1 at %v", pending, at)
		}
	})
}

func TestFileAlarmsCancel(t *testing.T) {
	t.Parallel()

	f, _ := newFileAlarms(t)
	at := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	if err := f.Schedule(42, "p1", at); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if err := f.Cancel(42); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if pending, _ := f.Pending(); len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}

	// Absent key is a no-op, not an error.
	if err := f.Cancel(7); err != nil {
		t.Errorf("Cancel(absent): %v", err)
	}
}

func TestFileAlarmsElapsed(t *testing.T) {
	t.Parallel()

	f, _ := newFileAlarms(t)
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	if err := f.Schedule(1, "early", now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := f.Schedule(2, "exact", now); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := f.Schedule(3, "later", now.Add(time.Hour)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	due, err := f.Elapsed(now)
	if err != nil {
		t.Fatalf("Elapsed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d, want 2", len(due))
	}
	if due[0].PayableID != "early" || due[1].PayableID != "exact" {
		t.Errorf("due order = %s, %s, want early then exact", due[0].PayableID, due[1].PayableID)
	}

	// Consumed entries are gone from the durable table.
	pending, err := f.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0].PayableID != "later" {
		t.Errorf("pending = %+v, want only the later alarm", pending)
	}

	again, err := f.Elapsed(now)
	if err != nil {
		t.Fatalf("second Elapsed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second Elapsed = %d entries, want 0", len(again))
	}
}

func TestFileAlarmsExactAllowed(t *testing.T) {
	t.Parallel()

	f, dir := newFileAlarms(t)
	if !f.ExactAllowed() {
		t.Fatal("ExactAllowed = false on a fresh table")
	}

	marker := filepath.Join(dir, "exact_denied")
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		t.Fatalf("writing marker: %v", err)
	}
	if f.ExactAllowed() {
		t.Error("ExactAllowed = true with denial marker present")
	}

	// Permission can come back without recreating the facility.
	if err := os.Remove(marker); err != nil {
		t.Fatalf("removing marker: %v", err)
	}
	if !f.ExactAllowed() {
		t.Error("ExactAllowed = false after marker removed")
	}
}
