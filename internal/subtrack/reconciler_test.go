package subtrack_test

import (
	"errors"
	"testing"
	"time"

	"subtrack/internal/model"
	"subtrack/internal/subtrack"
	"subtrack/internal/testutil"

	"github.com/shopspring/decimal"
)

func TestImport(t *testing.T) {
	t.Parallel()

	t.Run("absent records are inserted directly", func(t *testing.T) {
		t.Parallel()
		st := testutil.NewTestStore()
		r := subtrack.NewReconciler(st, subtrack.NewNopLogger())

		run, err := r.Import(&subtrack.Snapshot{
			Payables:   []*model.Payable{testPayable("p1")},
			Categories: []*model.Category{{ID: "c1", Name: "Media"}},
		})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if run.Inserted() != 2 {
			t.Errorf("inserted = %d, want 2", run.Inserted())
		}
		if got := run.Conflicts(); len(got) != 0 {
			t.Errorf("conflicts = %d, want 0", len(got))
		}
		if p, err := st.GetPayable("p1"); err != nil || p == nil {
			t.Errorf("GetPayable(p1) = %v, %v, want stored record", p, err)
		}
		if c, err := st.GetCategory("c1"); err != nil || c == nil {
			t.Errorf("GetCategory(c1) = %v, %v, want stored record", c, err)
		}
	})

	t.Run("identifier collision is queued, not applied", func(t *testing.T) {
		t.Parallel()
		st := testutil.NewTestStore()
		existing := testPayable("p1")
		if err := st.InsertPayable(existing); err != nil {
			t.Fatalf("InsertPayable: %v", err)
		}

		incoming := testPayable("p1")
		incoming.Title = "Streaming (restored)"
		incoming.Amount = decimal.RequireFromString("14.99")

		run, err := subtrack.NewReconciler(st, subtrack.NewNopLogger()).
			Import(&subtrack.Snapshot{Payables: []*model.Payable{incoming}})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}

		conflicts := run.Conflicts()
		if len(conflicts) != 1 {
			t.Fatalf("conflicts = %d, want 1", len(conflicts))
		}
		if conflicts[0].Kind != subtrack.KindPayable || conflicts[0].ID() != "p1" {
			t.Errorf("conflict = %+v, want payable p1", conflicts[0])
		}
		if run.Inserted() != 0 {
			t.Errorf("inserted = %d, want 0", run.Inserted())
		}

		p, _ := st.GetPayable("p1")
		if p.Title != existing.Title {
			t.Errorf("stored title = %q, changed before adjudication", p.Title)
		}
	})

	t.Run("duplicate identifier within the snapshot yields one conflict", func(t *testing.T) {
		t.Parallel()
		st := testutil.NewTestStore()
		if err := st.InsertPayable(testPayable("p1")); err != nil {
			t.Fatalf("InsertPayable: %v", err)
		}

		run, err := subtrack.NewReconciler(st, subtrack.NewNopLogger()).
			Import(&subtrack.Snapshot{Payables: []*model.Payable{testPayable("p1"), testPayable("p1")}})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if got := run.Conflicts(); len(got) != 1 {
			t.Errorf("conflicts = %d, want 1", len(got))
		}
	})

	t.Run("mixed snapshot inserts the non-colliding records", func(t *testing.T) {
		t.Parallel()
		st := testutil.NewTestStore()
		if err := st.InsertPayable(testPayable("p1")); err != nil {
			t.Fatalf("InsertPayable: %v", err)
		}

		run, err := subtrack.NewReconciler(st, subtrack.NewNopLogger()).
			Import(&subtrack.Snapshot{
				Payables:       []*model.Payable{testPayable("p1"), testPayable("p2")},
				PaymentMethods: []*model.PaymentMethod{{ID: "m1", Name: "Visa", Last4: "4242"}},
			})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if run.Inserted() != 2 {
			t.Errorf("inserted = %d, want 2", run.Inserted())
		}
		if got := run.Conflicts(); len(got) != 1 {
			t.Errorf("conflicts = %d, want 1", len(got))
		}
		if p, _ := st.GetPayable("p2"); p == nil {
			t.Error("p2 was not inserted")
		}
		if m, _ := st.GetPaymentMethod("m1"); m == nil {
			t.Error("m1 was not inserted")
		}
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	conflictRun := func(t *testing.T) (*subtrack.ImportRun, subtrack.ConflictEntry, *model.Payable, func() *model.Payable) {
		t.Helper()
		st := testutil.NewTestStore()
		existing := testPayable("p1")
		if err := st.InsertPayable(existing); err != nil {
			t.Fatalf("InsertPayable: %v", err)
		}

		incoming := testPayable("p1")
		incoming.Title = "Streaming (restored)"
		incoming.AnchorDate = date(2024, time.June, 1)

		run, err := subtrack.NewReconciler(st, subtrack.NewNopLogger()).
			Import(&subtrack.Snapshot{Payables: []*model.Payable{incoming}})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		conflicts := run.Conflicts()
		if len(conflicts) != 1 {
			t.Fatalf("conflicts = %d, want 1", len(conflicts))
		}
		stored := func() *model.Payable {
			p, err := st.GetPayable("p1")
			if err != nil || p == nil {
				t.Fatalf("GetPayable: %v, %v", p, err)
			}
			return p
		}
		return run, conflicts[0], incoming, stored
	}

	t.Run("overwrite replaces the stored record", func(t *testing.T) {
		t.Parallel()
		run, c, incoming, stored := conflictRun(t)

		if err := run.Resolve(c, subtrack.DecisionOverwrite); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		p := stored()
		if p.Title != incoming.Title || !p.AnchorDate.Equal(incoming.AnchorDate) {
			t.Errorf("stored = %+v, want the incoming record", p)
		}
		if run.Updated() != 1 {
			t.Errorf("updated = %d, want 1", run.Updated())
		}
		if run.Unresolved() != 0 {
			t.Errorf("unresolved = %d, want 0", run.Unresolved())
		}
	})

	t.Run("skip leaves the stored record untouched", func(t *testing.T) {
		t.Parallel()
		run, c, _, stored := conflictRun(t)

		if err := run.Resolve(c, subtrack.DecisionSkip); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if p := stored(); p.Title != "Streaming" {
			t.Errorf("stored title = %q, want the original", p.Title)
		}
		if run.Updated() != 0 {
			t.Errorf("updated = %d, want 0", run.Updated())
		}
	})

	t.Run("second adjudication is rejected", func(t *testing.T) {
		t.Parallel()
		run, c, _, stored := conflictRun(t)

		if err := run.Resolve(c, subtrack.DecisionSkip); err != nil {
			t.Fatalf("first Resolve: %v", err)
		}
		err := run.Resolve(c, subtrack.DecisionOverwrite)
		if !errors.Is(err, subtrack.ErrResolved) {
			t.Fatalf("second Resolve = %v, want ErrResolved", err)
		}
		if p := stored(); p.Title != "Streaming" {
			t.Errorf("stored title = %q, second decision took effect", p.Title)
		}
	})

	t.Run("unresolved counts pending conflicts", func(t *testing.T) {
		t.Parallel()
		run, _, _, _ := conflictRun(t)
		if run.Unresolved() != 1 {
			t.Errorf("unresolved = %d, want 1", run.Unresolved())
		}
	})
}
