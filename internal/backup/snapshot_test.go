package backup_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"subtrack/internal/backup"
	"subtrack/internal/model"
	"subtrack/internal/subtrack"

	"github.com/shopspring/decimal"
)

func TestDecodeSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		in := `{
			"payables": [
				{"id": "p1", "title": "Rent", "amount": "1450", "currency": "EUR",
				 "anchor_date": "2024-03-01T00:00:00Z", "cycle": "monthly"}
			],
			"categories": [{"id": "c1", "name": "Housing"}],
			"payment_methods": [{"id": "m1", "name": "Checking"}]
		}`

		snap, err := backup.DecodeSnapshot(strings.NewReader(in))
		if err != nil {
			t.Fatalf("DecodeSnapshot: %v", err)
		}
		if len(snap.Payables) != 1 || len(snap.Categories) != 1 || len(snap.PaymentMethods) != 1 {
			t.Fatalf("snapshot sizes = %d/%d/%d, want 1/1/1",
				len(snap.Payables), len(snap.Categories), len(snap.PaymentMethods))
		}

		p := snap.Payables[0]
		if p.Title != "Rent" || p.Cycle != model.CycleMonthly {
			t.Errorf("payable = %+v", p)
		}
		if !p.Amount.Equal(decimal.NewFromInt(1450)) {
			t.Errorf("amount = %s, want 1450", p.Amount)
		}
		if want := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC); !p.AnchorDate.Equal(want) {
			t.Errorf("anchor = %v, want %v", p.AnchorDate, want)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		_, err := backup.DecodeSnapshot(strings.NewReader(`{"payables": [`))
		if !errors.Is(err, backup.ErrMalformedSnapshot) {
			t.Errorf("err = %v, want ErrMalformedSnapshot", err)
		}
	})

	t.Run("record without identifier", func(t *testing.T) {
		t.Parallel()
		_, err := backup.DecodeSnapshot(strings.NewReader(`{"categories": [{"name": "Housing"}]}`))
		if !errors.Is(err, backup.ErrMalformedSnapshot) {
			t.Errorf("err = %v, want ErrMalformedSnapshot", err)
		}
	})

	t.Run("empty collections", func(t *testing.T) {
		t.Parallel()
		snap, err := backup.DecodeSnapshot(strings.NewReader(`{}`))
		if err != nil {
			t.Fatalf("DecodeSnapshot: %v", err)
		}
		if len(snap.Payables) != 0 {
			t.Errorf("payables = %d, want 0", len(snap.Payables))
		}
	})
}

func TestEncodeSnapshotRoundtrip(t *testing.T) {
	t.Parallel()

	snap := &subtrack.Snapshot{
		Payables: []*model.Payable{{
			ID:         "p1",
			Title:      "Gym",
			Amount:     decimal.RequireFromString("29.90"),
			Currency:   "USD",
			AnchorDate: time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
			Cycle:      model.CycleWeekly,
		}},
		Categories: []*model.Category{{ID: "c1", Name: "Health"}},
	}

	var buf bytes.Buffer
	if err := backup.EncodeSnapshot(&buf, snap); err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	got, err := backup.DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if len(got.Payables) != 1 || got.Payables[0].ID != "p1" {
		t.Fatalf("payables = %+v", got.Payables)
	}
	p := got.Payables[0]
	if !p.Amount.Equal(snap.Payables[0].Amount) || p.Cycle != model.CycleWeekly {
		t.Errorf("payable = %+v, want the encoded one", p)
	}
	if len(got.Categories) != 1 || got.Categories[0].Name != "Health" {
		t.Errorf("categories = %+v", got.Categories)
	}
}
