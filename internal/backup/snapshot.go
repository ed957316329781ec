package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"subtrack/internal/model"
	"subtrack/internal/subtrack"
)

// ErrMalformedSnapshot marks an import document that cannot be parsed. The
// whole import aborts before any record is touched; callers surface a single
// terse failure message instead of the decode detail.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// document is the interchange shape: three named collections of flat records
// keyed by the live store's identifier scheme.
type document struct {
	Payables       []*model.Payable       `json:"payables"`
	Categories     []*model.Category      `json:"categories"`
	PaymentMethods []*model.PaymentMethod `json:"payment_methods"`
}

// DecodeSnapshot parses a snapshot document from r. Parsing completes before
// the reconciler sees a single record, so a failure here guarantees zero
// writes.
func DecodeSnapshot(r io.Reader) (*subtrack.Snapshot, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	for i, p := range doc.Payables {
		if p == nil || p.ID == "" {
			return nil, fmt.Errorf("%w: payable %d has no identifier", ErrMalformedSnapshot, i)
		}
	}
	for i, c := range doc.Categories {
		if c == nil || c.ID == "" {
			return nil, fmt.Errorf("%w: category %d has no identifier", ErrMalformedSnapshot, i)
		}
	}
	for i, m := range doc.PaymentMethods {
		if m == nil || m.ID == "" {
			return nil, fmt.Errorf("%w: payment method %d has no identifier", ErrMalformedSnapshot, i)
		}
	}

	return &subtrack.Snapshot{
		Payables:       doc.Payables,
		Categories:     doc.Categories,
		PaymentMethods: doc.PaymentMethods,
	}, nil
}

// EncodeSnapshot writes the snapshot document to w, the inverse of
// DecodeSnapshot.
func EncodeSnapshot(w io.Writer, snap *subtrack.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(document{
		Payables:       snap.Payables,
		Categories:     snap.Categories,
		PaymentMethods: snap.PaymentMethods,
	})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}
