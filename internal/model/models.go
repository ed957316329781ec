package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle describes how a payable's due date advances.
// The set is closed; unknown values fall back to monthly advancement.
type BillingCycle string

const (
	CycleWeekly  BillingCycle = "weekly"
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
	CycleCustom  BillingCycle = "custom" // every IntervalDays days
)

// Payable is a recurring financial obligation.
// AnchorDate marks the start of the most recently completed or currently
// pending cycle; it only moves forward as cycles are consumed.
type Payable struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	AnchorDate      time.Time       `json:"anchor_date"` // day resolution
	Cycle           BillingCycle    `json:"cycle"`
	IntervalDays    int             `json:"interval_days,omitempty"` // only for CycleCustom
	CategoryID      string          `json:"category_id,omitempty"`
	PaymentMethodID string          `json:"payment_method_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (p *Payable) RecordID() string { return p.ID }

// Category labels payables for reporting.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Category) RecordID() string { return c.ID }

// PaymentMethod is the instrument a payable is charged against.
type PaymentMethod struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Last4     string    `json:"last4,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *PaymentMethod) RecordID() string { return m.ID }
