package subtrack

import "subtrack/internal/model"

// Record is any stored record addressable by its identifier.
type Record interface {
	RecordID() string
}

// RecordStore provides access to the live record tables.
// Get methods return (nil, nil) when no record exists for the identifier —
// absence is not an error, it is what the reconciler branches on.
type RecordStore interface {
	// Payable operations

	GetPayable(id string) (*model.Payable, error)
	ListPayables() ([]*model.Payable, error)
	InsertPayable(p *model.Payable) error
	UpdatePayable(p *model.Payable) error

	// Category operations

	GetCategory(id string) (*model.Category, error)
	ListCategories() ([]*model.Category, error)
	InsertCategory(c *model.Category) error
	UpdateCategory(c *model.Category) error

	// PaymentMethod operations

	GetPaymentMethod(id string) (*model.PaymentMethod, error)
	ListPaymentMethods() ([]*model.PaymentMethod, error)
	InsertPaymentMethod(m *model.PaymentMethod) error
	UpdatePaymentMethod(m *model.PaymentMethod) error

	// Close closes the underlying connection.
	Close() error
}
