package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"subtrack/internal/model"
	"subtrack/internal/store/migrations"
	"subtrack/internal/subtrack"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the RecordStore interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ subtrack.RecordStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the record database at path and brings
// its schema up to date. path can be ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating record database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// this store relies on. Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Foreign keys default to OFF in SQLite for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

// Payable operations

func (s *SQLiteStore) GetPayable(id string) (*model.Payable, error) {
	row := s.db.QueryRow(`SELECT id, title, amount, currency, anchor_date, cycle, interval_days, category_id, payment_method_id, created_at
		FROM payables WHERE id = ?`, id)
	p, err := scanPayable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding payable: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListPayables() ([]*model.Payable, error) {
	rows, err := s.db.Query(`SELECT id, title, amount, currency, anchor_date, cycle, interval_days, category_id, payment_method_id, created_at
		FROM payables ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing payables: %w", err)
	}
	defer rows.Close()

	var out []*model.Payable
	for rows.Next() {
		p, err := scanPayable(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payable: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertPayable(p *model.Payable) error {
	_, err := s.db.Exec(`INSERT INTO payables (id, title, amount, currency, anchor_date, cycle, interval_days, category_id, payment_method_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Amount.String(), p.Currency, p.AnchorDate, string(p.Cycle), p.IntervalDays, p.CategoryID, p.PaymentMethodID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting payable %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpdatePayable(p *model.Payable) error {
	res, err := s.db.Exec(`UPDATE payables SET title = ?, amount = ?, currency = ?, anchor_date = ?, cycle = ?, interval_days = ?, category_id = ?, payment_method_id = ?
		WHERE id = ?`,
		p.Title, p.Amount.String(), p.Currency, p.AnchorDate, string(p.Cycle), p.IntervalDays, p.CategoryID, p.PaymentMethodID, p.ID)
	if err != nil {
		return fmt.Errorf("updating payable %s: %w", p.ID, err)
	}
	return requireRow(res, "payable", p.ID)
}

// Category operations

func (s *SQLiteStore) GetCategory(id string) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRow(`SELECT id, name, created_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding category: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCategories() ([]*model.Category, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []*model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertCategory(c *model.Category) error {
	_, err := s.db.Exec(`INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting category %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateCategory(c *model.Category) error {
	res, err := s.db.Exec(`UPDATE categories SET name = ? WHERE id = ?`, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("updating category %s: %w", c.ID, err)
	}
	return requireRow(res, "category", c.ID)
}

// PaymentMethod operations

func (s *SQLiteStore) GetPaymentMethod(id string) (*model.PaymentMethod, error) {
	var m model.PaymentMethod
	err := s.db.QueryRow(`SELECT id, name, last4, created_at FROM payment_methods WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Last4, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding payment method: %w", err)
	}
	return &m, nil
}

func (s *SQLiteStore) ListPaymentMethods() ([]*model.PaymentMethod, error) {
	rows, err := s.db.Query(`SELECT id, name, last4, created_at FROM payment_methods ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing payment methods: %w", err)
	}
	defer rows.Close()

	var out []*model.PaymentMethod
	for rows.Next() {
		var m model.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Last4, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning payment method: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertPaymentMethod(m *model.PaymentMethod) error {
	_, err := s.db.Exec(`INSERT INTO payment_methods (id, name, last4, created_at) VALUES (?, ?, ?, ?)`,
		m.ID, m.Name, m.Last4, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting payment method %s: %w", m.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpdatePaymentMethod(m *model.PaymentMethod) error {
	res, err := s.db.Exec(`UPDATE payment_methods SET name = ?, last4 = ? WHERE id = ?`, m.Name, m.Last4, m.ID)
	if err != nil {
		return fmt.Errorf("updating payment method %s: %w", m.ID, err)
	}
	return requireRow(res, "payment method", m.ID)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPayable(row scanner) (*model.Payable, error) {
	var (
		p      model.Payable
		amount string
		cycle  string
	)
	err := row.Scan(&p.ID, &p.Title, &amount, &p.Currency, &p.AnchorDate, &cycle, &p.IntervalDays, &p.CategoryID, &p.PaymentMethodID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Cycle = model.BillingCycle(cycle)
	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	return &p, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("no %s with id %s", kind, id)
	}
	return nil
}
