package store

import (
	"fmt"
	"sort"
	"sync"

	"subtrack/internal/model"
	"subtrack/internal/subtrack"
)

// MemoryStore is an in-memory implementation of the RecordStore interface,
// useful for testing. Safe for concurrent use. Records are stored by value
// so callers cannot mutate stored state through retained pointers.
type MemoryStore struct {
	mu             sync.RWMutex
	payables       map[string]model.Payable
	categories     map[string]model.Category
	paymentMethods map[string]model.PaymentMethod
}

var _ subtrack.RecordStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payables:       make(map[string]model.Payable),
		categories:     make(map[string]model.Category),
		paymentMethods: make(map[string]model.PaymentMethod),
	}
}

func (s *MemoryStore) GetPayable(id string) (*model.Payable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payables[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) ListPayables() ([]*model.Payable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.payables))
	for id := range s.payables {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*model.Payable, 0, len(ids))
	for _, id := range ids {
		p := s.payables[id]
		out = append(out, &p)
	}
	return out, nil
}

func (s *MemoryStore) InsertPayable(p *model.Payable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payables[p.ID]; ok {
		return fmt.Errorf("payable %s already exists", p.ID)
	}
	s.payables[p.ID] = *p
	return nil
}

func (s *MemoryStore) UpdatePayable(p *model.Payable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payables[p.ID]; !ok {
		return fmt.Errorf("no payable with id %s", p.ID)
	}
	s.payables[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetCategory(id string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) ListCategories() ([]*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.categories))
	for id := range s.categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*model.Category, 0, len(ids))
	for _, id := range ids {
		c := s.categories[id]
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryStore) InsertCategory(c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok {
		return fmt.Errorf("category %s already exists", c.ID)
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStore) UpdateCategory(c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return fmt.Errorf("no category with id %s", c.ID)
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetPaymentMethod(id string) (*model.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.paymentMethods[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) ListPaymentMethods() ([]*model.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.paymentMethods))
	for id := range s.paymentMethods {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*model.PaymentMethod, 0, len(ids))
	for _, id := range ids {
		m := s.paymentMethods[id]
		out = append(out, &m)
	}
	return out, nil
}

func (s *MemoryStore) InsertPaymentMethod(m *model.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paymentMethods[m.ID]; ok {
		return fmt.Errorf("payment method %s already exists", m.ID)
	}
	s.paymentMethods[m.ID] = *m
	return nil
}

func (s *MemoryStore) UpdatePaymentMethod(m *model.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paymentMethods[m.ID]; !ok {
		return fmt.Errorf("no payment method with id %s", m.ID)
	}
	s.paymentMethods[m.ID] = *m
	return nil
}

func (s *MemoryStore) Close() error { return nil }
