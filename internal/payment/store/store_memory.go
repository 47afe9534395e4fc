package store

import (
	"context"
	"sort"
	"sync"

	"landreg/internal/payment/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

// InMemoryStore keeps payments in a mutex-guarded map.
type InMemoryStore struct {
	mu       sync.RWMutex
	payments map[id.PaymentID]*models.Payment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{payments: make(map[id.PaymentID]*models.Payment)}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.payments[p.ID] = clonePayment(p)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clonePayment(p), nil
}

func (s *InMemoryStore) ListByProperty(_ context.Context, propertyID id.PropertyID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Payment
	for _, p := range s.payments {
		if p.PropertyID == propertyID {
			out = append(out, clonePayment(p))
		}
	}
	sortByInitiation(out)
	return out, nil
}

func (s *InMemoryStore) ListByPayer(_ context.Context, payerID id.UserID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Payment
	for _, p := range s.payments {
		if p.PayerID == payerID {
			out = append(out, clonePayment(p))
		}
	}
	sortByInitiation(out)
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, clonePayment(p))
	}
	sortByInitiation(out)
	return out, nil
}

// Execute atomically validates and mutates one payment under the store lock.
func (s *InMemoryStore) Execute(_ context.Context, paymentID id.PaymentID,
	validate func(*models.Payment) error, mutate func(*models.Payment)) (*models.Payment, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	clone := clonePayment(p)
	mutate(clone)
	s.payments[paymentID] = clone
	return clonePayment(clone), nil
}

func clonePayment(p *models.Payment) *models.Payment {
	clone := *p
	if p.PaidAt != nil {
		paid := *p.PaidAt
		clone.PaidAt = &paid
	}
	return &clone
}

func sortByInitiation(payments []*models.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].InitiatedAt.Before(payments[j].InitiatedAt)
	})
}
