package store

import (
	"context"
	"sort"
	"sync"

	"landreg/internal/dispute/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

// InMemoryStore keeps disputes in a mutex-guarded map.
type InMemoryStore struct {
	mu       sync.RWMutex
	disputes map[id.DisputeID]*models.Dispute
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{disputes: make(map[id.DisputeID]*models.Dispute)}
}

func (s *InMemoryStore) Create(_ context.Context, d *models.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.disputes[d.ID]; exists {
		return sentinel.ErrConflict
	}
	s.disputes[d.ID] = cloneDispute(d)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, disputeID id.DisputeID) (*models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.disputes[disputeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDispute(d), nil
}

func (s *InMemoryStore) ListByProperty(_ context.Context, propertyID id.PropertyID) ([]*models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Dispute
	for _, d := range s.disputes {
		if d.PropertyID == propertyID {
			out = append(out, cloneDispute(d))
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryStore) ListByClaimant(_ context.Context, claimantID id.UserID) ([]*models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Dispute
	for _, d := range s.disputes {
		if d.ClaimantID == claimantID {
			out = append(out, cloneDispute(d))
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Dispute, 0, len(s.disputes))
	for _, d := range s.disputes {
		out = append(out, cloneDispute(d))
	}
	sortByCreation(out)
	return out, nil
}

// CountActiveByProperty reports how many non-terminal disputes reference the
// property.
func (s *InMemoryStore) CountActiveByProperty(_ context.Context, propertyID id.PropertyID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, d := range s.disputes {
		if d.PropertyID == propertyID && d.Status.Active() {
			count++
		}
	}
	return count, nil
}

// Execute atomically validates and mutates one dispute under the store lock.
func (s *InMemoryStore) Execute(_ context.Context, disputeID id.DisputeID,
	validate func(*models.Dispute) error, mutate func(*models.Dispute)) (*models.Dispute, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.disputes[disputeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(d); err != nil {
		return nil, err
	}

	clone := cloneDispute(d)
	mutate(clone)
	s.disputes[disputeID] = clone
	return cloneDispute(clone), nil
}

func cloneDispute(d *models.Dispute) *models.Dispute {
	clone := *d
	if d.Resolution != nil {
		res := *d.Resolution
		clone.Resolution = &res
	}
	clone.Timeline = append([]models.TimelineEvent(nil), d.Timeline...)
	return &clone
}

func sortByCreation(disputes []*models.Dispute) {
	sort.Slice(disputes, func(i, j int) bool {
		return disputes[i].CreatedAt.Before(disputes[j].CreatedAt)
	})
}
