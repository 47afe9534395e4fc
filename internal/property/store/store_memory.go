package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"landreg/internal/property/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
	"landreg/pkg/requestcontext"
)

// InMemoryStore holds properties in a mutex-guarded map. Mutations go through
// Execute so validation and mutation happen under one lock, which is the
// in-memory equivalent of the postgres store's FOR UPDATE row lock.
type InMemoryStore struct {
	mu         sync.RWMutex
	properties map[id.PropertyID]*models.Property
	byPlot     map[string]id.PropertyID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		properties: make(map[id.PropertyID]*models.Property),
		byPlot:     make(map[string]id.PropertyID),
	}
}

func plotKey(plotNumber string) string {
	return strings.ToLower(strings.TrimSpace(plotNumber))
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := plotKey(p.PlotNumber)
	if _, exists := s.byPlot[key]; exists {
		return sentinel.ErrConflict
	}
	clone := cloneProperty(p)
	s.properties[p.ID] = clone
	s.byPlot[key] = p.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, propertyID id.PropertyID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProperty(p), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Property
	for _, p := range s.properties {
		if p.OwnerID == ownerID {
			out = append(out, cloneProperty(p))
		}
	}
	sortByRegistration(out)
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Property, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, cloneProperty(p))
	}
	sortByRegistration(out)
	return out, nil
}

// Execute atomically validates and mutates one property. The callback pair
// runs under the store lock; mutate must not block. The version is bumped
// here so every successful mutation is observable as a new version.
func (s *InMemoryStore) Execute(ctx context.Context, propertyID id.PropertyID,
	validate func(*models.Property) error, mutate func(*models.Property)) (*models.Property, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	if err := validate(p); err != nil {
		return nil, err
	}

	clone := cloneProperty(p)
	mutate(clone)
	clone.Version = p.Version + 1
	clone.UpdatedAt = requestcontext.Now(ctx)

	if clone.PlotNumber != p.PlotNumber {
		newKey := plotKey(clone.PlotNumber)
		if owner, exists := s.byPlot[newKey]; exists && owner != propertyID {
			return nil, sentinel.ErrConflict
		}
		delete(s.byPlot, plotKey(p.PlotNumber))
		s.byPlot[newKey] = propertyID
	}

	s.properties[propertyID] = clone
	return cloneProperty(clone), nil
}

func (s *InMemoryStore) Delete(_ context.Context, propertyID id.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byPlot, plotKey(p.PlotNumber))
	delete(s.properties, propertyID)
	return nil
}

func cloneProperty(p *models.Property) *models.Property {
	clone := *p
	clone.Timeline = make([]models.TimelineEvent, len(p.Timeline))
	copy(clone.Timeline, p.Timeline)
	return &clone
}

func sortByRegistration(properties []*models.Property) {
	sort.Slice(properties, func(i, j int) bool {
		return properties[i].RegisteredAt.Before(properties[j].RegisteredAt)
	})
}
