package store

import (
	"context"
	"sort"
	"sync"

	"landreg/internal/document/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in mutex-guarded maps with a slot index per
// property so the one-document-per-type invariant holds under concurrency.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]*models.Document
	slots     map[id.PropertyID]map[models.Type]id.DocumentID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[id.DocumentID]*models.Document),
		slots:     make(map[id.PropertyID]map[models.Type]id.DocumentID),
	}
}

// Upsert fills the (property, type) slot with d. When the slot already held
// a document the previous one is removed and returned so the caller can
// release its blob.
func (s *InMemoryStore) Upsert(_ context.Context, d *models.Document) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.slots[d.PropertyID]
	if !ok {
		slots = make(map[models.Type]id.DocumentID)
		s.slots[d.PropertyID] = slots
	}

	var replaced *models.Document
	if oldID, exists := slots[d.Type]; exists {
		replaced = s.documents[oldID]
		delete(s.documents, oldID)
	}
	slots[d.Type] = d.ID
	s.documents[d.ID] = cloneDocument(d)
	return replaced, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, documentID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[documentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDocument(d), nil
}

func (s *InMemoryStore) ListByProperty(_ context.Context, propertyID id.PropertyID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Document
	for _, docID := range s.slots[propertyID] {
		out = append(out, cloneDocument(s.documents[docID]))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}

// Execute atomically validates and mutates one document under the store lock.
func (s *InMemoryStore) Execute(_ context.Context, documentID id.DocumentID,
	validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[documentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(d); err != nil {
		return nil, err
	}

	clone := cloneDocument(d)
	mutate(clone)
	s.documents[documentID] = clone
	return cloneDocument(clone), nil
}

func (s *InMemoryStore) DeleteByProperty(_ context.Context, propertyID id.PropertyID) ([]*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*models.Document
	for _, docID := range s.slots[propertyID] {
		if d, ok := s.documents[docID]; ok {
			removed = append(removed, d)
			delete(s.documents, docID)
		}
	}
	delete(s.slots, propertyID)
	return removed, nil
}

func cloneDocument(d *models.Document) *models.Document {
	clone := *d
	if d.ReviewedAt != nil {
		reviewed := *d.ReviewedAt
		clone.ReviewedAt = &reviewed
	}
	return &clone
}
