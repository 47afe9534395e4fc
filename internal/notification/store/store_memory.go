package store

import (
	"context"
	"sort"
	"sync"

	"landreg/internal/notification/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

// InMemoryStore keeps notifications in a mutex-guarded map.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.NotificationID]*models.Notification
	byUser map[id.UserID][]id.NotificationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.NotificationID]*models.Notification),
		byUser: make(map[id.UserID][]id.NotificationID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[n.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *n
	s.byID[n.ID] = &clone
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n.ID)
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, unreadOnly bool) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Notification
	for _, notificationID := range s.byUser[userID] {
		n := s.byID[notificationID]
		if unreadOnly && n.Read {
			continue
		}
		clone := *n
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) CountUnread(_ context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, notificationID := range s.byUser[userID] {
		if !s.byID[notificationID].Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flags one notification; the owner check lives here so the redis
// store can enforce it the same way.
func (s *InMemoryStore) MarkRead(_ context.Context, userID id.UserID, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[notificationID]
	if !ok || n.UserID != userID {
		return sentinel.ErrNotFound
	}
	n.Read = true
	return nil
}

// MarkAllRead flags every unread notification for the user and reports how
// many were flipped.
func (s *InMemoryStore) MarkAllRead(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, notificationID := range s.byUser[userID] {
		n := s.byID[notificationID]
		if !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}
