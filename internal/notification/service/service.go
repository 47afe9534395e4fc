package service

import (
	"context"
	"errors"
	"log/slog"

	"landreg/internal/notification/models"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	"landreg/pkg/platform/sentinel"
	"landreg/pkg/requestcontext"
)

// Store is the persistence port for notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID id.UserID, unreadOnly bool) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID id.UserID) (int, error)
	MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error
	MarkAllRead(ctx context.Context, userID id.UserID) (int, error)
}

// Service delivers and manages user notifications. It implements the
// Notifier port the property, document, payment, and dispute services
// publish through.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Notify creates an unread notification for the user.
func (s *Service) Notify(ctx context.Context, userID id.UserID, notifType, title, message, link string) error {
	n, err := models.NewNotification(id.NewNotificationID(), userID,
		notifType, title, message, link, requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	if err := s.store.Create(ctx, n); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID id.UserID, unreadOnly bool) ([]*models.Notification, error) {
	notifications, err := s.store.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return notifications, nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *Service) UnreadCount(ctx context.Context, userID id.UserID) (int, error) {
	count, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return count, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	if err := s.store.MarkRead(ctx, userID, notificationID); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// MarkAllRead flags every unread notification and reports the count.
func (s *Service) MarkAllRead(ctx context.Context, userID id.UserID) (int, error) {
	count, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return count, nil
}

func wrapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "notification store failure")
	}
}
