package models

import (
	"strings"
	"time"

	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// Notification is one user-facing message. Notifications are advisory: they
// carry no workflow state and deleting them never affects an application.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	UserID    id.UserID         `json:"user_id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Link      string            `json:"link,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification validates input and constructs an unread notification.
func NewNotification(notificationID id.NotificationID, userID id.UserID,
	notifType, title, message, link string, now time.Time) (*Notification, error) {

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "notification recipient is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "notification title is required")
	}
	if notifType == "" {
		notifType = "general"
	}

	return &Notification{
		ID:        notificationID,
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   strings.TrimSpace(message),
		Link:      link,
		CreatedAt: now,
	}, nil
}
