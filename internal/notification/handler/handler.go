package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landreg/internal/notification/models"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	"landreg/pkg/platform/httputil"
	"landreg/pkg/requestcontext"
)

// Service defines the notification operations the handler depends on.
type Service interface {
	List(ctx context.Context, userID id.UserID, unreadOnly bool) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID id.UserID) (int, error)
	MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error
	MarkAllRead(ctx context.Context, userID id.UserID) (int, error)
}

// Handler wires notification endpoints to the notification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a notification handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts notification endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Get("/notifications/unread-count", h.HandleUnreadCount)
	r.Post("/notifications/{id}/read", h.HandleMarkRead)
	r.Post("/notifications/read-all", h.HandleMarkAllRead)
}

// ListResponse wraps a notification collection.
type ListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int                    `json:"total"`
}

// HandleList handles GET /notifications. ?unread=true filters to unread.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authenticated(w, ctx)
	if !ok {
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, err := h.service.List(ctx, userID, unreadOnly)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, &ListResponse{
		Notifications: notifications,
		Total:         len(notifications),
	})
}

// HandleUnreadCount handles GET /notifications/unread-count.
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authenticated(w, ctx)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// HandleMarkRead handles POST /notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authenticated(w, ctx)
	if !ok {
		return
	}
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	if err := h.service.MarkRead(ctx, userID, notificationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkAllRead handles POST /notifications/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.authenticated(w, ctx)
	if !ok {
		return
	}
	count, err := h.service.MarkAllRead(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"marked": count})
}

func (h *Handler) authenticated(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}
