package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"landreg/internal/admin/service"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/platform/httputil"
)

// Service defines the admin operations the handler depends on.
type Service interface {
	Logs(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
	Report(ctx context.Context) (*service.Summary, error)
}

// Handler wires the /logs and /reports endpoints to the admin service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an admin handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin endpoints. The router group is expected to be
// guarded (admin role or static admin token).
func (h *Handler) Register(r chi.Router) {
	r.Get("/logs", h.HandleLogs)
	r.Get("/reports/summary", h.HandleSummary)
}

// logEntry is the wire form of one audit event.
type logEntry struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
}

// HandleLogs handles GET /logs. Query params: category, action, subject,
// since, until (RFC 3339), limit.
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.Logs(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries := make([]logEntry, 0, len(events))
	for _, event := range events {
		entry := logEntry{
			Category:  string(event.Category),
			Timestamp: event.Timestamp,
			Subject:   event.Subject,
			Action:    event.Action,
			Reason:    event.Reason,
			RequestID: event.RequestID,
			ActorID:   event.ActorID,
		}
		if !event.UserID.IsNil() {
			entry.UserID = event.UserID.String()
		}
		entries = append(entries, entry)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"logs":  entries,
		"total": len(entries),
	})
}

// HandleSummary handles GET /reports/summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Report(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func parseFilter(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	filter := audit.Filter{
		Category: audit.EventCategory(q.Get("category")),
		Action:   q.Get("action"),
		Subject:  q.Get("subject"),
	}
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeBadRequest, "since must be RFC 3339")
		}
		filter.Since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return audit.Filter{}, dErrors.New(dErrors.CodeBadRequest, "until must be RFC 3339")
		}
		filter.Until = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return audit.Filter{}, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
