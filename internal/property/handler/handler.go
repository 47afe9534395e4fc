package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"landreg/internal/platform/middleware"
	"landreg/internal/property/models"
	"landreg/internal/property/service"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	"landreg/pkg/platform/httputil"
	"landreg/pkg/requestcontext"
)

// Service defines the property operations the handler depends on.
type Service interface {
	Register(ctx context.Context, ownerID id.UserID, input service.RegisterInput) (*models.Property, error)
	Get(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	ListMine(ctx context.Context, ownerID id.UserID) ([]*models.Property, error)
	ListAll(ctx context.Context) ([]*models.Property, error)
	Update(ctx context.Context, ownerID id.UserID, propertyID id.PropertyID, input service.UpdateInput) (*models.Property, error)
	Delete(ctx context.Context, ownerID id.UserID, propertyID id.PropertyID) error
	Resubmit(ctx context.Context, ownerID id.UserID, propertyID id.PropertyID) (*models.Property, error)
	StartReview(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	Approve(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	Reject(ctx context.Context, propertyID id.PropertyID, reason string) (*models.Property, error)
	RequestUpdate(ctx context.Context, propertyID id.PropertyID, reason string) (*models.Property, error)
	Transfer(ctx context.Context, propertyID id.PropertyID, newOwner id.UserID) (*models.Property, error)
}

// Handler wires property endpoints to the property service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a property handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts citizen-facing property endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/properties", h.HandleRegister)
	r.Get("/properties", h.HandleList)
	r.Get("/properties/{id}", h.HandleGet)
	r.Patch("/properties/{id}", h.HandleUpdate)
	r.Delete("/properties/{id}", h.HandleDelete)
	r.Post("/properties/{id}/resubmit", h.HandleResubmit)
}

// RegisterOfficer mounts officer decision endpoints. The caller guards the
// subtree with role middleware.
func (h *Handler) RegisterOfficer(r chi.Router) {
	r.Post("/properties/{id}/review", h.HandleStartReview)
	r.Post("/properties/{id}/review/approve", h.HandleApprove)
	r.Post("/properties/{id}/review/reject", h.HandleReject)
	r.Post("/properties/{id}/review/request-update", h.HandleRequestUpdate)
	r.Post("/properties/{id}/transfer", h.HandleTransfer)
}

// HandleRegister handles POST /properties.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Register(ctx, userID, req.ToInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "property registration failed",
			"request_id", requestID,
			"user_id", userID,
			"plot_number", req.PlotNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "property registered",
		"request_id", requestID,
		"user_id", userID,
		"property_id", p.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromProperty(p))
}

// HandleList handles GET /properties. Citizens see their own applications;
// officers and admins see the full register.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var (
		properties []*models.Property
		err        error
	)
	switch requestcontext.Role(ctx) {
	case middleware.RoleOfficer, middleware.RoleAdmin:
		properties, err = h.service.ListAll(ctx)
	default:
		properties, err = h.service.ListMine(ctx, userID)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProperties(properties))
}

// HandleGet handles GET /properties/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProperty(p))
}

// HandleUpdate handles PATCH /properties/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	propertyID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Update(ctx, userID, propertyID, req.ToInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProperty(p))
}

// HandleDelete handles DELETE /properties/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	propertyID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, userID, propertyID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "property deleted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"property_id", propertyID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleResubmit handles POST /properties/{id}/resubmit.
func (h *Handler) HandleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	propertyID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Resubmit(ctx, userID, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProperty(p))
}

// HandleStartReview handles POST /properties/{id}/review.
func (h *Handler) HandleStartReview(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
		return h.service.StartReview(ctx, propertyID)
	}, "review started")
}

// HandleApprove handles POST /properties/{id}/review/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
		return h.service.Approve(ctx, propertyID)
	}, "property approved")
}

// HandleReject handles POST /properties/{id}/review/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	propertyID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.Reject(ctx, propertyID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logDecision(ctx, "property rejected", p)
	httputil.WriteJSON(w, http.StatusOK, FromProperty(p))
}

// HandleRequestUpdate handles POST /properties/{id}/review/request-update.
func (h *Handler) HandleRequestUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	propertyID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.RequestUpdate(ctx, propertyID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logDecision(ctx, "property update requested", p)
	httputil.WriteJSON(w, http.StatusOK, FromProperty(p))
}

// HandleTransfer handles POST /properties/{id}/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	propertyID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.Transfer(ctx, propertyID, req.ParsedOwner())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logDecision(ctx, "property transferred", p)
	httputil.WriteJSON(w, http.StatusOK, FromProperty(p))
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request,
	op func(context.Context, id.PropertyID) (*models.Property, error), msg string) {

	ctx := r.Context()
	propertyID, ok := h.propertyID(w, r)
	if !ok {
		return
	}
	p, err := op(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logDecision(ctx, msg, p)
	httputil.WriteJSON(w, http.StatusOK, FromProperty(p))
}

func (h *Handler) logDecision(ctx context.Context, msg string, p *models.Property) {
	h.logger.InfoContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"officer_id", requestcontext.UserID(ctx),
		"property_id", p.ID,
		"status", p.Status,
	)
}

func (h *Handler) propertyID(w http.ResponseWriter, r *http.Request) (id.PropertyID, bool) {
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid property id"))
		return id.PropertyID{}, false
	}
	return propertyID, true
}
