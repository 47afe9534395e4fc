package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landreg/internal/dispute/models"
	"landreg/internal/dispute/service"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	"landreg/pkg/platform/httputil"
	"landreg/pkg/requestcontext"
)

// Service defines the dispute operations the handler depends on.
type Service interface {
	Submit(ctx context.Context, claimantID id.UserID, input service.SubmitInput) (*models.Dispute, error)
	Withdraw(ctx context.Context, claimantID id.UserID, disputeID id.DisputeID, reason string) (*models.Dispute, error)
	Advance(ctx context.Context, disputeID id.DisputeID, note string) (*models.Dispute, error)
	Resolve(ctx context.Context, disputeID id.DisputeID, input service.ResolveInput) (*models.Dispute, error)
	Get(ctx context.Context, disputeID id.DisputeID) (*models.Dispute, error)
	ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Dispute, error)
	ListMine(ctx context.Context, claimantID id.UserID) ([]*models.Dispute, error)
	ListAll(ctx context.Context) ([]*models.Dispute, error)
}

// Handler wires dispute endpoints to the dispute service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a dispute handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts claimant-facing dispute endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/disputes", h.HandleSubmit)
	r.Get("/disputes", h.HandleList)
	r.Get("/disputes/{id}", h.HandleGet)
	r.Post("/disputes/{id}/withdraw", h.HandleWithdraw)
	r.Get("/properties/{id}/disputes", h.HandleListByProperty)
}

// RegisterOfficer mounts officer dispute endpoints.
func (h *Handler) RegisterOfficer(r chi.Router) {
	r.Post("/disputes/{id}/advance", h.HandleAdvance)
	r.Post("/disputes/{id}/resolve", h.HandleResolve)
}

// HandleSubmit handles POST /disputes.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dispute, err := h.service.Submit(ctx, userID, req.ToInput())
	if err != nil {
		h.logger.WarnContext(ctx, "dispute submission failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "dispute submitted",
		"request_id", requestID,
		"user_id", userID,
		"dispute_id", dispute.ID,
		"dispute_type", dispute.Type,
		"priority", dispute.Priority,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDispute(dispute))
}

// HandleWithdraw handles POST /disputes/{id}/withdraw.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	disputeID, ok := h.disputeID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dispute, err := h.service.Withdraw(ctx, requestcontext.UserID(ctx), disputeID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "dispute withdrawn",
		"request_id", requestID,
		"dispute_id", dispute.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromDispute(dispute))
}

// HandleAdvance handles POST /disputes/{id}/advance.
func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	disputeID, ok := h.disputeID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AdvanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dispute, err := h.service.Advance(ctx, disputeID, req.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "dispute advanced",
		"request_id", requestID,
		"officer_id", requestcontext.UserID(ctx),
		"dispute_id", dispute.ID,
		"status", dispute.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromDispute(dispute))
}

// HandleResolve handles POST /disputes/{id}/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	disputeID, ok := h.disputeID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dispute, err := h.service.Resolve(ctx, disputeID, req.ToInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "dispute resolved",
		"request_id", requestID,
		"officer_id", requestcontext.UserID(ctx),
		"dispute_id", dispute.ID,
		"status", dispute.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromDispute(dispute))
}

// HandleGet handles GET /disputes/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	disputeID, ok := h.disputeID(w, r)
	if !ok {
		return
	}
	dispute, err := h.service.Get(ctx, disputeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDispute(dispute))
}

// HandleList handles GET /disputes. Officers see every dispute; claimants
// see their own.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var (
		disputes []*models.Dispute
		err      error
	)
	switch requestcontext.Role(ctx) {
	case "officer", "admin":
		disputes, err = h.service.ListAll(ctx)
	default:
		disputes, err = h.service.ListMine(ctx, userID)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDisputes(disputes))
}

// HandleListByProperty handles GET /properties/{id}/disputes.
func (h *Handler) HandleListByProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid property id"))
		return
	}
	disputes, err := h.service.ListByProperty(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDisputes(disputes))
}

func (h *Handler) disputeID(w http.ResponseWriter, r *http.Request) (id.DisputeID, bool) {
	disputeID, err := id.ParseDisputeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid dispute id"))
		return id.DisputeID{}, false
	}
	return disputeID, true
}
