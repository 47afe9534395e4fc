package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"landreg/internal/payment/models"
	"landreg/internal/payment/service"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	"landreg/pkg/platform/httputil"
	"landreg/pkg/requestcontext"
)

// Service defines the payment operations the handler depends on.
type Service interface {
	Quote(ctx context.Context, propertyID id.PropertyID, method models.Method, paymentType models.Type) (models.Quote, error)
	Initiate(ctx context.Context, payerID id.UserID, input service.InitiateInput) (*models.Payment, error)
	Confirm(ctx context.Context, payerID id.UserID, paymentID id.PaymentID) (*models.Payment, error)
	Cancel(ctx context.Context, payerID id.UserID, paymentID id.PaymentID) (*models.Payment, error)
	Refund(ctx context.Context, paymentID id.PaymentID, reason string) (*models.Payment, error)
	Get(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error)
	ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Payment, error)
	ListMine(ctx context.Context, payerID id.UserID) ([]*models.Payment, error)
}

// Handler wires payment endpoints to the payment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a payment handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts payer-facing payment endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/properties/{id}/payments/quote", h.HandleQuote)
	r.Get("/properties/{id}/payments", h.HandleListByProperty)
	r.Post("/payments", h.HandleInitiate)
	r.Get("/payments", h.HandleListMine)
	r.Get("/payments/{id}", h.HandleGet)
	r.Post("/payments/{id}/confirm", h.HandleConfirm)
	r.Post("/payments/{id}/cancel", h.HandleCancel)
}

// RegisterOfficer mounts officer payment endpoints.
func (h *Handler) RegisterOfficer(r chi.Router) {
	r.Post("/payments/{id}/refund", h.HandleRefund)
}

// HandleQuote handles GET /properties/{id}/payments/quote.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid property id"))
		return
	}

	method := models.Method(r.URL.Query().Get("method"))
	paymentType := models.Type(r.URL.Query().Get("type"))
	if paymentType == "" {
		paymentType = models.TypeRegistrationFee
	}

	quote, err := h.service.Quote(ctx, propertyID, method, paymentType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, quote)
}

// HandleInitiate handles POST /payments.
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[InitiateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payment, err := h.service.Initiate(ctx, userID, req.ToInput())
	if err != nil {
		h.logger.WarnContext(ctx, "payment initiation failed",
			"request_id", requestID,
			"user_id", userID,
			"method", req.Method,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payment initiated",
		"request_id", requestID,
		"user_id", userID,
		"payment_id", payment.ID,
		"method", payment.Method,
		"amount", payment.Amount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromPayment(payment))
}

// HandleConfirm handles POST /payments/{id}/confirm.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paymentID, ok := h.paymentID(w, r)
	if !ok {
		return
	}
	payment, err := h.service.Confirm(ctx, requestcontext.UserID(ctx), paymentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "payment settled",
		"request_id", requestcontext.RequestID(ctx),
		"payment_id", payment.ID,
		"status", payment.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromPayment(payment))
}

// HandleCancel handles POST /payments/{id}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paymentID, ok := h.paymentID(w, r)
	if !ok {
		return
	}
	payment, err := h.service.Cancel(ctx, requestcontext.UserID(ctx), paymentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPayment(payment))
}

// HandleRefund handles POST /payments/{id}/refund.
func (h *Handler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	paymentID, ok := h.paymentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RefundRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	payment, err := h.service.Refund(ctx, paymentID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "payment refunded",
		"request_id", requestID,
		"officer_id", requestcontext.UserID(ctx),
		"payment_id", payment.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromPayment(payment))
}

// HandleGet handles GET /payments/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paymentID, ok := h.paymentID(w, r)
	if !ok {
		return
	}
	payment, err := h.service.Get(ctx, paymentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPayment(payment))
}

// HandleListByProperty handles GET /properties/{id}/payments.
func (h *Handler) HandleListByProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	propertyID, err := id.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid property id"))
		return
	}
	payments, err := h.service.ListByProperty(ctx, propertyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPayments(payments))
}

// HandleListMine handles GET /payments.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	payments, err := h.service.ListMine(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPayments(payments))
}

func (h *Handler) paymentID(w http.ResponseWriter, r *http.Request) (id.PaymentID, bool) {
	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payment id"))
		return id.PaymentID{}, false
	}
	return paymentID, true
}
