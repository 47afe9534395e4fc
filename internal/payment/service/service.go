package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"landreg/internal/payment/gateway"
	paymentmetrics "landreg/internal/payment/metrics"
	"landreg/internal/payment/models"
	propertymodels "landreg/internal/property/models"
	"landreg/internal/property/workflow"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/platform/sentinel"
)

// Store is the persistence port for payments.
type Store interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByID(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error)
	ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Payment, error)
	ListByPayer(ctx context.Context, payerID id.UserID) ([]*models.Payment, error)
	List(ctx context.Context) ([]*models.Payment, error)
	Execute(ctx context.Context, paymentID id.PaymentID,
		validate func(*models.Payment) error, mutate func(*models.Payment)) (*models.Payment, error)
}

// PropertyWorkflow is the slice of the property service payments drive.
type PropertyWorkflow interface {
	Get(ctx context.Context, propertyID id.PropertyID) (*propertymodels.Property, error)
	ApplyWorkflowEvent(ctx context.Context, propertyID id.PropertyID,
		event workflow.Event, docs workflow.DocumentReview, description string) (*propertymodels.Property, error)
}

// Gateways resolves the payment channel handling a method.
type Gateways interface {
	For(method models.Method) (gateway.Gateway, error)
}

// AuditPublisher records compliance-relevant actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier delivers user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, userID id.UserID, notifType, title, message, link string) error
}

// Service orchestrates fee quoting, payment initiation, and gateway
// settlement.
type Service struct {
	store      Store
	gateways   Gateways
	properties PropertyWorkflow
	logger     *slog.Logger
	auditor    AuditPublisher
	notifier   Notifier
	metrics    *paymentmetrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(auditor AuditPublisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithMetrics(m *paymentmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, gateways Gateways, properties PropertyWorkflow, opts ...Option) *Service {
	s := &Service{
		store:      store,
		gateways:   gateways,
		properties: properties,
		tracer:     otel.Tracer("landreg/payment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func wrapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "payment not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "payment store failure")
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, userID id.UserID, subject, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		UserID:  userID,
		Subject: subject,
		Action:  string(action),
		Reason:  reason,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, userID id.UserID, notifType, title, message, link string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, notifType, title, message, link); err != nil {
		s.logger.WarnContext(ctx, "notification delivery failed", "type", notifType, "error", err)
	}
}
