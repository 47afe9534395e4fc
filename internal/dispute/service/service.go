package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	disputemetrics "landreg/internal/dispute/metrics"
	"landreg/internal/dispute/models"
	propertymodels "landreg/internal/property/models"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/platform/sentinel"
)

// Store is the persistence port for disputes.
type Store interface {
	Create(ctx context.Context, d *models.Dispute) error
	FindByID(ctx context.Context, disputeID id.DisputeID) (*models.Dispute, error)
	ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Dispute, error)
	ListByClaimant(ctx context.Context, claimantID id.UserID) ([]*models.Dispute, error)
	List(ctx context.Context) ([]*models.Dispute, error)
	CountActiveByProperty(ctx context.Context, propertyID id.PropertyID) (int, error)
	Execute(ctx context.Context, disputeID id.DisputeID,
		validate func(*models.Dispute) error, mutate func(*models.Dispute)) (*models.Dispute, error)
}

// PropertyDirectory resolves dispute targets. Claimants are frequently not
// the owner of the disputed property, so this is an ownership-free lookup.
type PropertyDirectory interface {
	Find(ctx context.Context, propertyID id.PropertyID) (*propertymodels.Property, error)
}

// AuditPublisher records compliance-relevant actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier delivers user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, userID id.UserID, notifType, title, message, link string) error
}

// Service runs the dispute lifecycle: claimant submission and withdrawal,
// officer-driven review transitions, and resolution.
type Service struct {
	store      Store
	properties PropertyDirectory
	logger     *slog.Logger
	auditor    AuditPublisher
	notifier   Notifier
	metrics    *disputemetrics.Metrics
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

func WithMetrics(m *disputemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, properties PropertyDirectory, opts ...Option) *Service {
	s := &Service{
		store:      store,
		properties: properties,
		tracer:     otel.Tracer("landreg/dispute"),
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
		return dErrors.New(dErrors.CodeNotFound, "dispute not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "dispute store failure")
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
