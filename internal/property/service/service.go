package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	propertymetrics "landreg/internal/property/metrics"
	"landreg/internal/property/models"
	"landreg/internal/property/workflow"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/platform/sentinel"
	"landreg/pkg/requestcontext"
)

// Store is the persistence port for properties.
type Store interface {
	Create(ctx context.Context, p *models.Property) error
	FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Property, error)
	List(ctx context.Context) ([]*models.Property, error)
	Execute(ctx context.Context, propertyID id.PropertyID,
		validate func(*models.Property) error, mutate func(*models.Property)) (*models.Property, error)
	Delete(ctx context.Context, propertyID id.PropertyID) error
}

// AuditPublisher records compliance-relevant actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier delivers user-facing messages on workflow transitions.
type Notifier interface {
	Notify(ctx context.Context, userID id.UserID, notifType, title, message, link string) error
}

// DisputeChecker reports whether a property has an open dispute; used to
// populate the has_active_dispute read-time flag.
type DisputeChecker interface {
	HasActive(ctx context.Context, propertyID id.PropertyID) (bool, error)
}

// DocumentSet is the slice of the document service the property module
// drives: blob cleanup on delete and the review state of the required set
// on resubmission.
type DocumentSet interface {
	PurgeProperty(ctx context.Context, propertyID id.PropertyID) error
	ReviewState(ctx context.Context, propertyID id.PropertyID) (workflow.DocumentReview, error)
}

// Service orchestrates the property registration lifecycle.
type Service struct {
	store     Store
	logger    *slog.Logger
	auditor   AuditPublisher
	notifier  Notifier
	disputes  DisputeChecker
	documents DocumentSet
	metrics   *propertymetrics.Metrics
	tracer    trace.Tracer
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

func WithDocumentSet(documents DocumentSet) Option {
	return func(s *Service) { s.documents = documents }
}

func WithDisputeChecker(disputes DisputeChecker) Option {
	return func(s *Service) { s.disputes = disputes }
}

// SetDisputeChecker wires the dispute service in after construction. The two
// services reference each other, so one side has to be attached late.
func (s *Service) SetDisputeChecker(disputes DisputeChecker) {
	s.disputes = disputes
}

// SetDocumentSet wires the document service in after construction, for the
// same circular-reference reason as SetDisputeChecker.
func (s *Service) SetDocumentSet(documents DocumentSet) {
	s.documents = documents
}

func WithMetrics(m *propertymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tracer: otel.Tracer("landreg/property"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// wrapStoreErr translates store sentinels into coded domain errors.
func wrapStoreErr(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "plot number must be unique")
	case errors.Is(err, sentinel.ErrVersionMismatch):
		return dErrors.New(dErrors.CodeConflict, "property was modified concurrently, retry")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation),
		dErrors.HasCode(err, dErrors.CodeBadRequest),
		dErrors.HasCode(err, dErrors.CodeForbidden),
		dErrors.HasCode(err, dErrors.CodeConflict):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "property store failure")
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
	if actor := requestcontext.UserID(ctx); !actor.IsNil() && actor != userID {
		event.ActorID = actor.String()
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

func (s *Service) observeTransition(event workflow.Event, status models.Status) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(event), string(status))
	}
}
