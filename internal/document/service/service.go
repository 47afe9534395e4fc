package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"landreg/internal/document/blob"
	documentmetrics "landreg/internal/document/metrics"
	"landreg/internal/document/models"
	propertymodels "landreg/internal/property/models"
	"landreg/internal/property/workflow"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/platform/sentinel"
)

// Store is the persistence port for document metadata.
type Store interface {
	Upsert(ctx context.Context, d *models.Document) (*models.Document, error)
	FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Document, error)
	Execute(ctx context.Context, documentID id.DocumentID,
		validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error)
	DeleteByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Document, error)
}

// PropertyWorkflow is the slice of the property service the document module
// drives: lookups for authorization and workflow events on review decisions.
type PropertyWorkflow interface {
	Get(ctx context.Context, propertyID id.PropertyID) (*propertymodels.Property, error)
	Find(ctx context.Context, propertyID id.PropertyID) (*propertymodels.Property, error)
	ApplyWorkflowEvent(ctx context.Context, propertyID id.PropertyID,
		event workflow.Event, docs workflow.DocumentReview, description string) (*propertymodels.Property, error)
}

// AuditPublisher records compliance-relevant actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier delivers user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, userID id.UserID, notifType, title, message, link string) error
}

// Service orchestrates document upload and officer review.
type Service struct {
	store      Store
	blobs      blob.Store
	properties PropertyWorkflow
	logger     *slog.Logger
	auditor    AuditPublisher
	notifier   Notifier
	metrics    *documentmetrics.Metrics
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

func WithMetrics(m *documentmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, blobs blob.Store, properties PropertyWorkflow, opts ...Option) *Service {
	s := &Service{
		store:      store,
		blobs:      blobs,
		properties: properties,
		tracer:     otel.Tracer("landreg/document"),
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
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "document store failure")
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

// reviewState summarizes the required slots of a property's documents for
// the workflow policy.
func reviewState(docs []*models.Document) workflow.DocumentReview {
	var review workflow.DocumentReview
	for _, d := range docs {
		if !d.Type.Required() {
			continue
		}
		review.Uploaded++
		switch d.Status {
		case models.StatusVerified:
			review.Verified++
		case models.StatusRejected:
			review.Rejected++
		}
	}
	return review
}
