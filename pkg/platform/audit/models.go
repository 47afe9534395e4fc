package audit

import (
	"time"

	id "landreg/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance for the land
	// registry: registrations, ownership decisions, payments. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: auth failures, forbidden role escalations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. Can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string // entity identifier the action applies to (property/payment/dispute id)
	Action    string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action when different from UserID,
	// e.g. an officer acting on a citizen's application.
	ActorID string
}

type AuditEvent string

const (
	// Property events
	EventPropertyRegistered    AuditEvent = "property_registered"
	EventPropertyUpdated       AuditEvent = "property_updated"
	EventPropertyDeleted       AuditEvent = "property_deleted"
	EventPropertyApproved      AuditEvent = "property_approved"
	EventPropertyRejected      AuditEvent = "property_rejected"
	EventPropertyUpdateNeeded  AuditEvent = "property_update_requested"
	EventPropertyResubmitted   AuditEvent = "property_resubmitted"
	EventPropertyReviewStarted AuditEvent = "property_review_started"

	// Document events
	EventDocumentUploaded AuditEvent = "document_uploaded"
	EventDocumentVerified AuditEvent = "document_verified"
	EventDocumentRejected AuditEvent = "document_rejected"

	// Payment events
	EventPaymentInitiated AuditEvent = "payment_initiated"
	EventPaymentCompleted AuditEvent = "payment_completed"
	EventPaymentFailed    AuditEvent = "payment_failed"
	EventPaymentRefunded  AuditEvent = "payment_refunded"

	// Dispute events
	EventDisputeSubmitted AuditEvent = "dispute_submitted"
	EventDisputeAdvanced  AuditEvent = "dispute_advanced"
	EventDisputeResolved  AuditEvent = "dispute_resolved"
	EventDisputeWithdrawn AuditEvent = "dispute_withdrawn"

	// User events
	EventUserCreated     AuditEvent = "user_created"
	EventUserRoleChanged AuditEvent = "user_role_changed"
	EventLoginFailed     AuditEvent = "login_failed"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - ownership and money move here
	EventPropertyRegistered: CategoryCompliance,
	EventPropertyApproved:   CategoryCompliance,
	EventPropertyRejected:   CategoryCompliance,
	EventPaymentCompleted:   CategoryCompliance,
	EventPaymentRefunded:    CategoryCompliance,
	EventDisputeResolved:    CategoryCompliance,
	EventUserCreated:        CategoryCompliance,
	EventUserRoleChanged:    CategoryCompliance,

	// Security events
	EventLoginFailed: CategorySecurity,

	// Operations events - routine workflow activity
	EventPropertyUpdated:       CategoryOperations,
	EventPropertyDeleted:       CategoryOperations,
	EventPropertyUpdateNeeded:  CategoryOperations,
	EventPropertyResubmitted:   CategoryOperations,
	EventPropertyReviewStarted: CategoryOperations,
	EventDocumentUploaded:      CategoryOperations,
	EventDocumentVerified:      CategoryOperations,
	EventDocumentRejected:      CategoryOperations,
	EventPaymentInitiated:      CategoryOperations,
	EventPaymentFailed:         CategoryOperations,
	EventDisputeSubmitted:      CategoryOperations,
	EventDisputeAdvanced:       CategoryOperations,
	EventDisputeWithdrawn:      CategoryOperations,
}

// CategoryOf returns the category for an event, defaulting to operations for
// unknown actions so nothing is silently dropped.
func CategoryOf(action AuditEvent) EventCategory {
	if cat, ok := eventCategories[action]; ok {
		return cat
	}
	return CategoryOperations
}
