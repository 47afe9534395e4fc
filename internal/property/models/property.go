package models

import (
	"strings"
	"time"

	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// Status is the registration application lifecycle state. The string values
// are wire-level contract with the frontend and must not change.
type Status string

const (
	StatusPending            Status = "pending"
	StatusDocumentsPending   Status = "documents_pending"
	StatusDocumentsValidated Status = "documents_validated"
	StatusPaymentPending     Status = "payment_pending"
	StatusPaymentCompleted   Status = "payment_completed"
	StatusUnderReview        Status = "under_review"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusNeedsUpdate        Status = "needs_update"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDocumentsPending, StatusDocumentsValidated,
		StatusPaymentPending, StatusPaymentCompleted, StatusUnderReview,
		StatusApproved, StatusRejected, StatusNeedsUpdate:
		return true
	}
	return false
}

// IsTerminal reports whether the application has reached a final decision.
// Rejected applications may still re-enter the flow via needs_update.
func (s Status) IsTerminal() bool {
	return s == StatusApproved
}

// Editable reports whether the owner may edit or delete the application.
// Once the application leaves this set it is read-only to its owner except
// for document re-upload after rejection.
func (s Status) Editable() bool {
	switch s {
	case StatusPending, StatusRejected, StatusNeedsUpdate:
		return true
	}
	return false
}

// PropertyType classifies the registered land use.
type PropertyType string

const (
	TypeResidential  PropertyType = "residential"
	TypeCommercial   PropertyType = "commercial"
	TypeIndustrial   PropertyType = "industrial"
	TypeAgricultural PropertyType = "agricultural"
)

func (t PropertyType) IsValid() bool {
	switch t {
	case TypeResidential, TypeCommercial, TypeIndustrial, TypeAgricultural:
		return true
	}
	return false
}

// Location is the Ethiopian administrative address of a plot.
type Location struct {
	SubCity     string `json:"sub_city"`
	Kebele      string `json:"kebele"`
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
}

// TimelineEvent is one entry in the append-only application history.
type TimelineEvent struct {
	Date        time.Time `json:"date"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
}

// Property is the aggregate root for one registration application.
//
// Invariants:
//   - PlotNumber is non-empty and unique per jurisdiction
//   - AreaSqm is positive
//   - Status is always a member of the Status enum
//   - Timeline is append-only
//   - Version increases by one on every mutation; stores reject stale writes
//
// The derived flags (DocumentsValidated, PaymentCompleted) are projections of
// Status kept on the wire for the frontend's gating checks.
type Property struct {
	ID            id.PropertyID `json:"id"`
	OwnerID       id.UserID     `json:"owner_id"`
	PlotNumber    string        `json:"plot_number"`
	PropertyType  PropertyType  `json:"property_type"`
	AreaSqm       float64       `json:"area_sqm"`
	Location      Location      `json:"location"`
	Status        Status        `json:"status"`
	IsTransferred bool          `json:"is_transferred"`
	Version       int64         `json:"version"`
	RegisteredAt  time.Time     `json:"registration_date"`
	UpdatedAt     time.Time     `json:"last_updated"`

	Timeline []TimelineEvent `json:"timeline,omitempty"`

	// HasActiveDispute is computed at read time from the dispute store.
	HasActiveDispute bool `json:"has_active_dispute"`
}

// DocumentsValidated reports whether the application passed document review.
func (p *Property) DocumentsValidated() bool {
	switch p.Status {
	case StatusDocumentsValidated, StatusPaymentPending, StatusPaymentCompleted,
		StatusUnderReview, StatusApproved:
		return true
	}
	return false
}

// PaymentCompleted reports whether the registration fee has been settled.
func (p *Property) PaymentCompleted() bool {
	switch p.Status {
	case StatusPaymentCompleted, StatusUnderReview, StatusApproved:
		return true
	}
	return false
}

// NewProperty validates input and constructs a pending application.
func NewProperty(propertyID id.PropertyID, ownerID id.UserID, plotNumber string,
	propertyType PropertyType, areaSqm float64, loc Location, now time.Time) (*Property, error) {

	plotNumber = strings.TrimSpace(plotNumber)
	if plotNumber == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "plot number is required")
	}
	if !propertyType.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown property type")
	}
	if areaSqm <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "area must be positive")
	}
	if strings.TrimSpace(loc.SubCity) == "" || strings.TrimSpace(loc.Kebele) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "sub-city and kebele are required")
	}
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner is required")
	}

	return &Property{
		ID:           propertyID,
		OwnerID:      ownerID,
		PlotNumber:   plotNumber,
		PropertyType: propertyType,
		AreaSqm:      areaSqm,
		Location:     loc,
		Status:       StatusPending,
		Version:      1,
		RegisteredAt: now,
		UpdatedAt:    now,
		Timeline: []TimelineEvent{{
			Date:        now,
			Action:      "registered",
			Description: "registration application submitted",
		}},
	}, nil
}

// CanEdit checks the owner-mutation invariant.
func (p *Property) CanEdit() error {
	if !p.Status.Editable() {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"property in status %q is read-only", p.Status)
	}
	return nil
}

// CanDelete mirrors CanEdit; deletion shares the same gate.
func (p *Property) CanDelete() error {
	return p.CanEdit()
}

// AppendTimeline records an application history entry.
func (p *Property) AppendTimeline(now time.Time, action, description string) {
	p.Timeline = append(p.Timeline, TimelineEvent{
		Date:        now,
		Action:      action,
		Description: description,
	})
}
