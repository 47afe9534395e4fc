package models

import (
	"strings"
	"time"

	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// Status is the dispute lifecycle state. Progression runs
// submitted → under_review → investigation → mediation and ends in one of
// resolved, rejected, or withdrawn.
type Status string

const (
	StatusSubmitted     Status = "submitted"
	StatusUnderReview   Status = "under_review"
	StatusInvestigation Status = "investigation"
	StatusMediation     Status = "mediation"
	StatusResolved      Status = "resolved"
	StatusRejected      Status = "rejected"
	StatusWithdrawn     Status = "withdrawn"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusInvestigation,
		StatusMediation, StatusResolved, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// Terminal reports whether the dispute admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusResolved, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// Active reports whether the dispute should still flag its property.
func (s Status) Active() bool {
	return s.IsValid() && !s.Terminal()
}

// next returns the single forward step in the review chain, or "" when the
// chain has run out and the reviewer must resolve or reject instead.
func (s Status) next() Status {
	switch s {
	case StatusSubmitted:
		return StatusUnderReview
	case StatusUnderReview:
		return StatusInvestigation
	case StatusInvestigation:
		return StatusMediation
	}
	return ""
}

// Withdrawable reports whether the claimant may still pull the dispute back.
// Once mediation starts the parties are committed to an outcome.
func (s Status) Withdrawable() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusInvestigation:
		return true
	}
	return false
}

// Priority ranks how urgently a dispute needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Type classifies the nature of the claim.
type Type string

const (
	TypeOwnership Type = "ownership"
	TypeBoundary  Type = "boundary"
	TypeFraud     Type = "fraud"
	TypeInherited Type = "inheritance"
	TypeOther     Type = "other"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeOwnership, TypeBoundary, TypeFraud, TypeInherited, TypeOther:
		return true
	}
	return false
}

// Resolution is the reviewer's final disposition.
type Resolution struct {
	Decision       string    `json:"decision"`
	Notes          string    `json:"notes,omitempty"`
	ActionRequired string    `json:"action_required,omitempty"`
	ResolvedAt     time.Time `json:"resolved_at"`
}

// TimelineEvent is one append-only entry in the dispute's history.
type TimelineEvent struct {
	Date        time.Time `json:"date"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
}

// Dispute is a claim raised against a property, moving through its own
// lifecycle independently of the property's registration workflow.
type Dispute struct {
	ID          id.DisputeID    `json:"id"`
	PropertyID  id.PropertyID   `json:"property_id"`
	ClaimantID  id.UserID       `json:"claimant_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Type        Type            `json:"dispute_type"`
	Priority    Priority        `json:"priority"`
	Status      Status          `json:"status"`
	Resolution  *Resolution     `json:"resolution,omitempty"`
	Timeline    []TimelineEvent `json:"timeline"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewDispute validates input and constructs a submitted dispute.
func NewDispute(disputeID id.DisputeID, propertyID id.PropertyID, claimantID id.UserID,
	title, description string, disputeType Type, priority Priority, now time.Time) (*Dispute, error) {

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if description == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "description is required")
	}
	if !disputeType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown dispute type %q", disputeType)
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown priority %q", priority)
	}

	d := &Dispute{
		ID:          disputeID,
		PropertyID:  propertyID,
		ClaimantID:  claimantID,
		Title:       title,
		Description: description,
		Type:        disputeType,
		Priority:    priority,
		Status:      StatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	d.AppendTimeline(now, "submitted", "dispute filed")
	return d, nil
}

// AppendTimeline records one history entry and refreshes UpdatedAt.
func (d *Dispute) AppendTimeline(now time.Time, action, description string) {
	d.Timeline = append(d.Timeline, TimelineEvent{
		Date:        now,
		Action:      action,
		Description: description,
	})
	d.UpdatedAt = now
}

// Advance moves the dispute one step along the review chain.
func (d *Dispute) Advance(now time.Time, note string) error {
	next := d.Status.next()
	if next == "" {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"dispute in status %q cannot advance further", d.Status)
	}
	d.Status = next
	d.AppendTimeline(now, string(next), note)
	return nil
}

// Resolve closes the dispute with the reviewer's disposition. outcome must
// be resolved or rejected.
func (d *Dispute) Resolve(now time.Time, outcome Status, decision, notes, actionRequired string) error {
	if outcome != StatusResolved && outcome != StatusRejected {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid resolution outcome %q", outcome)
	}
	if d.Status.Terminal() {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"dispute in status %q is already closed", d.Status)
	}
	if strings.TrimSpace(decision) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "resolution decision is required")
	}
	d.Status = outcome
	d.Resolution = &Resolution{
		Decision:       strings.TrimSpace(decision),
		Notes:          strings.TrimSpace(notes),
		ActionRequired: strings.TrimSpace(actionRequired),
		ResolvedAt:     now,
	}
	d.AppendTimeline(now, string(outcome), d.Resolution.Decision)
	return nil
}

// Withdraw lets the claimant pull the dispute back before mediation begins.
// A reason is always required; a withdrawn dispute stays withdrawn.
func (d *Dispute) Withdraw(now time.Time, reason string) error {
	if !d.Status.Withdrawable() {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"dispute in status %q cannot be withdrawn", d.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "withdrawal reason is required")
	}
	d.Status = StatusWithdrawn
	d.AppendTimeline(now, "withdrawn", strings.TrimSpace(reason))
	return nil
}
