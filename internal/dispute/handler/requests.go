package handler

import (
	"strings"

	"landreg/internal/dispute/models"
	"landreg/internal/dispute/service"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /disputes.
type SubmitRequest struct {
	PropertyID  string `json:"property_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DisputeType string `json:"dispute_type"`
	Priority    string `json:"priority"`

	parsedProperty id.PropertyID
}

// Validate validates and parses the request.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	property, err := id.ParsePropertyID(strings.TrimSpace(r.PropertyID))
	if err != nil {
		return err
	}
	r.parsedProperty = property

	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "description is required")
	}
	if !models.Type(r.DisputeType).IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown dispute type %q", r.DisputeType)
	}
	if r.Priority != "" && !models.Priority(r.Priority).IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown priority %q", r.Priority)
	}
	return nil
}

// ToInput converts the request into the service-layer input.
func (r *SubmitRequest) ToInput() service.SubmitInput {
	return service.SubmitInput{
		PropertyID:  r.parsedProperty,
		Title:       r.Title,
		Description: r.Description,
		Type:        models.Type(r.DisputeType),
		Priority:    models.Priority(r.Priority),
	}
}

// WithdrawRequest carries the claimant reason for POST /disputes/{id}/withdraw.
type WithdrawRequest struct {
	Reason string `json:"reason"`
}

func (r *WithdrawRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	return nil
}

// AdvanceRequest carries an optional officer note for POST /disputes/{id}/advance.
type AdvanceRequest struct {
	Note string `json:"note"`
}

func (r *AdvanceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Note = strings.TrimSpace(r.Note)
	return nil
}

// ResolveRequest is the officer disposition for POST /disputes/{id}/resolve.
type ResolveRequest struct {
	Outcome        string `json:"outcome"`
	Decision       string `json:"decision"`
	Notes          string `json:"notes"`
	ActionRequired string `json:"action_required"`
}

func (r *ResolveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	outcome := models.Status(r.Outcome)
	if outcome != models.StatusResolved && outcome != models.StatusRejected {
		return dErrors.Newf(dErrors.CodeInvalidInput, "outcome must be resolved or rejected, got %q", r.Outcome)
	}
	r.Decision = strings.TrimSpace(r.Decision)
	if r.Decision == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "decision is required")
	}
	return nil
}

// ToInput converts the request into the service-layer input.
func (r *ResolveRequest) ToInput() service.ResolveInput {
	return service.ResolveInput{
		Outcome:        models.Status(r.Outcome),
		Decision:       r.Decision,
		Notes:          strings.TrimSpace(r.Notes),
		ActionRequired: strings.TrimSpace(r.ActionRequired),
	}
}
