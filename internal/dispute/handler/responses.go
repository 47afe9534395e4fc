package handler

import (
	"time"

	"landreg/internal/dispute/models"
)

// ResolutionResponse is the wire form of a closed dispute's disposition.
type ResolutionResponse struct {
	Decision       string    `json:"decision"`
	Notes          string    `json:"notes,omitempty"`
	ActionRequired string    `json:"action_required,omitempty"`
	ResolvedAt     time.Time `json:"resolved_at"`
}

// DisputeResponse is the wire form of one dispute.
type DisputeResponse struct {
	ID          string                 `json:"id"`
	PropertyID  string                 `json:"property_id"`
	ClaimantID  string                 `json:"claimant_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	DisputeType string                 `json:"dispute_type"`
	Priority    string                 `json:"priority"`
	Status      string                 `json:"status"`
	Resolution  *ResolutionResponse    `json:"resolution,omitempty"`
	Timeline    []models.TimelineEvent `json:"timeline"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// FromDispute converts the model to its HTTP response.
func FromDispute(d *models.Dispute) *DisputeResponse {
	resp := &DisputeResponse{
		ID:          d.ID.String(),
		PropertyID:  d.PropertyID.String(),
		ClaimantID:  d.ClaimantID.String(),
		Title:       d.Title,
		Description: d.Description,
		DisputeType: string(d.Type),
		Priority:    string(d.Priority),
		Status:      string(d.Status),
		Timeline:    d.Timeline,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Resolution != nil {
		resp.Resolution = &ResolutionResponse{
			Decision:       d.Resolution.Decision,
			Notes:          d.Resolution.Notes,
			ActionRequired: d.Resolution.ActionRequired,
			ResolvedAt:     d.Resolution.ResolvedAt,
		}
	}
	return resp
}

// ListResponse wraps a dispute collection.
type ListResponse struct {
	Disputes []*DisputeResponse `json:"disputes"`
	Total    int                `json:"total"`
}

// FromDisputes converts a slice of models.
func FromDisputes(disputes []*models.Dispute) *ListResponse {
	out := make([]*DisputeResponse, 0, len(disputes))
	for _, d := range disputes {
		out = append(out, FromDispute(d))
	}
	return &ListResponse{Disputes: out, Total: len(out)}
}
