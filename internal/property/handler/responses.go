package handler

import (
	"time"

	"landreg/internal/property/models"
)

// PropertyResponse is the wire form of one registration application.
type PropertyResponse struct {
	ID                 string                 `json:"id"`
	OwnerID            string                 `json:"owner_id"`
	PlotNumber         string                 `json:"plot_number"`
	PropertyType       string                 `json:"property_type"`
	AreaSqm            float64                `json:"area_sqm"`
	Location           models.Location        `json:"location"`
	Status             string                 `json:"status"`
	DocumentsValidated bool                   `json:"documents_validated"`
	PaymentCompleted   bool                   `json:"payment_completed"`
	IsTransferred      bool                   `json:"is_transferred"`
	HasActiveDispute   bool                   `json:"has_active_dispute"`
	Version            int64                  `json:"version"`
	RegistrationDate   time.Time              `json:"registration_date"`
	LastUpdated        time.Time              `json:"last_updated"`
	Timeline           []models.TimelineEvent `json:"timeline,omitempty"`
}

// FromProperty converts the aggregate to its HTTP response.
func FromProperty(p *models.Property) *PropertyResponse {
	return &PropertyResponse{
		ID:                 p.ID.String(),
		OwnerID:            p.OwnerID.String(),
		PlotNumber:         p.PlotNumber,
		PropertyType:       string(p.PropertyType),
		AreaSqm:            p.AreaSqm,
		Location:           p.Location,
		Status:             string(p.Status),
		DocumentsValidated: p.DocumentsValidated(),
		PaymentCompleted:   p.PaymentCompleted(),
		IsTransferred:      p.IsTransferred,
		HasActiveDispute:   p.HasActiveDispute,
		Version:            p.Version,
		RegistrationDate:   p.RegisteredAt,
		LastUpdated:        p.UpdatedAt,
		Timeline:           p.Timeline,
	}
}

// ListResponse wraps a collection of applications.
type ListResponse struct {
	Properties []*PropertyResponse `json:"properties"`
	Total      int                 `json:"total"`
}

// FromProperties converts a slice of aggregates.
func FromProperties(properties []*models.Property) *ListResponse {
	out := make([]*PropertyResponse, 0, len(properties))
	for _, p := range properties {
		out = append(out, FromProperty(p))
	}
	return &ListResponse{Properties: out, Total: len(out)}
}
