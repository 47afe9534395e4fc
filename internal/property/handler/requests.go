package handler

import (
	"strings"

	"landreg/internal/property/models"
	"landreg/internal/property/service"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /properties.
type RegisterRequest struct {
	PlotNumber   string          `json:"plot_number"`
	PropertyType string          `json:"property_type"`
	AreaSqm      float64         `json:"area_sqm"`
	Location     models.Location `json:"location"`
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.PlotNumber = strings.TrimSpace(r.PlotNumber)
	if r.PlotNumber == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "plot_number is required")
	}
	if !models.PropertyType(r.PropertyType).IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "property_type must be one of residential, commercial, industrial, agricultural")
	}
	if r.AreaSqm <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "area_sqm must be positive")
	}
	if strings.TrimSpace(r.Location.SubCity) == "" || strings.TrimSpace(r.Location.Kebele) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "location.sub_city and location.kebele are required")
	}
	return nil
}

// ToInput converts the request into the service-layer input.
func (r *RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		PlotNumber:   r.PlotNumber,
		PropertyType: models.PropertyType(r.PropertyType),
		AreaSqm:      r.AreaSqm,
		Location:     r.Location,
	}
}

// UpdateRequest is the HTTP request body for PATCH /properties/{id}.
// Absent fields are left unchanged.
type UpdateRequest struct {
	PlotNumber   string           `json:"plot_number,omitempty"`
	PropertyType string           `json:"property_type,omitempty"`
	AreaSqm      float64          `json:"area_sqm,omitempty"`
	Location     *models.Location `json:"location,omitempty"`
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.PlotNumber = strings.TrimSpace(r.PlotNumber)
	if r.PropertyType != "" && !models.PropertyType(r.PropertyType).IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown property_type")
	}
	if r.AreaSqm < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "area_sqm must be positive")
	}
	if r.Location != nil {
		if strings.TrimSpace(r.Location.SubCity) == "" || strings.TrimSpace(r.Location.Kebele) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "location.sub_city and location.kebele are required")
		}
	}
	return nil
}

func (r *UpdateRequest) ToInput() service.UpdateInput {
	return service.UpdateInput{
		PlotNumber:   r.PlotNumber,
		PropertyType: models.PropertyType(r.PropertyType),
		AreaSqm:      r.AreaSqm,
		Location:     r.Location,
	}
}

// DecisionRequest carries the officer reason for reject / request-update.
type DecisionRequest struct {
	Reason string `json:"reason"`
}

func (r *DecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	return nil
}

// TransferRequest is the HTTP request body for POST /properties/{id}/transfer.
type TransferRequest struct {
	NewOwnerID string `json:"new_owner_id"`

	parsedOwner id.UserID
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	owner, err := id.ParseUserID(strings.TrimSpace(r.NewOwnerID))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "new_owner_id must be a valid user id")
	}
	r.parsedOwner = owner
	return nil
}

// ParsedOwner returns the validated new owner id.
func (r *TransferRequest) ParsedOwner() id.UserID {
	return r.parsedOwner
}
