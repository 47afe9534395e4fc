package handler

import (
	"strings"

	"landreg/internal/payment/models"
	"landreg/internal/payment/service"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// InitiateRequest is the HTTP request body for POST /payments.
type InitiateRequest struct {
	PropertyID    string `json:"property_id"`
	Method        string `json:"method"`
	PaymentType   string `json:"payment_type"`
	TransactionID string `json:"transaction_id"`

	parsedProperty id.PropertyID
}

// Validate validates and parses the request.
func (r *InitiateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	property, err := id.ParsePropertyID(strings.TrimSpace(r.PropertyID))
	if err != nil {
		return err
	}
	r.parsedProperty = property

	if !models.Method(r.Method).IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown payment method %q", r.Method)
	}
	if r.PaymentType == "" {
		r.PaymentType = string(models.TypeRegistrationFee)
	}
	if !models.Type(r.PaymentType).IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown payment type %q", r.PaymentType)
	}
	r.TransactionID = strings.TrimSpace(r.TransactionID)
	if models.Method(r.Method).RequiresTransactionID() && r.TransactionID == "" {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"transaction_id is required for %s payments", r.Method)
	}
	return nil
}

// ToInput converts the request into the service-layer input.
func (r *InitiateRequest) ToInput() service.InitiateInput {
	return service.InitiateInput{
		PropertyID:    r.parsedProperty,
		Method:        models.Method(r.Method),
		Type:          models.Type(r.PaymentType),
		TransactionID: r.TransactionID,
	}
}

// RefundRequest carries the officer reason for POST /payments/{id}/refund.
type RefundRequest struct {
	Reason string `json:"reason"`
}

func (r *RefundRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	return nil
}
