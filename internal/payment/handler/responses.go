package handler

import (
	"time"

	"landreg/internal/payment/models"
)

// PaymentResponse is the wire form of one payment.
type PaymentResponse struct {
	ID            string     `json:"id"`
	PropertyID    string     `json:"property_id"`
	PayerID       string     `json:"payer_id"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	PaymentType   string     `json:"payment_type"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	Reference     string     `json:"reference"`
	TransactionID string     `json:"transaction_id,omitempty"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	RefundReason  string     `json:"refund_reason,omitempty"`
	InitiatedAt   time.Time  `json:"initiated_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// FromPayment converts the model to its HTTP response.
func FromPayment(p *models.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID.String(),
		PropertyID:    p.PropertyID.String(),
		PayerID:       p.PayerID.String(),
		Amount:        p.Amount,
		Currency:      string(p.Currency),
		PaymentType:   string(p.Type),
		Method:        string(p.Method),
		Status:        string(p.Status),
		Reference:     p.Reference,
		TransactionID: p.TransactionID,
		ReceiptNumber: p.ReceiptNumber,
		FailureReason: p.FailureReason,
		RefundReason:  p.RefundReason,
		InitiatedAt:   p.InitiatedAt,
		PaidAt:        p.PaidAt,
	}
}

// ListResponse wraps a payment collection.
type ListResponse struct {
	Payments []*PaymentResponse `json:"payments"`
	Total    int                `json:"total"`
}

// FromPayments converts a slice of models.
func FromPayments(payments []*models.Payment) *ListResponse {
	out := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, FromPayment(p))
	}
	return &ListResponse{Payments: out, Total: len(out)}
}
