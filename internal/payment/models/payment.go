package models

import (
	"strings"
	"time"

	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// Method is the payment channel. A closed enum: every switch over Method
// handles all members so an unknown channel is a compile-time review item,
// not a runtime surprise.
type Method string

const (
	MethodCBEBirr      Method = "cbe_birr"
	MethodTeleBirr     Method = "telebirr"
	MethodChapa        Method = "chapa"
	MethodBankTransfer Method = "bank_transfer"
	MethodCreditCard   Method = "credit_card"
	MethodCash         Method = "cash"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodCBEBirr, MethodTeleBirr, MethodChapa, MethodBankTransfer,
		MethodCreditCard, MethodCash:
		return true
	}
	return false
}

// RequiresTransactionID reports whether the payer must supply an external
// transaction reference. Cash is recorded at the counter without one.
func (m Method) RequiresTransactionID() bool {
	return m != MethodCash
}

// Status is the payment lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed,
		StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further gateway activity is possible.
// Completed is terminal for the gateway but still refundable.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// Currency of a payment.
type Currency string

const (
	CurrencyETB Currency = "ETB"
	CurrencyUSD Currency = "USD"
)

func (c Currency) IsValid() bool {
	return c == CurrencyETB || c == CurrencyUSD
}

// Type classifies what the payment settles.
type Type string

const (
	TypeRegistrationFee Type = "registration_fee"
	TypeTax             Type = "tax"
	TypeTransferFee     Type = "transfer_fee"
	TypeOther           Type = "other"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeRegistrationFee, TypeTax, TypeTransferFee, TypeOther:
		return true
	}
	return false
}

// Payment is one fee transaction against a registration application.
//
// Invariants:
//   - Amount is positive
//   - Non-cash methods carry a TransactionID
//   - A completed payment is immutable except for refund
type Payment struct {
	ID            id.PaymentID  `json:"id"`
	PropertyID    id.PropertyID `json:"property_id"`
	PayerID       id.UserID     `json:"payer_id"`
	Amount        float64       `json:"amount"`
	Currency      Currency      `json:"currency"`
	Type          Type          `json:"payment_type"`
	Method        Method        `json:"method"`
	Status        Status        `json:"status"`
	Reference     string        `json:"reference"`
	TransactionID string        `json:"transaction_id,omitempty"`
	ReceiptNumber string        `json:"receipt_number,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	RefundReason  string        `json:"refund_reason,omitempty"`
	InitiatedAt   time.Time     `json:"initiated_at"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

// NewPayment validates input and constructs a pending payment.
func NewPayment(paymentID id.PaymentID, propertyID id.PropertyID, payerID id.UserID,
	amount float64, currency Currency, paymentType Type, method Method,
	transactionID, reference string, now time.Time) (*Payment, error) {

	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	if !currency.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown currency %q", currency)
	}
	if !paymentType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown payment type %q", paymentType)
	}
	if !method.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown payment method %q", method)
	}
	transactionID = strings.TrimSpace(transactionID)
	if method.RequiresTransactionID() && transactionID == "" {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"transaction_id is required for %s payments", method)
	}

	return &Payment{
		ID:            paymentID,
		PropertyID:    propertyID,
		PayerID:       payerID,
		Amount:        amount,
		Currency:      currency,
		Type:          paymentType,
		Method:        method,
		Status:        StatusPending,
		Reference:     reference,
		TransactionID: transactionID,
		InitiatedAt:   now,
	}, nil
}

// BeginProcessing moves pending into the gateway's hands.
func (p *Payment) BeginProcessing() error {
	if p.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"payment in status %q cannot be processed", p.Status)
	}
	p.Status = StatusProcessing
	return nil
}

// Complete records a successful gateway confirmation.
func (p *Payment) Complete(receiptNumber string, now time.Time) error {
	if p.Status != StatusProcessing {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"payment in status %q cannot be completed", p.Status)
	}
	p.Status = StatusCompleted
	p.ReceiptNumber = receiptNumber
	p.FailureReason = ""
	p.PaidAt = &now
	return nil
}

// Fail records a gateway decline; the payer may retry with a new payment.
func (p *Payment) Fail(reason string) error {
	if p.Status != StatusProcessing {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"payment in status %q cannot fail", p.Status)
	}
	p.Status = StatusFailed
	p.FailureReason = reason
	return nil
}

// Cancel withdraws a payment the gateway has not yet processed.
func (p *Payment) Cancel() error {
	if p.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"payment in status %q cannot be cancelled", p.Status)
	}
	p.Status = StatusCancelled
	return nil
}

// Refund reverses a completed payment. The only mutation allowed after
// completion.
func (p *Payment) Refund(reason string) error {
	if p.Status != StatusCompleted {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"payment in status %q cannot be refunded", p.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "refund reason is required")
	}
	p.Status = StatusRefunded
	p.RefundReason = reason
	return nil
}
