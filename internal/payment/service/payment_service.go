package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"landreg/internal/payment/models"
	"landreg/internal/property/workflow"
	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
	"landreg/pkg/requestcontext"
)

// Quote computes the fee breakdown for paying the given charge on a
// property through the given channel.
func (s *Service) Quote(ctx context.Context, propertyID id.PropertyID,
	method models.Method, paymentType models.Type) (models.Quote, error) {

	property, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return models.Quote{}, err
	}
	return models.QuoteFee(property.PropertyType, property.AreaSqm, method, paymentType)
}

// InitiateInput carries the payer-supplied fields for a new payment.
type InitiateInput struct {
	PropertyID    id.PropertyID
	Method        models.Method
	Type          models.Type
	TransactionID string
}

// Initiate creates a pending payment for the quoted amount. Gated on the
// property workflow: the application must have validated documents (or be
// retrying after a failed charge).
func (s *Service) Initiate(ctx context.Context, payerID id.UserID, input InitiateInput) (*models.Payment, error) {
	property, err := s.properties.Get(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != payerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the property owner can pay its fees")
	}

	quote, err := models.QuoteFee(property.PropertyType, property.AreaSqm, input.Method, input.Type)
	if err != nil {
		return nil, err
	}

	// The workflow gate runs first so a payment row is never created for an
	// application that is not ready to pay.
	if _, err := s.properties.ApplyWorkflowEvent(ctx, input.PropertyID,
		workflow.EventPaymentInitiated, workflow.DocumentReview{},
		fmt.Sprintf("payment of %.2f ETB initiated via %s", quote.TotalAmount, input.Method)); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	payment, err := models.NewPayment(id.NewPaymentID(), input.PropertyID, payerID,
		quote.TotalAmount, quote.Currency, input.Type, input.Method,
		input.TransactionID, newReference(), now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, payment); err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.EventPaymentInitiated, payerID, payment.ID.String(), string(input.Method))
	if s.metrics != nil {
		s.metrics.IncrementInitiated(string(input.Method))
	}
	return payment, nil
}

// Confirm runs the charge through the simulated gateway. Success settles the
// payment and advances the property workflow; failure records the reason and
// leaves the application retryable.
func (s *Service) Confirm(ctx context.Context, payerID id.UserID, paymentID id.PaymentID) (*models.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "payment.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID.String()))

	payment, err := s.store.Execute(ctx, paymentID,
		func(p *models.Payment) error {
			if p.PayerID != payerID {
				return dErrors.New(dErrors.CodeForbidden, "not the payer of this payment")
			}
			// Processing is accepted so a confirm interrupted by a gateway
			// outage or a crash can be retried; BeginProcessing is then a
			// no-op and the charge runs again.
			if p.Status != models.StatusPending && p.Status != models.StatusProcessing {
				return dErrors.Newf(dErrors.CodeInvariantViolation,
					"payment in status %q cannot be processed", p.Status)
			}
			return nil
		},
		func(p *models.Payment) {
			_ = p.BeginProcessing()
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	gw, err := s.gateways.For(payment.Method)
	if err != nil {
		return nil, err
	}
	result, err := gw.Charge(ctx, payment)
	if err != nil {
		// Leave the payment in processing; a later confirm retries the charge.
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment gateway unavailable")
	}

	now := requestcontext.Now(ctx)
	settled, err := s.store.Execute(ctx, paymentID,
		func(p *models.Payment) error { return nil },
		func(p *models.Payment) {
			if result.Succeeded {
				_ = p.Complete(result.ReceiptNumber, now)
			} else {
				_ = p.Fail(result.FailureReason)
			}
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	span.SetAttributes(attribute.String("payment.status", string(settled.Status)))

	if result.Succeeded {
		if _, err := s.properties.ApplyWorkflowEvent(ctx, settled.PropertyID,
			workflow.EventPaymentCompleted, workflow.DocumentReview{},
			fmt.Sprintf("payment %s settled, receipt %s", settled.Reference, settled.ReceiptNumber)); err != nil {
			s.logger.ErrorContext(ctx, "payment settled but workflow transition failed",
				"payment_id", settled.ID, "property_id", settled.PropertyID, "error", err)
		}
		s.emit(ctx, audit.EventPaymentCompleted, settled.PayerID, settled.ID.String(), settled.ReceiptNumber)
	} else {
		s.emit(ctx, audit.EventPaymentFailed, settled.PayerID, settled.ID.String(), settled.FailureReason)
		s.notify(ctx, settled.PayerID, "payment", "Payment failed",
			fmt.Sprintf("Your %s payment failed: %s. You can retry with a new payment.",
				settled.Method, settled.FailureReason),
			"/properties/"+settled.PropertyID.String())
	}
	if s.metrics != nil {
		s.metrics.ObserveSettlement(string(settled.Method), settlementResult(settled), settled.Amount)
	}
	return settled, nil
}

func settlementResult(p *models.Payment) string {
	if p.Status == models.StatusCompleted {
		return "completed"
	}
	return "failed"
}

// Cancel withdraws a pending payment before it reaches the gateway.
func (s *Service) Cancel(ctx context.Context, payerID id.UserID, paymentID id.PaymentID) (*models.Payment, error) {
	payment, err := s.store.Execute(ctx, paymentID,
		func(p *models.Payment) error {
			if p.PayerID != payerID {
				return dErrors.New(dErrors.CodeForbidden, "not the payer of this payment")
			}
			if p.Status != models.StatusPending {
				return dErrors.Newf(dErrors.CodeInvariantViolation,
					"payment in status %q cannot be cancelled", p.Status)
			}
			return nil
		},
		func(p *models.Payment) {
			_ = p.Cancel()
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return payment, nil
}

// Refund reverses a completed payment. Officer-only; the owning application
// keeps its status, officers use request-update when the registration itself
// must be reworked.
func (s *Service) Refund(ctx context.Context, paymentID id.PaymentID, reason string) (*models.Payment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "refund reason is required")
	}
	payment, err := s.store.Execute(ctx, paymentID,
		func(p *models.Payment) error {
			if p.Status != models.StatusCompleted {
				return dErrors.Newf(dErrors.CodeInvariantViolation,
					"payment in status %q cannot be refunded", p.Status)
			}
			return nil
		},
		func(p *models.Payment) {
			_ = p.Refund(reason)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.EventPaymentRefunded, payment.PayerID, payment.ID.String(), reason)
	s.notify(ctx, payment.PayerID, "payment", "Payment refunded",
		fmt.Sprintf("Your payment %s was refunded: %s", payment.Reference, reason),
		"/properties/"+payment.PropertyID.String())
	return payment, nil
}

// Get returns one payment; the payer, officers, and admins may see it.
func (s *Service) Get(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	payment, err := s.store.FindByID(ctx, paymentID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := s.authorizeRead(ctx, payment.PayerID); err != nil {
		return nil, err
	}
	return payment, nil
}

// ListByProperty returns a property's payment history; visibility follows
// the property.
func (s *Service) ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Payment, error) {
	if _, err := s.properties.Get(ctx, propertyID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return payments, nil
}

// ListMine returns the requesting payer's payments.
func (s *Service) ListMine(ctx context.Context, payerID id.UserID) ([]*models.Payment, error) {
	payments, err := s.store.ListByPayer(ctx, payerID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return payments, nil
}

// ListAll returns every payment; reporting uses this.
func (s *Service) ListAll(ctx context.Context) ([]*models.Payment, error) {
	payments, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return payments, nil
}

func (s *Service) authorizeRead(ctx context.Context, payerID id.UserID) error {
	role := requestcontext.Role(ctx)
	if role == "officer" || role == "admin" {
		return nil
	}
	if requestcontext.UserID(ctx) != payerID {
		return dErrors.New(dErrors.CodeForbidden, "not the payer of this payment")
	}
	return nil
}

func newReference() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return "PAY-" + strings.ToUpper(hex.EncodeToString(b[:]))
}
