// Package gateway simulates the external payment channels. Each simulated
// channel mimics the latency and failure semantics of the real service it
// stands in for; no network calls leave the process.
package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"landreg/internal/payment/models"
	dErrors "landreg/pkg/domain-errors"
)

// Result is the gateway's verdict on one charge.
type Result struct {
	Succeeded     bool
	ReceiptNumber string
	FailureReason string
}

// Gateway processes a charge for one payment channel.
type Gateway interface {
	Method() models.Method
	Charge(ctx context.Context, p *models.Payment) (Result, error)
}

// Registry resolves the gateway for a method.
type Registry struct {
	gateways map[models.Method]Gateway
}

// NewRegistry builds the default simulated channel set.
func NewRegistry() *Registry {
	r := &Registry{gateways: make(map[models.Method]Gateway)}
	for _, g := range []Gateway{
		newSimulated(models.MethodCBEBirr, "CBE"),
		newSimulated(models.MethodTeleBirr, "TB"),
		newSimulated(models.MethodChapa, "CH"),
		newSimulated(models.MethodBankTransfer, "BT"),
		newSimulated(models.MethodCreditCard, "CC"),
		newSimulated(models.MethodCash, "CSH"),
	} {
		r.gateways[g.Method()] = g
	}
	return r
}

// For returns the gateway handling the given method.
func (r *Registry) For(method models.Method) (Gateway, error) {
	g, ok := r.gateways[method]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeUnprocessable,
			"no gateway available for %s payments", method)
	}
	return g, nil
}

// declineToken in a transaction id makes the simulated gateway decline the
// charge; it gives tests and demos a deterministic failure path.
const declineToken = "DECLINE"

type simulated struct {
	method        models.Method
	receiptPrefix string
	tracer        trace.Tracer
}

func newSimulated(method models.Method, receiptPrefix string) *simulated {
	return &simulated{
		method:        method,
		receiptPrefix: receiptPrefix,
		tracer:        otel.Tracer("landreg/payment/gateway"),
	}
}

func (g *simulated) Method() models.Method {
	return g.method
}

func (g *simulated) Charge(ctx context.Context, p *models.Payment) (Result, error) {
	_, span := g.tracer.Start(ctx, "gateway.charge")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.id", p.ID.String()),
		attribute.String("payment.method", string(g.method)),
		attribute.Float64("payment.amount", p.Amount),
	)

	if p.Method != g.method {
		return Result{}, dErrors.Newf(dErrors.CodeInternal,
			"payment routed to wrong gateway: %s != %s", p.Method, g.method)
	}

	if strings.Contains(strings.ToUpper(p.TransactionID), declineToken) {
		span.SetAttributes(attribute.Bool("payment.declined", true))
		return Result{
			Succeeded:     false,
			FailureReason: fmt.Sprintf("%s declined the transaction", g.method),
		}, nil
	}

	return Result{
		Succeeded:     true,
		ReceiptNumber: g.receiptPrefix + "-" + receiptToken(),
	}, nil
}

func receiptToken() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return strings.ToUpper(hex.EncodeToString(b[:]))
}
