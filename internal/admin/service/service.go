package service

import (
	"context"
	"log/slog"

	disputemodels "landreg/internal/dispute/models"
	paymentmodels "landreg/internal/payment/models"
	propertymodels "landreg/internal/property/models"
	usermodels "landreg/internal/user/models"
	dErrors "landreg/pkg/domain-errors"
	audit "landreg/pkg/platform/audit"
)

// PropertySource supplies every application for aggregation.
type PropertySource interface {
	ListAll(ctx context.Context) ([]*propertymodels.Property, error)
}

// PaymentSource supplies every payment for aggregation.
type PaymentSource interface {
	ListAll(ctx context.Context) ([]*paymentmodels.Payment, error)
}

// DisputeSource supplies every dispute for aggregation.
type DisputeSource interface {
	ListAll(ctx context.Context) ([]*disputemodels.Dispute, error)
}

// UserSource supplies every account for aggregation.
type UserSource interface {
	List(ctx context.Context) ([]*usermodels.User, error)
}

// AuditSource answers /logs queries.
type AuditSource interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
}

// Service aggregates registry-wide reporting and audit queries for the
// admin surface.
type Service struct {
	properties PropertySource
	payments   PaymentSource
	disputes   DisputeSource
	users      UserSource
	logs       AuditSource
	logger     *slog.Logger
}

func New(properties PropertySource, payments PaymentSource, disputes DisputeSource,
	users UserSource, logs AuditSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		properties: properties,
		payments:   payments,
		disputes:   disputes,
		users:      users,
		logs:       logs,
		logger:     logger,
	}
}

// Logs returns audit events matching the filter.
func (s *Service) Logs(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	if s.logs == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "audit log store not configured")
	}
	events, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query audit log")
	}
	return events, nil
}

// Summary is the registry-wide report.
type Summary struct {
	Properties PropertySummary `json:"properties"`
	Payments   PaymentSummary  `json:"payments"`
	Disputes   DisputeSummary  `json:"disputes"`
	Users      UserSummary     `json:"users"`
}

type PropertySummary struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Approved int            `json:"approved"`
}

type PaymentSummary struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Refunded       int     `json:"refunded"`
	CollectedETB   float64 `json:"collected_etb"`
	RefundedETB    float64 `json:"refunded_etb"`
	OutstandingETB float64 `json:"outstanding_etb"`
}

type DisputeSummary struct {
	Total    int            `json:"total"`
	Open     int            `json:"open"`
	ByStatus map[string]int `json:"by_status"`
}

type UserSummary struct {
	Total  int            `json:"total"`
	ByRole map[string]int `json:"by_role"`
}

// Report builds the registry-wide summary.
func (s *Service) Report(ctx context.Context) (*Summary, error) {
	properties, err := s.properties.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	disputes, err := s.disputes.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Properties: PropertySummary{
			Total:    len(properties),
			ByStatus: make(map[string]int),
		},
		Payments: PaymentSummary{Total: len(payments)},
		Disputes: DisputeSummary{
			Total:    len(disputes),
			ByStatus: make(map[string]int),
		},
		Users: UserSummary{
			Total:  len(users),
			ByRole: make(map[string]int),
		},
	}

	for _, p := range properties {
		summary.Properties.ByStatus[string(p.Status)]++
		if p.Status == propertymodels.StatusApproved {
			summary.Properties.Approved++
		}
	}
	for _, p := range payments {
		switch p.Status {
		case paymentmodels.StatusCompleted:
			summary.Payments.Completed++
			summary.Payments.CollectedETB += p.Amount
		case paymentmodels.StatusRefunded:
			summary.Payments.Refunded++
			summary.Payments.RefundedETB += p.Amount
		case paymentmodels.StatusPending, paymentmodels.StatusProcessing:
			summary.Payments.OutstandingETB += p.Amount
		}
	}
	for _, d := range disputes {
		summary.Disputes.ByStatus[string(d.Status)]++
		if d.Status.Active() {
			summary.Disputes.Open++
		}
	}
	for _, u := range users {
		summary.Users.ByRole[string(u.Role)]++
	}
	return summary, nil
}
