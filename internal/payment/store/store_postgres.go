package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landreg/internal/payment/models"
	"landreg/internal/platform/postgres"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

// PostgresStore persists payments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, property_id, payer_id, amount, currency,
			payment_type, method, status, reference, transaction_id,
			receipt_number, failure_reason, refund_reason, initiated_at, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		uuid.UUID(p.ID), uuid.UUID(p.PropertyID), uuid.UUID(p.PayerID), p.Amount,
		string(p.Currency), string(p.Type), string(p.Method), string(p.Status),
		p.Reference, p.TransactionID, p.ReceiptNumber, p.FailureReason,
		p.RefundReason, p.InitiatedAt, p.PaidAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	return scanPayment(s.db.QueryRowContext(ctx,
		selectPayment+" WHERE id = $1", uuid.UUID(paymentID)))
}

func (s *PostgresStore) ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		selectPayment+" WHERE property_id = $1 ORDER BY initiated_at", uuid.UUID(propertyID))
	if err != nil {
		return nil, fmt.Errorf("list payments by property: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (s *PostgresStore) ListByPayer(ctx context.Context, payerID id.UserID) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		selectPayment+" WHERE payer_id = $1 ORDER BY initiated_at", uuid.UUID(payerID))
	if err != nil {
		return nil, fmt.Errorf("list payments by payer: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, selectPayment+" ORDER BY initiated_at")
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (s *PostgresStore) Execute(ctx context.Context, paymentID id.PaymentID,
	validate func(*models.Payment) error, mutate func(*models.Payment)) (*models.Payment, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin payment mutation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := scanPayment(tx.QueryRowContext(ctx,
		selectPayment+" WHERE id = $1 FOR UPDATE", uuid.UUID(paymentID)))
	if err != nil {
		return nil, err
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	_, err = tx.ExecContext(ctx, `
		UPDATE payments SET status=$2, receipt_number=$3, failure_reason=$4,
			refund_reason=$5, paid_at=$6
		WHERE id=$1`,
		uuid.UUID(p.ID), string(p.Status), p.ReceiptNumber, p.FailureReason,
		p.RefundReason, p.PaidAt)
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment mutation: %w", err)
	}
	return p, nil
}

const selectPayment = `
	SELECT id, property_id, payer_id, amount, currency, payment_type, method,
		status, reference, transaction_id, receipt_number, failure_reason,
		refund_reason, initiated_at, paid_at
	FROM payments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var (
		p           models.Payment
		paymentID   uuid.UUID
		propertyID  uuid.UUID
		payerID     uuid.UUID
		currency    string
		paymentType string
		method      string
		status      string
		paidAt      sql.NullTime
	)
	err := row.Scan(&paymentID, &propertyID, &payerID, &p.Amount, &currency,
		&paymentType, &method, &status, &p.Reference, &p.TransactionID,
		&p.ReceiptNumber, &p.FailureReason, &p.RefundReason, &p.InitiatedAt, &paidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.ID = id.PaymentID(paymentID)
	p.PropertyID = id.PropertyID(propertyID)
	p.PayerID = id.UserID(payerID)
	p.Currency = models.Currency(currency)
	p.Type = models.Type(paymentType)
	p.Method = models.Method(method)
	p.Status = models.Status(status)
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return &p, nil
}

func scanPayments(rows *sql.Rows) ([]*models.Payment, error) {
	var out []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}
