package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landreg/internal/dispute/models"
	"landreg/internal/platform/postgres"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

// PostgresStore persists disputes in PostgreSQL. Resolution and timeline are
// stored as JSONB documents alongside the scalar columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, d *models.Dispute) error {
	timeline, resolution, err := encodeJSONColumns(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO disputes (id, property_id, claimant_id, title, description,
			dispute_type, priority, status, resolution, timeline, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		uuid.UUID(d.ID), uuid.UUID(d.PropertyID), uuid.UUID(d.ClaimantID),
		d.Title, d.Description, string(d.Type), string(d.Priority),
		string(d.Status), resolution, timeline, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert dispute: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, disputeID id.DisputeID) (*models.Dispute, error) {
	return scanDispute(s.db.QueryRowContext(ctx,
		selectDispute+" WHERE id = $1", uuid.UUID(disputeID)))
}

func (s *PostgresStore) ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Dispute, error) {
	rows, err := s.db.QueryContext(ctx,
		selectDispute+" WHERE property_id = $1 ORDER BY created_at", uuid.UUID(propertyID))
	if err != nil {
		return nil, fmt.Errorf("list disputes by property: %w", err)
	}
	defer rows.Close()
	return scanDisputes(rows)
}

func (s *PostgresStore) ListByClaimant(ctx context.Context, claimantID id.UserID) ([]*models.Dispute, error) {
	rows, err := s.db.QueryContext(ctx,
		selectDispute+" WHERE claimant_id = $1 ORDER BY created_at", uuid.UUID(claimantID))
	if err != nil {
		return nil, fmt.Errorf("list disputes by claimant: %w", err)
	}
	defer rows.Close()
	return scanDisputes(rows)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Dispute, error) {
	rows, err := s.db.QueryContext(ctx, selectDispute+" ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()
	return scanDisputes(rows)
}

func (s *PostgresStore) CountActiveByProperty(ctx context.Context, propertyID id.PropertyID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM disputes
		WHERE property_id = $1 AND status NOT IN ('resolved','rejected','withdrawn')`,
		uuid.UUID(propertyID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active disputes: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Execute(ctx context.Context, disputeID id.DisputeID,
	validate func(*models.Dispute) error, mutate func(*models.Dispute)) (*models.Dispute, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin dispute mutation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	d, err := scanDispute(tx.QueryRowContext(ctx,
		selectDispute+" WHERE id = $1 FOR UPDATE", uuid.UUID(disputeID)))
	if err != nil {
		return nil, err
	}

	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)

	timeline, resolution, err := encodeJSONColumns(d)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE disputes SET status=$2, priority=$3, resolution=$4, timeline=$5, updated_at=$6
		WHERE id=$1`,
		uuid.UUID(d.ID), string(d.Status), string(d.Priority), resolution,
		timeline, d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update dispute: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dispute mutation: %w", err)
	}
	return d, nil
}

const selectDispute = `
	SELECT id, property_id, claimant_id, title, description, dispute_type,
		priority, status, resolution, timeline, created_at, updated_at
	FROM disputes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispute(row rowScanner) (*models.Dispute, error) {
	var (
		d          models.Dispute
		disputeID  uuid.UUID
		propertyID uuid.UUID
		claimantID uuid.UUID
		typ        string
		priority   string
		status     string
		resolution []byte
		timeline   []byte
	)
	err := row.Scan(&disputeID, &propertyID, &claimantID, &d.Title,
		&d.Description, &typ, &priority, &status, &resolution, &timeline,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan dispute: %w", err)
	}
	d.ID = id.DisputeID(disputeID)
	d.PropertyID = id.PropertyID(propertyID)
	d.ClaimantID = id.UserID(claimantID)
	d.Type = models.Type(typ)
	d.Priority = models.Priority(priority)
	d.Status = models.Status(status)
	if len(resolution) > 0 {
		if err := json.Unmarshal(resolution, &d.Resolution); err != nil {
			return nil, fmt.Errorf("decode dispute resolution: %w", err)
		}
	}
	if len(timeline) > 0 {
		if err := json.Unmarshal(timeline, &d.Timeline); err != nil {
			return nil, fmt.Errorf("decode dispute timeline: %w", err)
		}
	}
	return &d, nil
}

func scanDisputes(rows *sql.Rows) ([]*models.Dispute, error) {
	var out []*models.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate disputes: %w", err)
	}
	return out, nil
}

func encodeJSONColumns(d *models.Dispute) (timeline []byte, resolution any, err error) {
	timeline, err = json.Marshal(d.Timeline)
	if err != nil {
		return nil, nil, fmt.Errorf("encode dispute timeline: %w", err)
	}
	if d.Resolution == nil {
		return timeline, nil, nil
	}
	encoded, err := json.Marshal(d.Resolution)
	if err != nil {
		return nil, nil, fmt.Errorf("encode dispute resolution: %w", err)
	}
	return timeline, encoded, nil
}
