package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landreg/internal/platform/postgres"
	"landreg/internal/property/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
	"landreg/pkg/requestcontext"
)

// PostgresStore persists properties in PostgreSQL. Execute wraps validation
// and mutation in a transaction with SELECT ... FOR UPDATE, and the UPDATE
// carries a version guard so a write racing outside Execute cannot clobber.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Property) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create property: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO properties (id, owner_id, plot_number, property_type, area_sqm,
			sub_city, kebele, street, house_number, status, is_transferred, version,
			registered_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		uuid.UUID(p.ID), uuid.UUID(p.OwnerID), p.PlotNumber, string(p.PropertyType),
		p.AreaSqm, p.Location.SubCity, p.Location.Kebele, p.Location.Street,
		p.Location.HouseNumber, string(p.Status), p.IsTransferred, p.Version,
		p.RegisteredAt, p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert property: %w", err)
	}

	for _, event := range p.Timeline {
		if err := insertTimeline(ctx, tx, p.ID, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create property: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	p, err := scanProperty(s.db.QueryRowContext(ctx, selectProperty+" WHERE id = $1", uuid.UUID(propertyID)))
	if err != nil {
		return nil, err
	}
	timeline, err := s.loadTimeline(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	p.Timeline = timeline
	return p, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx, selectProperty+" WHERE owner_id = $1 ORDER BY registered_at", uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list properties by owner: %w", err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx, selectProperty+" ORDER BY registered_at")
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

func (s *PostgresStore) Execute(ctx context.Context, propertyID id.PropertyID,
	validate func(*models.Property) error, mutate func(*models.Property)) (*models.Property, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin property mutation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := scanProperty(tx.QueryRowContext(ctx, selectProperty+" WHERE id = $1 FOR UPDATE", uuid.UUID(propertyID)))
	if err != nil {
		return nil, err
	}
	timeline, err := loadTimelineTx(ctx, tx, propertyID)
	if err != nil {
		return nil, err
	}
	p.Timeline = timeline

	if err := validate(p); err != nil {
		return nil, err
	}

	priorVersion := p.Version
	priorTimeline := len(p.Timeline)
	mutate(p)
	p.Version = priorVersion + 1
	p.UpdatedAt = requestcontext.Now(ctx)

	res, err := tx.ExecContext(ctx, `
		UPDATE properties SET plot_number=$2, property_type=$3, area_sqm=$4,
			sub_city=$5, kebele=$6, street=$7, house_number=$8, status=$9,
			is_transferred=$10, version=$11, updated_at=$12
		WHERE id=$1 AND version=$13`,
		uuid.UUID(p.ID), p.PlotNumber, string(p.PropertyType), p.AreaSqm,
		p.Location.SubCity, p.Location.Kebele, p.Location.Street, p.Location.HouseNumber,
		string(p.Status), p.IsTransferred, p.Version, p.UpdatedAt, priorVersion,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("update property: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrVersionMismatch
	}

	for _, event := range p.Timeline[priorTimeline:] {
		if err := insertTimeline(ctx, tx, p.ID, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit property mutation: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, propertyID id.PropertyID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, uuid.UUID(propertyID))
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectProperty = `
	SELECT id, owner_id, plot_number, property_type, area_sqm, sub_city, kebele,
		street, house_number, status, is_transferred, version, registered_at, updated_at
	FROM properties`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var (
		p            models.Property
		propertyID   uuid.UUID
		ownerID      uuid.UUID
		propertyType string
		status       string
	)
	err := row.Scan(&propertyID, &ownerID, &p.PlotNumber, &propertyType, &p.AreaSqm,
		&p.Location.SubCity, &p.Location.Kebele, &p.Location.Street, &p.Location.HouseNumber,
		&status, &p.IsTransferred, &p.Version, &p.RegisteredAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan property: %w", err)
	}
	p.ID = id.PropertyID(propertyID)
	p.OwnerID = id.UserID(ownerID)
	p.PropertyType = models.PropertyType(propertyType)
	p.Status = models.Status(status)
	return &p, nil
}

func scanProperties(rows *sql.Rows) ([]*models.Property, error) {
	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) loadTimeline(ctx context.Context, propertyID id.PropertyID) ([]models.TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, action, description FROM property_timeline
		WHERE property_id = $1 ORDER BY id`, uuid.UUID(propertyID))
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	defer rows.Close()
	return scanTimeline(rows)
}

func loadTimelineTx(ctx context.Context, tx *sql.Tx, propertyID id.PropertyID) ([]models.TimelineEvent, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT occurred_at, action, description FROM property_timeline
		WHERE property_id = $1 ORDER BY id`, uuid.UUID(propertyID))
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	defer rows.Close()
	return scanTimeline(rows)
}

func scanTimeline(rows *sql.Rows) ([]models.TimelineEvent, error) {
	var out []models.TimelineEvent
	for rows.Next() {
		var event models.TimelineEvent
		if err := rows.Scan(&event.Date, &event.Action, &event.Description); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline: %w", err)
	}
	return out, nil
}

func insertTimeline(ctx context.Context, tx *sql.Tx, propertyID id.PropertyID, event models.TimelineEvent) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO property_timeline (property_id, occurred_at, action, description)
		VALUES ($1, $2, $3, $4)`,
		uuid.UUID(propertyID), event.Date, event.Action, event.Description)
	if err != nil {
		return fmt.Errorf("insert timeline event: %w", err)
	}
	return nil
}
