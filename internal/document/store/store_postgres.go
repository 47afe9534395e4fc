package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landreg/internal/document/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

// PostgresStore persists document metadata in PostgreSQL; the bytes live in
// the blob store. The UNIQUE(property_id, doc_type) constraint backs the
// one-slot-per-type invariant.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, d *models.Document) (*models.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin document upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	replaced, err := scanDocument(tx.QueryRowContext(ctx,
		selectDocument+" WHERE property_id = $1 AND doc_type = $2 FOR UPDATE",
		uuid.UUID(d.PropertyID), string(d.Type)))
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`,
			uuid.UUID(replaced.ID)); err != nil {
			return nil, fmt.Errorf("replace document slot: %w", err)
		}
	case errors.Is(err, sentinel.ErrNotFound):
		replaced = nil
	default:
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, property_id, owner_id, doc_type, file_name,
			content_type, size_bytes, status, notes, storage_key, uploaded_at, reviewed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		uuid.UUID(d.ID), uuid.UUID(d.PropertyID), uuid.UUID(d.OwnerID), string(d.Type),
		d.FileName, d.ContentType, d.SizeBytes, string(d.Status), d.Notes,
		d.StorageKey, d.UploadedAt, d.ReviewedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit document upsert: %w", err)
	}
	return replaced, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx,
		selectDocument+" WHERE id = $1", uuid.UUID(documentID)))
}

func (s *PostgresStore) ListByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		selectDocument+" WHERE property_id = $1 ORDER BY uploaded_at", uuid.UUID(propertyID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (s *PostgresStore) Execute(ctx context.Context, documentID id.DocumentID,
	validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin document mutation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	d, err := scanDocument(tx.QueryRowContext(ctx,
		selectDocument+" WHERE id = $1 FOR UPDATE", uuid.UUID(documentID)))
	if err != nil {
		return nil, err
	}

	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET status=$2, notes=$3, reviewed_at=$4 WHERE id=$1`,
		uuid.UUID(d.ID), string(d.Status), d.Notes, d.ReviewedAt)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit document mutation: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) DeleteByProperty(ctx context.Context, propertyID id.PropertyID) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM documents WHERE property_id = $1
		RETURNING id, property_id, owner_id, doc_type, file_name, content_type,
			size_bytes, status, notes, storage_key, uploaded_at, reviewed_at`,
		uuid.UUID(propertyID))
	if err != nil {
		return nil, fmt.Errorf("delete documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

const selectDocument = `
	SELECT id, property_id, owner_id, doc_type, file_name, content_type,
		size_bytes, status, notes, storage_key, uploaded_at, reviewed_at
	FROM documents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d          models.Document
		documentID uuid.UUID
		propertyID uuid.UUID
		ownerID    uuid.UUID
		docType    string
		status     string
		reviewedAt sql.NullTime
	)
	err := row.Scan(&documentID, &propertyID, &ownerID, &docType, &d.FileName,
		&d.ContentType, &d.SizeBytes, &status, &d.Notes, &d.StorageKey,
		&d.UploadedAt, &reviewedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	d.ID = id.DocumentID(documentID)
	d.PropertyID = id.PropertyID(propertyID)
	d.OwnerID = id.UserID(ownerID)
	d.Type = models.Type(docType)
	d.Status = models.Status(status)
	if reviewedAt.Valid {
		d.ReviewedAt = &reviewedAt.Time
	}
	return &d, nil
}

func scanDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
