package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landreg/internal/platform/postgres"
	"landreg/internal/user/models"
	id "landreg/pkg/domain"
	"landreg/pkg/platform/sentinel"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, full_name, email, password_hash, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.UUID(u.ID), u.FullName, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		selectUser+" WHERE id = $1", uuid.UUID(userID)))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		selectUser+" WHERE email = $1", models.NormalizeEmail(email)))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUser+" ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateRole(ctx context.Context, userID id.UserID, role models.Role) (*models.User, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = $2 WHERE id = $1`, uuid.UUID(userID), string(role))
	if err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, userID)
}

const selectUser = `
	SELECT id, full_name, email, password_hash, role, created_at
	FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u      models.User
		userID uuid.UUID
		role   string
	)
	err := row.Scan(&userID, &u.FullName, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(userID)
	u.Role = models.Role(role)
	return &u, nil
}
