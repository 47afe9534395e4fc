package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	id "landreg/pkg/domain"
	audit "landreg/pkg/platform/audit"
	txcontext "landreg/pkg/platform/tx"
)

// Store persists audit events in PostgreSQL. Writes participate in an
// ambient transaction when one is present in the context, so a workflow
// mutation and its audit trail commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var userID any
	if !event.UserID.IsNil() {
		userID = uuid.UUID(event.UserID)
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_events (id, category, occurred_at, user_id, subject, action, reason, request_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), string(event.Category), event.Timestamp, userID,
		event.Subject, event.Action, event.Reason, event.RequestID, event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT category, occurred_at, user_id, subject, action, reason, request_id, actor_id
		FROM audit_events WHERE user_id = $1 ORDER BY occurred_at`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events by user: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) List(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	query := `
		SELECT category, occurred_at, user_id, subject, action, reason, request_id, actor_id
		FROM audit_events WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Category != "" {
		query += " AND category = " + arg(string(filter.Category))
	}
	if filter.Action != "" {
		query += " AND action = " + arg(filter.Action)
	}
	if filter.Subject != "" {
		query += " AND subject = " + arg(filter.Subject)
	}
	if !filter.Since.IsZero() {
		query += " AND occurred_at >= " + arg(filter.Since)
	}
	if !filter.Until.IsZero() {
		query += " AND occurred_at <= " + arg(filter.Until)
	}
	query += " ORDER BY occurred_at"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event  audit.Event
			userID uuid.NullUUID
		)
		if err := rows.Scan(&event.Category, &event.Timestamp, &userID,
			&event.Subject, &event.Action, &event.Reason, &event.RequestID, &event.ActorID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if userID.Valid {
			event.UserID = id.UserID(userID.UUID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
