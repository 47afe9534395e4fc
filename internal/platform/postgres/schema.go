package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is applied at startup. Idempotent CREATE IF NOT EXISTS keeps dev and
// test bootstrap simple; production deployments run the same statements
// through their migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	full_name     TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS properties (
	id             UUID PRIMARY KEY,
	owner_id       UUID NOT NULL,
	plot_number    TEXT NOT NULL UNIQUE,
	property_type  TEXT NOT NULL,
	area_sqm       DOUBLE PRECISION NOT NULL,
	sub_city       TEXT NOT NULL,
	kebele         TEXT NOT NULL,
	street         TEXT NOT NULL DEFAULT '',
	house_number   TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	is_transferred BOOLEAN NOT NULL DEFAULT FALSE,
	version        BIGINT NOT NULL DEFAULT 1,
	registered_at  TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties (owner_id);

CREATE TABLE IF NOT EXISTS property_timeline (
	id          BIGSERIAL PRIMARY KEY,
	property_id UUID NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
	occurred_at TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	description TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timeline_property ON property_timeline (property_id);

CREATE TABLE IF NOT EXISTS documents (
	id           UUID PRIMARY KEY,
	property_id  UUID NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
	owner_id     UUID NOT NULL,
	doc_type     TEXT NOT NULL,
	file_name    TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size_bytes   BIGINT NOT NULL,
	status       TEXT NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	storage_key  TEXT NOT NULL,
	uploaded_at  TIMESTAMPTZ NOT NULL,
	reviewed_at  TIMESTAMPTZ,
	UNIQUE (property_id, doc_type)
);

CREATE TABLE IF NOT EXISTS payments (
	id             UUID PRIMARY KEY,
	property_id    UUID NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
	payer_id       UUID NOT NULL,
	amount         DOUBLE PRECISION NOT NULL,
	currency       TEXT NOT NULL,
	payment_type   TEXT NOT NULL,
	method         TEXT NOT NULL,
	status         TEXT NOT NULL,
	reference      TEXT NOT NULL,
	transaction_id TEXT NOT NULL DEFAULT '',
	receipt_number TEXT NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT '',
	refund_reason  TEXT NOT NULL DEFAULT '',
	initiated_at   TIMESTAMPTZ NOT NULL,
	paid_at        TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_payments_property ON payments (property_id);

CREATE TABLE IF NOT EXISTS disputes (
	id           UUID PRIMARY KEY,
	property_id  UUID NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
	claimant_id  UUID NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	dispute_type TEXT NOT NULL,
	priority     TEXT NOT NULL,
	status       TEXT NOT NULL,
	resolution   JSONB,
	timeline     JSONB NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_disputes_property ON disputes (property_id);

CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	user_id     UUID,
	subject     TEXT NOT NULL,
	action      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	actor_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_events (user_id);
CREATE INDEX IF NOT EXISTS idx_audit_occurred ON audit_events (occurred_at);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
