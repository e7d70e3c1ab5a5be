package store

import (
	"context"
	"database/sql"
)

// The unique index on sessions.token and the composite unique constraint on
// claims are load-bearing: the issuer's collision retry and the redemption
// engine's exactly-once guarantee both depend on them. Claims carry no
// foreign key to sessions so the ledger survives the reaper.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id         UUID PRIMARY KEY,
		token      TEXT NOT NULL,
		issuer_id  TEXT NOT NULL,
		unit_code  TEXT NOT NULL,
		unit_name  TEXT NOT NULL,
		label      TEXT NOT NULL DEFAULT 'session',
		location   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL,
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		CONSTRAINT sessions_token_key UNIQUE (token),
		CONSTRAINT sessions_expiry_after_creation CHECK (expires_at > created_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_issuer ON sessions (issuer_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS claims (
		id         UUID PRIMARY KEY,
		subject_id TEXT NOT NULL,
		session_id UUID NOT NULL,
		unit_code  TEXT NOT NULL,
		unit_name  TEXT NOT NULL,
		issuer_id  TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		scanned_at TIMESTAMPTZ NOT NULL,
		status     TEXT NOT NULL DEFAULT 'present'
			CHECK (status IN ('present', 'late', 'absent')),
		verified   BOOLEAN NOT NULL DEFAULT TRUE,
		CONSTRAINT claims_subject_session_key UNIQUE (subject_id, session_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_subject_unit ON claims (subject_id, unit_code)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_issuer ON claims (issuer_id, scanned_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_scanned ON claims (scanned_at DESC)`,
}

// Migrate applies the schema. Statements are idempotent so this is safe to
// run on every boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
