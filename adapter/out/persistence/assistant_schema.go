// Package persistence provides database adapters implementing outbound ports.
package persistence

import "github.com/jmoiron/sqlx"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	linkedin      TEXT NOT NULL DEFAULT '',
	github        TEXT NOT NULL DEFAULT '',
	google_token  BYTEA,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS email_responses (
	id                  UUID PRIMARY KEY,
	user_email          TEXT NOT NULL,
	email_id            TEXT NOT NULL,
	thread_id           TEXT NOT NULL DEFAULT '',
	sender              TEXT NOT NULL,
	subject             TEXT NOT NULL,
	original_body       TEXT NOT NULL DEFAULT '',
	response_type       TEXT NOT NULL,
	message             TEXT NOT NULL,
	reasoning           TEXT NOT NULL DEFAULT '',
	confidence          DOUBLE PRECISION NOT NULL DEFAULT 0,
	attachment_filename TEXT NOT NULL DEFAULT '',
	attachment_content  BYTEA,
	status              TEXT NOT NULL DEFAULT 'pending',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_email_responses_user_status
	ON email_responses (user_email, status, created_at DESC);
`

// Migrate creates the schema if it does not exist.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
