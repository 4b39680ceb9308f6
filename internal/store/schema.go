package store

import (
	"context"

	"github.com/cockroachdb/errors"
)

// schema is the idempotent DDL for all tables. Uniqueness rules the services
// rely on (one registration per student per event, one attendance row per
// registration, unique participant codes per event) live here so that racing
// requests are resolved by the database, not by application-level checks.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('student','coordinator','admin')),
		mobile        TEXT NOT NULL DEFAULT '',
		college       TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS colleges (
		id         UUID PRIMARY KEY,
		college_id TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL UNIQUE,
		slug       TEXT NOT NULL UNIQUE,
		theme      TEXT NOT NULL DEFAULT '#6366f1',
		logo_url   TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id             UUID PRIMARY KEY,
		event_id       TEXT NOT NULL UNIQUE,
		code           TEXT NOT NULL,
		main_event     TEXT,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		event_date     TIMESTAMPTZ NOT NULL,
		venue          TEXT NOT NULL DEFAULT '',
		coordinator_id UUID REFERENCES users(id),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id             UUID PRIMARY KEY,
		participant_id TEXT NOT NULL,
		student_id     UUID NOT NULL REFERENCES users(id),
		event_id       UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		enrolled_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (student_id, event_id),
		UNIQUE (event_id, participant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id              UUID PRIMARY KEY,
		registration_id UUID NOT NULL UNIQUE REFERENCES registrations(id) ON DELETE CASCADE,
		status          TEXT NOT NULL DEFAULT 'NotMarked' CHECK (status IN ('NotMarked','Present','Absent')),
		marked_at       TIMESTAMPTZ,
		marked_by       UUID REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS sequences (
		name  TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id         BIGSERIAL PRIMARY KEY,
		actor_id   TEXT NOT NULL,
		action     TEXT NOT NULL,
		entity_id  TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates missing tables. Safe to run on every boot.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure schema")
		}
	}
	return nil
}
