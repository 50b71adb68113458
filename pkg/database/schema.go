package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order; every statement is idempotent so EnsureSchema can run on each boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	roles TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS mark_records (
	id BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL,
	teacher_id BIGINT NOT NULL,
	term VARCHAR(64) NOT NULL DEFAULT '',
	year SMALLINT NOT NULL DEFAULT 0,
	total DOUBLE PRECISION NOT NULL DEFAULT 0,
	average DOUBLE PRECISION NOT NULL DEFAULT 0,
	grade VARCHAR(10) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_mark_records_student_created ON mark_records (student_id, created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS mark_record_subjects (
	record_id BIGINT NOT NULL REFERENCES mark_records(id),
	position INT NOT NULL,
	subject TEXT NOT NULL,
	mark DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (record_id, position),
	UNIQUE (record_id, subject)
)`,
	`CREATE TABLE IF NOT EXISTS parent_child_links (
	parent_id BIGINT PRIMARY KEY,
	child_ids BIGINT[] NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

// EnsureSchema creates the marks tables when missing. Existing data is never dropped.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
