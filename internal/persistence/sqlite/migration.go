package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type migration struct {
	version    int
	name       string
	statements []string
}

// migrations are applied in order; append new versions, never edit applied ones.
var migrations = []migration{
	{
		version: 1,
		name:    "create_outreach_tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS companies (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				website TEXT NOT NULL,
				linkedin TEXT,
				crunchbase TEXT,
				company_size TEXT,
				decision TEXT,
				seq INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS people (
				id TEXT PRIMARY KEY,
				company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				position TEXT,
				linkedin TEXT,
				city TEXT,
				state TEXT,
				country TEXT,
				responded INTEGER NOT NULL DEFAULT 0,
				seq INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS email_attempts (
				id TEXT PRIMARY KEY,
				person_id TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
				company_id TEXT NOT NULL,
				attempt_number INTEGER NOT NULL,
				sent_date TEXT NOT NULL,
				subject TEXT NOT NULL,
				open_count INTEGER NOT NULL DEFAULT 0,
				click_count INTEGER NOT NULL DEFAULT 0,
				resume_open_count INTEGER NOT NULL DEFAULT 0,
				responded INTEGER NOT NULL DEFAULT 0,
				seq INTEGER NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_people_company ON people(company_id)`,
			`CREATE INDEX IF NOT EXISTS idx_email_attempts_person ON email_attempts(person_id)`,
		},
	},
}

// Migrate brings the schema up to the latest version.
func (s *SnapshotStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := s.withTransaction(ctx, func(tx *sql.Tx) error {
			for _, statement := range m.statements {
				if _, err := tx.ExecContext(ctx, statement); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
				m.version, m.name, formatTime(time.Now()),
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// SchemaVersion reports the highest applied migration, or 0 for an empty database.
func (s *SnapshotStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
