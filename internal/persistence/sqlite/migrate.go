package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration pairs a monotonically increasing version with the statements
// that bring the schema to that version.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS event_owners (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS event_owner_authorizers (
				owner_id TEXT NOT NULL REFERENCES event_owners(id) ON DELETE CASCADE,
				authorizer_id TEXT NOT NULL,
				PRIMARY KEY (owner_id, authorizer_id)
			)`,
			`CREATE TABLE IF NOT EXISTS delegated_event_requests (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				instructions TEXT NOT NULL DEFAULT '',
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				location_name TEXT NOT NULL DEFAULT '',
				street_address TEXT NOT NULL DEFAULT '',
				city TEXT NOT NULL DEFAULT '',
				region TEXT NOT NULL DEFAULT '',
				postal_code TEXT NOT NULL DEFAULT '',
				country TEXT NOT NULL DEFAULT 'US',
				owner_id TEXT NOT NULL REFERENCES event_owners(id),
				requester_id TEXT NOT NULL,
				state TEXT NOT NULL DEFAULT 'requested',
				reason TEXT NOT NULL DEFAULT '',
				resolved_by TEXT NOT NULL DEFAULT '',
				resolved_at TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_delegated_requests_owner
				ON delegated_event_requests(owner_id, state)`,
			`CREATE TABLE IF NOT EXISTS posted_events (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				instructions TEXT NOT NULL DEFAULT '',
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				location_name TEXT NOT NULL DEFAULT '',
				street_address TEXT NOT NULL DEFAULT '',
				city TEXT NOT NULL DEFAULT '',
				region TEXT NOT NULL DEFAULT '',
				postal_code TEXT NOT NULL DEFAULT '',
				country TEXT NOT NULL DEFAULT 'US',
				video_join_url TEXT NOT NULL DEFAULT '',
				video_account TEXT NOT NULL DEFAULT '',
				advocacy_manage_url TEXT NOT NULL DEFAULT '',
				advocacy_share_url TEXT NOT NULL DEFAULT '',
				calendar_url TEXT NOT NULL DEFAULT '',
				creator_id TEXT NOT NULL DEFAULT '',
				approver_id TEXT NOT NULL DEFAULT '',
				owner_id TEXT,
				approval_reason TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				published_at TEXT NOT NULL
			)`,
		},
	},
}

// Migrate applies pending schema migrations. It is idempotent: versions
// already recorded in schema_migrations are skipped.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := cp.migrationApplied(ctx, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("sqlite: migration %d: %w", m.version, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
				return fmt.Errorf("sqlite: record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (cp *ConnectionPool) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := cp.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: check migration %d: %w", version, err)
	}
	return count > 0, nil
}
