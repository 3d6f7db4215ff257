package migration

import (
	"context"

	"adherents/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the preference schema; statements are valid on
// both sqlite and postgres.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createMappingPreferencesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create mapping_preferences table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createMappingPreferencesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mapping_preferences (
			fingerprint VARCHAR(64) PRIMARY KEY,
			last_name TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			start_col TEXT NOT NULL DEFAULT '',
			end_col TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_mapping_preferences_updated_at
		ON mapping_preferences (updated_at)
	`)
	return err
}
