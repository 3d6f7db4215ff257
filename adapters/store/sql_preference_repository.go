package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"adherents/domain/core"
	"adherents/domain/membership"
)

// preferenceRow mirrors a mapping_preferences row
type preferenceRow struct {
	Fingerprint string    `db:"fingerprint"`
	LastName    string    `db:"last_name"`
	FirstName   string    `db:"first_name"`
	Start       string    `db:"start_col"`
	End         string    `db:"end_col"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// SQLPreferenceRepository stores mapping preferences in sqlite or postgres
type SQLPreferenceRepository struct {
	db  *sqlx.DB
	now core.Clock
}

// NewSQLPreferenceRepository wraps an open database; the schema must exist
func NewSQLPreferenceRepository(db *sqlx.DB) *SQLPreferenceRepository {
	return &SQLPreferenceRepository{db: db, now: core.SystemClock}
}

// GetMapping retrieves the stored mapping for a header set
func (r *SQLPreferenceRepository) GetMapping(ctx context.Context, fingerprint core.HeaderFingerprint) (membership.ColumnMapping, error) {
	query := r.db.Rebind(`
		SELECT fingerprint, last_name, first_name, start_col, end_col, updated_at
		FROM mapping_preferences
		WHERE fingerprint = ?`)

	var row preferenceRow
	if err := r.db.GetContext(ctx, &row, query, fingerprint.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return membership.ColumnMapping{}, core.ErrPreferenceNotFound
		}
		return membership.ColumnMapping{}, fmt.Errorf("failed to get mapping preference: %w", err)
	}

	return membership.ColumnMapping{
		LastName:  row.LastName,
		FirstName: row.FirstName,
		Start:     row.Start,
		End:       row.End,
	}, nil
}

// SaveMapping saves or updates the mapping for a header set
func (r *SQLPreferenceRepository) SaveMapping(ctx context.Context, fingerprint core.HeaderFingerprint, mapping membership.ColumnMapping) error {
	query := r.db.Rebind(`
		INSERT INTO mapping_preferences (fingerprint, last_name, first_name, start_col, end_col, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			last_name = EXCLUDED.last_name,
			first_name = EXCLUDED.first_name,
			start_col = EXCLUDED.start_col,
			end_col = EXCLUDED.end_col,
			updated_at = EXCLUDED.updated_at`)

	_, err := r.db.ExecContext(ctx, query,
		fingerprint.String(),
		mapping.LastName,
		mapping.FirstName,
		mapping.Start,
		mapping.End,
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save mapping preference: %w", err)
	}
	return nil
}

// DeleteMapping removes the stored mapping for a header set
func (r *SQLPreferenceRepository) DeleteMapping(ctx context.Context, fingerprint core.HeaderFingerprint) error {
	query := r.db.Rebind(`DELETE FROM mapping_preferences WHERE fingerprint = ?`)
	if _, err := r.db.ExecContext(ctx, query, fingerprint.String()); err != nil {
		return fmt.Errorf("failed to delete mapping preference: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (r *SQLPreferenceRepository) Close() error {
	return r.db.Close()
}
