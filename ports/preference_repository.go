package ports

import (
	"context"

	"adherents/domain/core"
	"adherents/domain/membership"
)

// MappingPreferenceRepository persists the last column mapping chosen for a header set
type MappingPreferenceRepository interface {
	// GetMapping returns core.ErrPreferenceNotFound when nothing is stored
	GetMapping(ctx context.Context, fingerprint core.HeaderFingerprint) (membership.ColumnMapping, error)

	// SaveMapping stores or replaces the mapping for fingerprint
	SaveMapping(ctx context.Context, fingerprint core.HeaderFingerprint, mapping membership.ColumnMapping) error

	// DeleteMapping forgets a stored mapping; deleting a missing entry is not an error
	DeleteMapping(ctx context.Context, fingerprint core.HeaderFingerprint) error

	Close() error
}
