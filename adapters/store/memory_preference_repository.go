package store

import (
	"context"
	"sync"

	"adherents/domain/core"
	"adherents/domain/membership"
)

// MemoryPreferenceRepository keeps preferences for the life of the process
type MemoryPreferenceRepository struct {
	mu       sync.RWMutex
	mappings map[core.HeaderFingerprint]membership.ColumnMapping
}

// NewMemoryPreferenceRepository creates an empty repository
func NewMemoryPreferenceRepository() *MemoryPreferenceRepository {
	return &MemoryPreferenceRepository{mappings: make(map[core.HeaderFingerprint]membership.ColumnMapping)}
}

func (r *MemoryPreferenceRepository) GetMapping(_ context.Context, fingerprint core.HeaderFingerprint) (membership.ColumnMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappings[fingerprint]
	if !ok {
		return membership.ColumnMapping{}, core.ErrPreferenceNotFound
	}
	return m, nil
}

func (r *MemoryPreferenceRepository) SaveMapping(_ context.Context, fingerprint core.HeaderFingerprint, mapping membership.ColumnMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[fingerprint] = mapping
	return nil
}

func (r *MemoryPreferenceRepository) DeleteMapping(_ context.Context, fingerprint core.HeaderFingerprint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mappings, fingerprint)
	return nil
}

func (r *MemoryPreferenceRepository) Close() error { return nil }
