package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adherents/domain/core"
	"adherents/domain/membership"
	"adherents/ports"
)

// SheetStore keeps decoded sheets in memory between upload and export.
// Entries older than ttl are treated as gone and removed by CleanupExpired.
type SheetStore struct {
	mu     sync.RWMutex
	sheets map[core.SheetID]*storedSheet
	ttl    time.Duration
	now    core.Clock
}

type storedSheet struct {
	sheet    *membership.SheetData
	storedAt time.Time
}

var _ ports.SheetCache = (*SheetStore)(nil)

// NewSheetStore creates a store; ttl <= 0 keeps sheets until deleted
func NewSheetStore(ttl time.Duration) *SheetStore {
	return &SheetStore{
		sheets: make(map[core.SheetID]*storedSheet),
		ttl:    ttl,
		now:    core.SystemClock,
	}
}

// WithClock replaces the time source, for tests
func (s *SheetStore) WithClock(clock core.Clock) *SheetStore {
	s.now = clock
	return s
}

// Put stores sheet under a fresh identifier
func (s *SheetStore) Put(sheet *membership.SheetData) core.SheetID {
	id := core.NewSheetID()

	s.mu.Lock()
	s.sheets[id] = &storedSheet{sheet: sheet, storedAt: s.now()}
	s.mu.Unlock()

	return id
}

// Get returns the sheet, or core.ErrSheetNotFound when missing or expired
func (s *SheetStore) Get(id core.SheetID) (*membership.SheetData, error) {
	s.mu.RLock()
	entry, ok := s.sheets[id]
	s.mu.RUnlock()

	if !ok || s.expired(entry) {
		return nil, fmt.Errorf("%w: %s", core.ErrSheetNotFound, id)
	}
	return entry.sheet, nil
}

// Delete forgets a sheet
func (s *SheetStore) Delete(id core.SheetID) {
	s.mu.Lock()
	delete(s.sheets, id)
	s.mu.Unlock()
}

// Len reports how many sheets are held, expired ones included
func (s *SheetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sheets)
}

// CleanupExpired removes expired sheets and returns how many were dropped
func (s *SheetStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sheets {
		if s.expired(entry) {
			delete(s.sheets, id)
			removed++
		}
	}
	return removed
}

// RunJanitor calls CleanupExpired every interval until ctx is done
func (s *SheetStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired()
		}
	}
}

func (s *SheetStore) expired(entry *storedSheet) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(entry.storedAt) > s.ttl
}
