package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

type progressEntry struct {
	snapshot  domain.Snapshot
	updatedAt time.Time
}

// ProgressStore maps job identifiers to their latest progress snapshot.
// Every operation on a single key is atomic; keys never interact.
type ProgressStore struct {
	mu      sync.RWMutex
	entries map[string]progressEntry
	config  *domain.ProgressConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewProgressStore creates a new progress store
func NewProgressStore(config *domain.ProgressConfig, logger *zap.Logger) *ProgressStore {
	if config == nil {
		config = &domain.ProgressConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressStore{
		entries: make(map[string]progressEntry),
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Update replaces the snapshot stored for jobID
func (s *ProgressStore) Update(jobID string, snapshot domain.Snapshot) {
	s.mu.Lock()
	s.entries[jobID] = progressEntry{snapshot: snapshot, updatedAt: s.now()}
	s.mu.Unlock()
}

// Get returns the snapshot for jobID, or the empty snapshot if none exists
func (s *ProgressStore) Get(jobID string) domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[jobID].snapshot
}

// Remove deletes the snapshot for jobID. Returns true if it existed.
func (s *ProgressStore) Remove(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[jobID]; ok {
		delete(s.entries, jobID)
		return true
	}
	return false
}

// Len returns the number of tracked snapshots
func (s *ProgressStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// EvictExpired removes terminal snapshots older than the configured retention
// and returns how many were removed. Snapshots of running jobs are kept.
func (s *ProgressStore) EvictExpired() int {
	if s.config.Retention <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.config.Retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if entry.snapshot.IsTerminal() && entry.updatedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs EvictExpired periodically until ctx is done.
// It does nothing when retention is disabled.
func (s *ProgressStore) StartSweeper(ctx context.Context) {
	if s.config.Retention <= 0 {
		return
	}
	interval := s.config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.EvictExpired(); n > 0 {
					s.logger.Debug("Evicted expired progress snapshots",
						zap.Int("count", n),
						zap.Int("remaining", s.Len()))
				}
			}
		}
	}()
}
