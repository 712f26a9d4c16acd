package store

import (
	"context"
	"sort"
	"sync"

	"buildwatch-agent/src/contracts"
)

// MemoryStore is an in-memory implementation of Store.
// Used by the TUI and MCP server when no database is configured, and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	builds map[string]contracts.BuildStatusUpdate // commit_id -> latest snapshot
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		builds: make(map[string]contracts.BuildStatusUpdate),
	}
}

// SaveBuild stores the snapshot unless a superseding one is already present.
func (s *MemoryStore) SaveBuild(ctx context.Context, update contracts.BuildStatusUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.builds[update.CommitID]; ok && !update.Supersedes(prev) {
		return false, nil
	}
	s.builds[update.CommitID] = update
	return true, nil
}

// GetBuild returns the latest snapshot of a commit.
func (s *MemoryStore) GetBuild(ctx context.Context, commitID string) (*contracts.BuildStatusUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	update, ok := s.builds[commitID]
	if !ok {
		return nil, ErrNotFound{CommitID: commitID}
	}
	return &update, nil
}

// ListBuilds returns matching snapshots, most recently started first.
func (s *MemoryStore) ListBuilds(ctx context.Context, filter ListFilter) ([]contracts.BuildStatusUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	builds := make([]contracts.BuildStatusUpdate, 0, len(s.builds))
	for _, u := range s.builds {
		if filter.matches(u) {
			builds = append(builds, u)
		}
	}

	// RFC3339 UTC strings sort chronologically
	sort.Slice(builds, func(i, j int) bool {
		if builds[i].StartDate != builds[j].StartDate {
			return builds[i].StartDate > builds[j].StartDate
		}
		return builds[i].CommitID < builds[j].CommitID
	})

	if filter.Limit > 0 && len(builds) > filter.Limit {
		builds = builds[:filter.Limit]
	}
	return builds, nil
}

// Close is a no-op for in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
