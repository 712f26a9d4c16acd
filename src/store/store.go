// Package store defines the interface for persistent data storage.
package store

import (
	"context"
	"fmt"

	"buildwatch-agent/src/contracts"
)

// Store keeps the latest status snapshot of every commit.
type Store interface {
	// SaveBuild upserts the snapshot for its commit unless the stored one
	// supersedes it. It reports whether the snapshot was written.
	SaveBuild(ctx context.Context, update contracts.BuildStatusUpdate) (bool, error)

	// GetBuild returns the latest snapshot of a commit.
	GetBuild(ctx context.Context, commitID string) (*contracts.BuildStatusUpdate, error)

	// ListBuilds returns snapshots ordered by start date, most recent first.
	ListBuilds(ctx context.Context, filter ListFilter) ([]contracts.BuildStatusUpdate, error)

	// Close closes the store connection
	Close() error
}

// ListFilter narrows ListBuilds. Zero values match everything.
type ListFilter struct {
	Project string
	Status  string
	Limit   int
}

func (f ListFilter) matches(u contracts.BuildStatusUpdate) bool {
	if f.Project != "" && u.Project != f.Project {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	return true
}

// ErrNotFound is returned when no snapshot exists for a commit.
type ErrNotFound struct {
	CommitID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("no build status for commit %s", e.CommitID)
}
