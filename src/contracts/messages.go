// Package contracts defines the messages buildwatch components exchange
// over the broker.
package contracts

import (
	"time"

	"buildwatch-agent/src/provider"
)

// Topic names
const (
	// TopicBuildStatus carries every build status snapshot a watcher emits.
	TopicBuildStatus = "buildwatch.builds.status"
)

// BuildStatusUpdate is one snapshot of a build.
// Published to: buildwatch.builds.status
// Key: {commit_id}
type BuildStatusUpdate struct {
	// Identity
	RunID    string `json:"run_id"`
	Sequence int64  `json:"sequence"` // increases per run
	Provider string `json:"provider"`
	Project  string `json:"project"`
	CommitID string `json:"commit_id"`

	// Build
	Version         string `json:"version"`
	BuildID         string `json:"build_id"`
	Branch          string `json:"branch"`
	Status          string `json:"status"`
	StartDate       string `json:"start_date"`
	DurationMs      *int64 `json:"duration_ms,omitempty"`
	TestsResultText string `json:"tests_result_text,omitempty"`
	Summary         string `json:"summary"`

	// Links
	URL              string `json:"url"`
	DetailURL        string `json:"detail_url"`
	PullRequestURL   string `json:"pull_request_url,omitempty"`
	PullRequestLabel string `json:"pull_request_label,omitempty"`
	PullRequestTitle string `json:"pull_request_title,omitempty"`

	Timestamp string `json:"timestamp"`
}

// FromRecord builds the wire message for a build snapshot.
func FromRecord(b provider.BuildRecord, providerName, runID string, seq int64, now time.Time) BuildStatusUpdate {
	u := BuildStatusUpdate{
		RunID:            runID,
		Sequence:         seq,
		Provider:         providerName,
		Project:          b.Project,
		CommitID:         string(b.CommitID),
		Version:          b.Version,
		BuildID:          b.BuildID,
		Branch:           b.Branch,
		Status:           b.Status.String(),
		TestsResultText:  b.TestsResultText,
		Summary:          b.Summary(),
		URL:              b.URL,
		DetailURL:        b.DetailURL,
		PullRequestURL:   b.PullRequestURL,
		PullRequestLabel: b.PullRequestLabel,
		PullRequestTitle: b.PullRequestTitle,
		Timestamp:        now.UTC().Format(time.RFC3339),
	}
	if !b.StartDate.IsZero() {
		u.StartDate = b.StartDate.UTC().Format(time.RFC3339)
	}
	if b.Duration != nil {
		ms := b.Duration.Milliseconds()
		u.DurationMs = &ms
	}
	return u
}

// IsTerminal reports whether the build will not change any more.
func (u BuildStatusUpdate) IsTerminal() bool {
	switch u.Status {
	case "success", "failure", "stopped":
		return true
	}
	return false
}

// Supersedes reports whether u should replace prev as the latest snapshot of
// a commit. Within one run the higher sequence wins; a new run always wins.
func (u BuildStatusUpdate) Supersedes(prev BuildStatusUpdate) bool {
	if u.RunID != prev.RunID {
		return true
	}
	return u.Sequence > prev.Sequence
}
