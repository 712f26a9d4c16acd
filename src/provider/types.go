package provider

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Status is the classification of a build as seen by the host.
type Status int

const (
	StatusUnknown Status = iota
	StatusSuccess
	StatusFailure
	StatusStopped
	StatusInProgress
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusStopped:
		return "stopped"
	case StatusInProgress:
		return "in_progress"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further polling happens for the status.
// Unknown is not terminal but is never polled either.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusStopped
}

// HasDuration reports whether a build in this status carries a duration.
func (s Status) HasDuration() bool {
	return s == StatusSuccess || s == StatusFailure
}

// CommitID is a full git object id in lowercase hex.
type CommitID string

// ParseCommitID validates a 40-digit hex object id.
func ParseCommitID(s string) (CommitID, error) {
	s = strings.TrimSpace(s)
	if len(s) != 40 {
		return "", fmt.Errorf("invalid commit id %q: want 40 hex digits", s)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid commit id %q: %w", s, err)
	}
	return CommitID(strings.ToLower(s)), nil
}

// Short returns the abbreviated form used in listings.
func (c CommitID) Short() string {
	if len(c) <= 8 {
		return string(c)
	}
	return string(c[:8])
}

// CommitFilter reports whether the host cares about a commit, usually
// because the commit is present in the history it displays.
type CommitFilter func(CommitID) bool

// AllCommits accepts every commit.
func AllCommits(CommitID) bool { return true }

// Project is a tracked CI project. Immutable once resolved.
type Project struct {
	Name     string
	ID       string // account-qualified, e.g. "account/slug"
	QueryURL string
}

// BuildRecord is one reported build attempt for a commit.
type BuildRecord struct {
	Project  string
	Version  string
	BuildID  string
	Branch   string
	CommitID CommitID
	Status   Status

	StartDate time.Time
	// Duration is set only once Status is Success or Failure.
	Duration *time.Duration

	BaseWebURL string
	URL        string
	BaseAPIURL string
	DetailURL  string

	PullRequestURL   string
	PullRequestLabel string
	PullRequestTitle string
	TestsResultText  string
}

// IsPullRequest reports whether the build was triggered by a pull request.
func (b *BuildRecord) IsPullRequest() bool {
	return b.PullRequestLabel != ""
}

// Summary is the one-line status description a host shows next to a commit.
func (b *BuildRecord) Summary() string {
	var sb strings.Builder
	sb.WriteString("#")
	sb.WriteString(b.Version)
	if b.TestsResultText != "" {
		sb.WriteString(" : ")
		sb.WriteString(b.TestsResultText)
	}
	if b.Duration != nil {
		fmt.Fprintf(&sb, " (%s)", b.Duration.Round(time.Second))
	}
	return sb.String()
}
