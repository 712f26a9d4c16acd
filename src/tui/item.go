package tui

import (
	"strings"
	"time"

	"buildwatch-agent/src/provider"
)

// Item is one commit row in the build list.
// It wraps the latest BuildRecord of the commit and implements bubbles/list.Item.
type Item struct {
	Build provider.BuildRecord
}

// FilterValue is the value used for fuzzy filtering.
func (i Item) FilterValue() string {
	return strings.Join([]string{
		string(i.Build.CommitID),
		i.Build.Project,
		i.Branch(),
		i.Build.PullRequestLabel,
	}, " ")
}

// Title returns the primary text for the item (required by list.Item).
func (i Item) Title() string { return i.Build.CommitID.Short() }

// Description returns the secondary text for the item (required by list.Item).
func (i Item) Description() string { return i.Build.Summary() }

// Branch returns the branch name with escape sequences removed.
func (i Item) Branch() string {
	return CleanText(i.Build.Branch)
}

// PullRequestTitle returns the pull request title with escape sequences removed.
func (i Item) PullRequestTitle() string {
	return CleanText(i.Build.PullRequestTitle)
}

// DurationText formats the duration, or "" while there is none.
func (i Item) DurationText() string {
	if i.Build.Duration == nil {
		return ""
	}
	return i.Build.Duration.Round(time.Second).String()
}
