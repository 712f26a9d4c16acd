package appveyor

import (
	"encoding/json"
	"errors"
	"fmt"

	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/provider"
)

var errSkipped = errors.New("entry skipped")

// Extractor turns history pages into build records for the commits the host
// cares about.
type Extractor struct {
	baseURL string
	filter  provider.CommitFilter
	log     logger.Logger
}

// NewExtractor creates an extractor. A nil filter accepts every commit.
func NewExtractor(baseURL string, filter provider.CommitFilter, log logger.Logger) *Extractor {
	if filter == nil {
		filter = provider.AllCommits
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Extractor{baseURL: baseURL, filter: filter, log: log}
}

// Extract returns one record per usable entry, in response order. Entries
// that fail to parse or concern an irrelevant commit are skipped; the batch
// never fails as a whole.
func (e *Extractor) Extract(project provider.Project, history *historyResponse) []*provider.BuildRecord {
	if history == nil {
		return nil
	}

	var repo historyProject
	if history.Project != nil {
		repo = *history.Project
	}

	builds := make([]*provider.BuildRecord, 0, len(history.Builds))
	for i, raw := range history.Builds {
		b, err := e.record(project, repo, raw)
		if err != nil {
			if !errors.Is(err, errSkipped) {
				e.log.Debug("[AppVeyor] %s: skipping history entry %d: %v", project.Name, i, err)
			}
			continue
		}
		builds = append(builds, b)
	}
	return builds
}

func (e *Extractor) record(project provider.Project, repo historyProject, raw json.RawMessage) (*provider.BuildRecord, error) {
	var entry buildEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode build: %w", err)
	}
	if entry.Version == "" || entry.BuildID == "" {
		return nil, fmt.Errorf("build without version or id")
	}

	commit, err := provider.ParseCommitID(entry.commit())
	if err != nil {
		return nil, err
	}
	if !e.filter(commit) {
		return nil, errSkipped
	}

	b := &provider.BuildRecord{
		Project:    project.Name,
		BuildID:    string(entry.BuildID),
		Branch:     entry.Branch,
		CommitID:   commit,
		Status:     ParseStatus(entry.Status),
		BaseWebURL: webBaseURL(e.baseURL, project.ID),
		BaseAPIURL: apiBaseURL(e.baseURL, project.ID),
	}
	setVersion(b, entry.Version)

	switch {
	case entry.Started != nil:
		b.StartDate = *entry.Started
	case entry.Created != nil:
		b.StartDate = *entry.Created
	}

	if b.Status.HasDuration() {
		d := buildDuration(entry.Started, entry.Created, entry.Updated)
		b.Duration = &d
	}

	if entry.PullRequestID != nil && *entry.PullRequestID != "" {
		id := string(*entry.PullRequestID)
		b.PullRequestLabel = "PR#" + id
		b.PullRequestURL = pullRequestURL(repo.RepositoryType, repo.RepositoryName, id)
		if entry.PullRequestName != nil {
			b.PullRequestTitle = *entry.PullRequestName
		}
	}

	return b, nil
}
