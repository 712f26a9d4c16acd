package appveyor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// flexString accepts a JSON string or number. AppVeyor has returned both for
// buildId and pullRequestId.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// projectEntry is one element of the project list.
type projectEntry struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// historyResponse is a project history page. Builds stay raw so that one
// malformed entry does not spoil the page.
type historyResponse struct {
	Project *historyProject   `json:"project"`
	Builds  []json.RawMessage `json:"builds"`
}

type historyProject struct {
	RepositoryName string `json:"repositoryName"`
	RepositoryType string `json:"repositoryType"`
}

// buildEntry is one build of a history page. Pointer fields are optional.
type buildEntry struct {
	BuildID                 flexString  `json:"buildId"`
	Version                 string      `json:"version"`
	Branch                  string      `json:"branch"`
	Status                  string      `json:"status"`
	CommitID                string      `json:"commitId"`
	PullRequestHeadCommitID *string     `json:"pullRequestHeadCommitId"`
	PullRequestID           *flexString `json:"pullRequestId"`
	PullRequestName         *string     `json:"pullRequestName"`
	Started                 *time.Time  `json:"started"`
	Created                 *time.Time  `json:"created"`
	Updated                 *time.Time  `json:"updated"`
}

// commit returns the commit the build is about: the pull request head when
// present, otherwise the pushed commit.
func (e *buildEntry) commit() string {
	if e.PullRequestHeadCommitID != nil && *e.PullRequestHeadCommitID != "" {
		return *e.PullRequestHeadCommitID
	}
	return e.CommitID
}

type detailResponse struct {
	Build *buildDetail `json:"build"`
}

// buildDetail is the build endpoint payload.
type buildDetail struct {
	Jobs    []detailJob `json:"jobs"`
	Started *time.Time  `json:"started"`
	Created *time.Time  `json:"created"`
	Updated *time.Time  `json:"updated"`
}

type detailJob struct {
	Status           string `json:"status"`
	TestsCount       int    `json:"testsCount"`
	PassedTestsCount int    `json:"passedTestsCount"`
	FailedTestsCount int    `json:"failedTestsCount"`
}

// latestJob returns the job that decides the build status. Callers get a
// validated detail from Client.GetBuildDetail, which guarantees one exists.
func (d *buildDetail) latestJob() detailJob {
	return d.Jobs[len(d.Jobs)-1]
}
