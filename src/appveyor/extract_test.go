package appveyor

import (
	"encoding/json"
	"testing"
	"time"

	"buildwatch-agent/src/provider"
)

const base = "https://ci.example.com"

func testProject() provider.Project {
	return newProject(base, "acct", "proj", "proj")
}

func parseHistory(t *testing.T, body string) *historyResponse {
	t.Helper()
	var h historyResponse
	if err := json.Unmarshal([]byte(body), &h); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return &h
}

func TestExtract_FinishedBuild(t *testing.T) {
	history := parseHistory(t, `{"builds":[{
		"buildId": 9001, "version": "1.2.3", "branch": "main", "status": "success",
		"commitId": "ABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD",
		"started": "2024-01-01T00:00:00Z", "updated": "2024-01-01T00:10:00Z"
	}]}`)

	builds := NewExtractor(base, nil, nil).Extract(testProject(), history)

	if len(builds) != 1 {
		t.Fatalf("Extract() returned %d builds, want 1", len(builds))
	}
	b := builds[0]

	if b.Status != provider.StatusSuccess {
		t.Errorf("Status = %s, want success", b.Status)
	}
	if b.Duration == nil || b.Duration.Milliseconds() != 600000 {
		t.Errorf("Duration = %v, want 600000ms", b.Duration)
	}
	if b.CommitID != "abcdefabcdefabcdefabcdefabcdefabcdefabcd" {
		t.Errorf("CommitID = %s, want lowercase id", b.CommitID)
	}
	if b.BuildID != "9001" {
		t.Errorf("BuildID = %s, want 9001", b.BuildID)
	}
	if want := base + "/project/acct/proj/build/1.2.3"; b.URL != want {
		t.Errorf("URL = %s, want %s", b.URL, want)
	}
	if want := base + "/api/projects/acct/proj/build/1.2.3"; b.DetailURL != want {
		t.Errorf("DetailURL = %s, want %s", b.DetailURL, want)
	}
	if !b.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v", b.StartDate)
	}
	if b.IsPullRequest() {
		t.Error("IsPullRequest() = true for a push build")
	}
}

func TestExtract_PullRequest(t *testing.T) {
	tests := []struct {
		name     string
		repoType string
		wantURL  string
	}{
		{name: "github", repoType: "github", wantURL: "https://github.com/org/repo/pull/42"},
		{name: "bitbucket", repoType: "bitBucket", wantURL: "https://bitbucket.org/org/repo/pull-requests/42"},
		{name: "gitlab", repoType: "gitlab", wantURL: "https://gitlab.com/org/repo/merge_requests/42"},
		{name: "unknown host", repoType: "vso", wantURL: ""},
		{name: "missing type", repoType: "", wantURL: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := parseHistory(t, `{
				"project": {"repositoryName": "org/repo", "repositoryType": "`+tt.repoType+`"},
				"builds": [{
					"buildId": "77", "version": "5", "status": "running",
					"commitId": "`+commitA+`",
					"pullRequestHeadCommitId": "`+commitB+`",
					"pullRequestId": "42", "pullRequestName": "Fix the thing",
					"created": "2024-02-01T08:00:00Z"
				}]}`)

			builds := NewExtractor(base, nil, nil).Extract(testProject(), history)
			if len(builds) != 1 {
				t.Fatalf("Extract() returned %d builds, want 1", len(builds))
			}
			b := builds[0]

			if b.PullRequestURL != tt.wantURL {
				t.Errorf("PullRequestURL = %q, want %q", b.PullRequestURL, tt.wantURL)
			}
			if b.PullRequestLabel != "PR#42" {
				t.Errorf("PullRequestLabel = %q, want PR#42", b.PullRequestLabel)
			}
			if b.PullRequestTitle != "Fix the thing" {
				t.Errorf("PullRequestTitle = %q", b.PullRequestTitle)
			}
			if b.CommitID != commitB {
				t.Errorf("CommitID = %s, want pull request head %s", b.CommitID, commitB)
			}
			if b.Status != provider.StatusInProgress || b.Duration != nil {
				t.Errorf("Status = %s, Duration = %v, want in_progress without duration", b.Status, b.Duration)
			}
			if !b.StartDate.Equal(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)) {
				t.Errorf("StartDate = %v, want created time", b.StartDate)
			}
		})
	}
}

func TestExtract_NumericPullRequestID(t *testing.T) {
	history := parseHistory(t, `{"project":{"repositoryName":"org/repo","repositoryType":"github"},
		"builds":[{"buildId":1,"version":"1","status":"failed","commitId":"`+commitA+`","pullRequestId":7}]}`)

	builds := NewExtractor(base, nil, nil).Extract(testProject(), history)
	if len(builds) != 1 {
		t.Fatalf("Extract() returned %d builds, want 1", len(builds))
	}
	if builds[0].PullRequestURL != "https://github.com/org/repo/pull/7" {
		t.Errorf("PullRequestURL = %q", builds[0].PullRequestURL)
	}
	// Failed build without timestamps still gets a zero duration
	if builds[0].Duration == nil || *builds[0].Duration != 0 {
		t.Errorf("Duration = %v, want 0", builds[0].Duration)
	}
}

func TestExtract_SkipsBadEntries(t *testing.T) {
	history := parseHistory(t, `{"builds":[
		{"buildId":1,"version":"1","status":"success","commitId":"not-a-sha"},
		{"buildId":true,"version":"2","status":"success","commitId":"`+commitA+`"},
		"garbage",
		{"buildId":3,"status":"success","commitId":"`+commitA+`"},
		{"buildId":4,"version":"4","status":"success","commitId":"`+commitA+`","started":"yesterday"},
		{"buildId":5,"version":"5","status":"weird","commitId":"`+commitB+`"},
		{"buildId":6,"version":"6","status":"success","commitId":"`+commitC+`"}
	]}`)

	builds := NewExtractor(base, nil, nil).Extract(testProject(), history)

	if len(builds) != 2 {
		t.Fatalf("Extract() returned %d builds, want 2", len(builds))
	}
	if builds[0].Version != "5" || builds[0].Status != provider.StatusUnknown {
		t.Errorf("first build = %s %s, want 5 unknown", builds[0].Version, builds[0].Status)
	}
	if builds[1].Version != "6" {
		t.Errorf("second build = %s, want 6", builds[1].Version)
	}
}

func TestExtract_AppliesFilter(t *testing.T) {
	history := parseHistory(t, `{"builds":[
		{"buildId":1,"version":"1","status":"success","commitId":"`+commitA+`"},
		{"buildId":2,"version":"2","status":"success","commitId":"`+commitB+`"}
	]}`)

	visible := map[provider.CommitID]bool{commitB: true}
	builds := NewExtractor(base, func(id provider.CommitID) bool { return visible[id] }, nil).
		Extract(testProject(), history)

	if len(builds) != 1 || builds[0].CommitID != commitB {
		t.Fatalf("Extract() = %+v, want only %s", builds, commitB)
	}
}

func TestExtract_EmptyHistory(t *testing.T) {
	e := NewExtractor(base, nil, nil)

	if got := e.Extract(testProject(), nil); len(got) != 0 {
		t.Errorf("Extract(nil) returned %d builds", len(got))
	}
	if got := e.Extract(testProject(), parseHistory(t, `{}`)); len(got) != 0 {
		t.Errorf("Extract({}) returned %d builds", len(got))
	}
}
