package appveyor

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"buildwatch-agent/src/provider"
)

const (
	commitA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	commitB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	commitC = "cccccccccccccccccccccccccccccccccccccccc"
)

type reply struct {
	code int
	body string
}

func ok(body string) reply { return reply{code: http.StatusOK, body: body} }

var notFound = reply{code: http.StatusNotFound, body: "Build not found"}

// fakeAppVeyor serves canned AppVeyor responses. Detail replies are consumed
// in order and the last one repeats.
type fakeAppVeyor struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	projects reply
	history  map[string]reply   // project id -> page
	shifted  map[string]reply   // startBuildId -> page
	details  map[string][]reply // "account/slug/version" -> replies
	requests []string
	auth     []string
}

func newFake(t *testing.T) *fakeAppVeyor {
	t.Helper()

	f := &fakeAppVeyor{
		t:        t,
		projects: ok("[]"),
		history:  make(map[string]reply),
		shifted:  make(map[string]reply),
		details:  make(map[string][]reply),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAppVeyor) URL() string { return f.server.URL }

func (f *fakeAppVeyor) setProjects(res reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = res
}

func (f *fakeAppVeyor) setHistory(projectID, body string) {
	f.setHistoryReply(projectID, ok(body))
}

func (f *fakeAppVeyor) setHistoryReply(projectID string, res reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[projectID] = res
}

func (f *fakeAppVeyor) setShifted(startBuildID string, res reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shifted[startBuildID] = res
}

func (f *fakeAppVeyor) setDetails(key string, replies ...reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[key] = replies
}

func (f *fakeAppVeyor) requested(uri string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == uri {
			return true
		}
	}
	return false
}

func (f *fakeAppVeyor) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func (f *fakeAppVeyor) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAppVeyor) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.RequestURI())
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	res := f.route(r)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.code)
	w.Write([]byte(res.body))
}

func (f *fakeAppVeyor) route(r *http.Request) reply {
	if r.URL.Path == "/api/projects/" {
		return f.projects
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/projects/"), "/")
	switch {
	case len(parts) == 3 && parts[2] == "history":
		if start := r.URL.Query().Get("startBuildId"); start != "" {
			if res, found := f.shifted[start]; found {
				return res
			}
			return notFound
		}
		if res, found := f.history[parts[0]+"/"+parts[1]]; found {
			return res
		}
		return notFound
	case len(parts) == 4 && parts[2] == "build":
		key := strings.Join([]string{parts[0], parts[1], parts[3]}, "/")
		replies := f.details[key]
		if len(replies) == 0 {
			return notFound
		}
		res := replies[0]
		if len(replies) > 1 {
			f.details[key] = replies[1:]
		}
		return res
	}
	return notFound
}

// historyPage wraps build entries in a history response of a GitHub repo.
func historyPage(builds ...string) string {
	return fmt.Sprintf(`{"project":{"repositoryName":"org/repo","repositoryType":"gitHub"},"builds":[%s]}`,
		strings.Join(builds, ","))
}

func buildJSON(buildID int, version, status, commit, started string) string {
	return fmt.Sprintf(`{"buildId":%d,"version":%q,"branch":"master","status":%q,"commitId":%q,"started":%q,"updated":%q}`,
		buildID, version, status, commit, started, started)
}

func detailJSON(status string, tests, passed, failed int) string {
	return fmt.Sprintf(`{"build":{"started":"2024-01-01T00:00:00Z","updated":"2024-01-01T00:02:00Z","jobs":[{"status":%q,"testsCount":%d,"passedTestsCount":%d,"failedTestsCount":%d}]}}`,
		status, tests, passed, failed)
}

func newTestAdapter(t *testing.T, f *fakeAppVeyor, settings provider.Settings) *Adapter {
	t.Helper()

	settings.BaseURL = f.URL()
	if settings.AccountName == "" {
		settings.AccountName = "acct"
	}
	if settings.ProjectNames == "" && settings.AccountToken == "" {
		settings.ProjectNames = "proj"
	}
	settings.PollInterval = time.Millisecond

	a, err := New(settings, provider.Options{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

// drain reads a stream to completion.
func drain(t *testing.T, s *provider.Stream) ([]provider.BuildRecord, error) {
	t.Helper()

	var got []provider.BuildRecord
	timeout := time.After(5 * time.Second)
	for {
		select {
		case b, open := <-s.Updates():
			if !open {
				return got, s.Wait()
			}
			got = append(got, b)
		case <-timeout:
			t.Fatal("timeout waiting for stream to complete")
		}
	}
}
