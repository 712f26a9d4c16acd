package appveyor

import (
	"fmt"
	"strconv"
	"strings"

	"buildwatch-agent/src/provider"
)

// historyRecords is the history page size fetched during discovery.
const historyRecords = 25

// newProject lays out the URLs of a project identified by account and slug.
func newProject(baseURL, account, name, slug string) provider.Project {
	id := account + "/" + slug
	return provider.Project{
		Name:     name,
		ID:       id,
		QueryURL: fmt.Sprintf("%s/api/projects/%s/history?recordsNumber=%d", baseURL, id, historyRecords),
	}
}

func webBaseURL(baseURL, projectID string) string {
	return baseURL + "/project/" + projectID + "/build/"
}

func apiBaseURL(baseURL, projectID string) string {
	return baseURL + "/api/projects/" + projectID + "/"
}

// setVersion points a record at a version. Version, URL and DetailURL only
// ever change together.
func setVersion(b *provider.BuildRecord, version string) {
	b.Version = version
	b.URL = b.BaseWebURL + version
	b.DetailURL = b.BaseAPIURL + "build/" + version
}

// shiftedVersionURL queries the single build that follows buildID, which is
// where AppVeyor files a build whose version was reassigned.
func shiftedVersionURL(b *provider.BuildRecord) (string, error) {
	id, err := strconv.ParseInt(b.BuildID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("build id %q is not numeric: %w", b.BuildID, err)
	}
	return fmt.Sprintf("%shistory?recordsNumber=1&startBuildId=%d", b.BaseAPIURL, id+1), nil
}

// pullRequestURL returns the web page of a pull request, or "" when the
// repository host is not one we know.
func pullRequestURL(repoType, repoName, prID string) string {
	if repoName == "" || prID == "" {
		return ""
	}
	switch strings.ToLower(repoType) {
	case "bitbucket":
		return fmt.Sprintf("https://bitbucket.org/%s/pull-requests/%s", repoName, prID)
	case "github":
		return fmt.Sprintf("https://github.com/%s/pull/%s", repoName, prID)
	case "gitlab":
		return fmt.Sprintf("https://gitlab.com/%s/merge_requests/%s", repoName, prID)
	default:
		return ""
	}
}
