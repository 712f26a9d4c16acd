// Package appveyor implements the AppVeyor build server: project discovery,
// history extraction and polling of in-progress builds until they finish.
package appveyor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"buildwatch-agent/src/provider"
)

const (
	// DefaultBaseURL is the public AppVeyor endpoint.
	DefaultBaseURL = "https://ci.appveyor.com"
)

// Client is an AppVeyor REST API client. The token is optional; without it
// only public project data can be read.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError is a non-200 response from AppVeyor.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps well-known status codes onto provider sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return provider.ErrAuthFailed
	case http.StatusNotFound:
		return provider.ErrBuildNotFound
	case http.StatusTooManyRequests:
		return provider.ErrRateLimited
	}
	return nil
}

// NewClient creates a new AppVeyor API client. A nil httpClient gets a
// client with a 30 second timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// BaseURL returns the endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HasToken reports whether requests are authenticated.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// ListProjects fetches every project visible to the token.
func (c *Client) ListProjects(ctx context.Context) ([]projectEntry, error) {
	var projects []projectEntry
	if err := c.getJSON(ctx, c.baseURL+"/api/projects/", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetHistory fetches a project history page. url is a fully built history
// query, see Project.QueryURL.
func (c *Client) GetHistory(ctx context.Context, url string) (*historyResponse, error) {
	var history historyResponse
	if err := c.getJSON(ctx, url, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// GetBuildDetail fetches a single build with its jobs. A payload without a
// build or without jobs is malformed.
func (c *Client) GetBuildDetail(ctx context.Context, url string) (*buildDetail, error) {
	var resp detailResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if resp.Build == nil || len(resp.Build.Jobs) == 0 {
		return nil, fmt.Errorf("%w: build detail %s has no jobs", provider.ErrMalformedResponse, url)
	}
	return resp.Build, nil
}

// getJSON performs a GET and decodes the body into v. Transport failures and
// non-200 responses are returned as is; undecodable bodies wrap
// ErrMalformedResponse.
func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", provider.ErrMalformedResponse, err)
	}
	return nil
}
