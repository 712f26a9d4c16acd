package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"buildwatch-agent/src/contracts"
	"buildwatch-agent/src/store"
)

const (
	commitA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	commitB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	st := store.NewMemoryStore()
	for _, u := range []contracts.BuildStatusUpdate{
		{RunID: "r", Sequence: 1, Project: "core", CommitID: commitA, Version: "1.0.1", Status: "success", StartDate: "2024-01-01T00:00:00Z"},
		{RunID: "r", Sequence: 2, Project: "web", CommitID: commitB, Version: "2.0.7", Status: "in_progress", StartDate: "2024-01-02T00:00:00Z"},
	} {
		if _, err := st.SaveBuild(context.Background(), u); err != nil {
			t.Fatalf("SaveBuild failed: %v", err)
		}
	}
	return NewServer(st)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if result == nil || len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", result.Content[0])
	return ""
}

func TestHandleListBuilds(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantCount int
		wantFirst string
	}{
		{name: "all, newest first", args: map[string]any{}, wantCount: 2, wantFirst: commitB},
		{name: "by project", args: map[string]any{"project": "core"}, wantCount: 1, wantFirst: commitA},
		{name: "by status", args: map[string]any{"status": "IN_PROGRESS"}, wantCount: 1, wantFirst: commitB},
		{name: "limit", args: map[string]any{"limit": 1}, wantCount: 1, wantFirst: commitB},
		{name: "no match", args: map[string]any{"project": "docs"}, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleListBuilds(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handleListBuilds() error = %v", err)
			}
			if result.IsError {
				t.Fatalf("tool error: %s", resultText(t, result))
			}

			var out struct {
				Count  int                           `json:"count"`
				Builds []contracts.BuildStatusUpdate `json:"builds"`
			}
			if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
				t.Fatalf("bad json: %v", err)
			}
			if out.Count != tt.wantCount || len(out.Builds) != tt.wantCount {
				t.Fatalf("count = %d (%d builds), want %d", out.Count, len(out.Builds), tt.wantCount)
			}
			if tt.wantCount > 0 && out.Builds[0].CommitID != tt.wantFirst {
				t.Errorf("first = %s, want %s", out.Builds[0].CommitID, tt.wantFirst)
			}
		})
	}
}

func TestHandleListBuilds_InvalidStatus(t *testing.T) {
	result, _ := newTestServer(t).handleListBuilds(context.Background(), callRequest(map[string]any{"status": "green"}))
	if !result.IsError {
		t.Error("expected a tool error for an unknown status")
	}
}

func TestHandleGetBuildStatus(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		commit    string
		wantError string
		wantVer   string
	}{
		{name: "known", commit: commitA, wantVer: "1.0.1"},
		{name: "uppercase", commit: strings.ToUpper(commitB), wantVer: "2.0.7"},
		{name: "unknown", commit: "cccccccccccccccccccccccccccccccccccccccc", wantError: "no build known"},
		{name: "invalid", commit: "abc", wantError: "invalid commit id"},
		{name: "missing", commit: "", wantError: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleGetBuildStatus(context.Background(), callRequest(map[string]any{"commit": tt.commit}))
			if err != nil {
				t.Fatalf("handleGetBuildStatus() error = %v", err)
			}
			text := resultText(t, result)

			if tt.wantError != "" {
				if !result.IsError || !strings.Contains(text, tt.wantError) {
					t.Errorf("result = %q (error %v), want error containing %q", text, result.IsError, tt.wantError)
				}
				return
			}

			var build contracts.BuildStatusUpdate
			if err := json.Unmarshal([]byte(text), &build); err != nil {
				t.Fatalf("bad json: %v", err)
			}
			if build.Version != tt.wantVer {
				t.Errorf("Version = %s, want %s", build.Version, tt.wantVer)
			}
		})
	}
}
