// Package mcp exposes delivered build statuses as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"buildwatch-agent/src/contracts"
	"buildwatch-agent/src/provider"
	"buildwatch-agent/src/store"
)

const defaultListLimit = 50

var validStatuses = map[string]bool{
	"success":     true,
	"failure":     true,
	"stopped":     true,
	"in_progress": true,
	"unknown":     true,
}

// Server is the MCP server for buildwatch.
type Server struct {
	mcpServer *server.MCPServer
	store     store.Store
}

// NewServer creates a new MCP server reading from st.
func NewServer(st store.Store) *Server {
	s := server.NewMCPServer(
		"buildwatch",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		store:     st,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_builds",
		mcp.WithDescription("List the latest known build status of each commit, most recently started first. Optionally filter by project and status."),
		mcp.WithString("project",
			mcp.Description("Project name to filter by"),
		),
		mcp.WithString("status",
			mcp.Description("One of success, failure, stopped, in_progress, unknown"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max builds to return (default: 50)"),
		),
	)

	statusTool := mcp.NewTool("get_build_status",
		mcp.WithDescription("Get the latest build status for a commit, including version, duration, tests result and pull request."),
		mcp.WithString("commit",
			mcp.Required(),
			mcp.Description("Full 40 character commit id"),
		),
	)

	s.mcpServer.AddTool(listTool, s.handleListBuilds)
	s.mcpServer.AddTool(statusTool, s.handleGetBuildStatus)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handleListBuilds handles the list_builds tool call.
func (s *Server) handleListBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := strings.ToLower(strings.TrimSpace(request.GetString("status", "")))
	if status != "" && !validStatuses[status] {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", status)), nil
	}

	limit := request.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}

	builds, err := s.store.ListBuilds(ctx, store.ListFilter{
		Project: strings.TrimSpace(request.GetString("project", "")),
		Status:  status,
		Limit:   limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list builds: %v", err)), nil
	}
	if builds == nil {
		builds = []contracts.BuildStatusUpdate{}
	}

	return jsonResult(map[string]any{
		"count":  len(builds),
		"builds": builds,
	})
}

// handleGetBuildStatus handles the get_build_status tool call.
func (s *Server) handleGetBuildStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("commit", "")
	if raw == "" {
		return mcp.NewToolResultError("commit parameter is required"), nil
	}

	commit, err := provider.ParseCommitID(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	build, err := s.store.GetBuild(ctx, string(commit))
	if err != nil {
		var notFound store.ErrNotFound
		if errors.As(err, &notFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no build known for commit %s", commit.Short())), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to get build: %v", err)), nil
	}

	return jsonResult(build)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
