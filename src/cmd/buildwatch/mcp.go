package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/mcp"
	"buildwatch-agent/src/provider"
	"buildwatch-agent/src/relay"
)

// mcpCmd serves build status over MCP on stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve build status to MCP clients over stdio",
	Long: `Start an MCP server on stdio with the tools list_builds and
get_build_status.

Statuses are read from Postgres when POSTGRES_DSN is set. When an AppVeyor
account is configured, a watcher runs in-process and keeps the statuses
current.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMCP(); err != nil {
			fail(err)
		}
	},
}

func runMCP() error {
	// stdout carries the protocol
	log := logger.NewSilentLogger()
	ctx, cancel := signalContext(log)
	defer cancel()

	out, err := openSinks(ctx, log, true)
	if err != nil {
		return err
	}
	defer out.Close()

	if appConfig.AccountName != "" {
		server, err := newBuildServer(log)
		if err != nil {
			return err
		}
		pub := relay.NewPublisher(out.Broker, out.Store, server.Name(), log)
		go func() {
			if err := pub.Run(ctx, server.Watch(ctx, provider.AllCommits)); err != nil {
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", provider.WrapError(err))
			}
		}()
	}

	if err := mcp.NewServer(out.Store).Run(); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}
