package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/provider"
	"buildwatch-agent/src/relay"
	"buildwatch-agent/src/tui"
)

// watchCmd streams build updates to stdout and the configured sinks
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch builds and print every status change",
	Long: `Discover the builds of the configured projects and follow them until
every build has finished. Each update is printed as one line and, when
configured, published to Redpanda and stored in Postgres.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		if err := runWatch(log, openSinks); err != nil {
			fail(err)
		}
		log.Info("All builds finished")
	},
}

// runWatch returns only after the sinks are closed, so a failed stream still
// flushes what was published before it.
func runWatch(log logger.Logger, open sinkOpener) error {
	ctx, cancel := signalContext(log)
	defer cancel()

	server, err := newBuildServer(log)
	if err != nil {
		return err
	}

	out, err := open(ctx, log, false)
	if err != nil {
		return err
	}
	defer out.Close()

	pub := relay.NewPublisher(out.Broker, out.Store, server.Name(), log)
	stream := server.Watch(ctx, provider.AllCommits)

	for b := range stream.Updates() {
		fmt.Printf("%s %-11s %-20s %s\n", b.CommitID.Short(), b.Status, b.Project, b.Summary())
		if _, err := pub.Publish(ctx, b); err != nil {
			log.Error("%v", err)
		}
	}
	return stream.Wait()
}

// tuiCmd runs the watcher behind the live terminal view
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Watch builds in a live terminal view",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// Logs would corrupt the alternate screen
		log := logger.NewSilentLogger()
		ctx, cancel := signalContext(log)
		defer cancel()

		server, err := newBuildServer(log)
		if err != nil {
			fail(err)
		}

		stream := server.Watch(ctx, provider.AllCommits)
		title := fmt.Sprintf("AppVeyor · %s", appConfig.AccountName)
		model := tui.NewModel(title, stream, cancel)

		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}
	},
}
