// Package main provides the buildwatch CLI: it watches AppVeyor builds and
// reports their status to the terminal, a message broker, Postgres or MCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "buildwatch-agent/src/appveyor" // Import for provider registration
	"buildwatch-agent/src/config"
	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/pipeline"
	"buildwatch-agent/src/provider"
)

var (
	appConfig  *config.Config
	configFile string
	debug      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "buildwatch",
	Short: "buildwatch - live AppVeyor build status for your commits",
	Long: `buildwatch discovers the AppVeyor builds of an account's projects and
follows every build until it finishes.

Configuration comes from an optional file (--config) and the environment:
APPVEYOR_ACCOUNT_NAME, APPVEYOR_ACCOUNT_TOKEN, APPVEYOR_PROJECT_NAMES,
APPVEYOR_LOAD_TEST_RESULTS, APPVEYOR_URL, BUILDWATCH_POLL_INTERVAL.

Set REDPANDA_BROKERS to publish updates and POSTGRES_DSN to store them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		appConfig, err = config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}
		if debug {
			appConfig.Debug = true
		}
	},
}

// newLogger returns the console logger configured for the command.
func newLogger() logger.Logger {
	if appConfig.Debug {
		return logger.NewDebugLogger()
	}
	return logger.NewConsoleLogger()
}

// newBuildServer creates the AppVeyor watcher from the loaded configuration.
// Project names may reference environment variables, e.g. "${REPO}".
func newBuildServer(log logger.Logger) (provider.BuildServer, error) {
	if err := appConfig.Validate(); err != nil {
		return nil, err
	}
	return provider.NewBuildServer("appveyor", appConfig.Settings(), provider.Options{
		Logger: log,
		Expand: os.ExpandEnv,
	})
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Info("Shutdown signal received, stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// fail prints err with its hint and exits.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", provider.WrapError(err))
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print debug logs")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type sinkOpener func(ctx context.Context, log logger.Logger, memoryStore bool) (*pipeline.Sinks, error)

// openSinks connects to the broker and store named by the configuration.
func openSinks(ctx context.Context, log logger.Logger, memoryStore bool) (*pipeline.Sinks, error) {
	return pipeline.Open(ctx, &pipeline.Config{
		RedpandaBrokers: appConfig.RedpandaBrokers,
		PostgresDSN:     appConfig.PostgresDSN,
		MemoryStore:     memoryStore,
	}, log)
}
