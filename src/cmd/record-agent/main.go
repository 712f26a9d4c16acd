// Package main provides the standalone record agent binary. It consumes the
// build status topic from Redpanda into Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"buildwatch-agent/src/broker"
	"buildwatch-agent/src/config"
	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/relay"
	"buildwatch-agent/src/store"
)

var (
	configFile string
	migrate    bool
)

var rootCmd = &cobra.Command{
	Use:          "record-agent",
	Short:        "Record build status updates from Redpanda into Postgres",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func run() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if len(cfg.RedpandaBrokers) == 0 {
		fmt.Fprintln(os.Stderr, "Example: export REDPANDA_BROKERS=localhost:19092")
		return errors.New("REDPANDA_BROKERS environment variable is required for record agent")
	}
	if cfg.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN environment variable is required for record agent")
	}

	var log logger.Logger = logger.NewConsoleLogger()
	if cfg.Debug {
		log = logger.NewDebugLogger()
	}

	log.Info("Starting buildwatch record agent")
	log.Info("Redpanda brokers: %v", cfg.RedpandaBrokers)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer st.Close()

	if migrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		log.Info("Schema migrated")
	}

	brk, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
	if err != nil {
		return fmt.Errorf("failed to create broker: %w", err)
	}
	defer brk.Close()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutdown signal received, stopping agent...")
		cancel()
	}()

	agent := relay.NewRecorder(brk, st, log)
	if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("agent error: %w", err)
	}

	log.Info("Record agent stopped")
	return nil
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.Flags().BoolVar(&migrate, "migrate", false, "create the build_status table before consuming")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
