// Package pipeline wires the sinks a watcher run publishes to: the message
// broker and the status store, chosen from the configured mode.
package pipeline

import (
	"context"
	"fmt"

	"buildwatch-agent/src/broker"
	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/store"
)

// Mode selects where updates go.
type Mode int

const (
	// LocalMode keeps everything in process.
	LocalMode Mode = iota
	// DistributedMode publishes to Redpanda for record agents.
	DistributedMode
)

func (m Mode) String() string {
	if m == DistributedMode {
		return "distributed"
	}
	return "local"
}

// Config holds the connection settings of the sinks.
type Config struct {
	RedpandaBrokers []string
	PostgresDSN     string
	// MemoryStore keeps statuses in process when no Postgres is configured.
	MemoryStore bool
}

// DetectMode returns DistributedMode when brokers are configured.
func DetectMode(cfg *Config) Mode {
	if len(cfg.RedpandaBrokers) > 0 {
		return DistributedMode
	}
	return LocalMode
}

// Sinks holds the destinations of published updates. Either may be nil.
type Sinks struct {
	Mode   Mode
	Broker broker.Broker
	Store  store.Store
}

// Open connects to the configured sinks.
func Open(ctx context.Context, cfg *Config, log logger.Logger) (*Sinks, error) {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	s := &Sinks{Mode: DetectMode(cfg)}

	if s.Mode == DistributedMode {
		brk, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
		}
		if err := brk.Ping(ctx); err != nil {
			brk.Close()
			return nil, fmt.Errorf("redpanda unreachable: %w", err)
		}
		s.Broker = brk
		log.Info("[Pipeline] Publishing to Redpanda: %v", cfg.RedpandaBrokers)
	}

	switch {
	case cfg.PostgresDSN != "":
		st, err := store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create Postgres store: %w", err)
		}
		s.Store = st
		log.Info("[Pipeline] Storing build status in Postgres")
	case cfg.MemoryStore:
		s.Store = store.NewMemoryStore()
	}

	return s, nil
}

// Close releases the sinks.
func (s *Sinks) Close() error {
	var firstErr error
	if s.Broker != nil {
		if err := s.Broker.Close(); err != nil {
			firstErr = err
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
