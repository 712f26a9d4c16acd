// Package relay moves build status snapshots between a watcher stream, the
// message broker and the status store.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"buildwatch-agent/src/broker"
	"buildwatch-agent/src/contracts"
	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/provider"
	"buildwatch-agent/src/store"
)

// Publisher stamps every snapshot of a watcher run with the run id and a
// sequence number, then publishes it keyed by commit id and saves it.
// Either sink may be nil.
type Publisher struct {
	broker   broker.Broker
	store    store.Store
	provider string
	runID    string
	seq      atomic.Int64
	logger   logger.Logger
	now      func() time.Time
}

// NewPublisher creates a publisher for one watcher run.
func NewPublisher(brk broker.Broker, st store.Store, providerName string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Publisher{
		broker:   brk,
		store:    st,
		provider: providerName,
		runID:    uuid.NewString(),
		logger:   log,
		now:      time.Now,
	}
}

// RunID identifies this watcher run in published messages.
func (p *Publisher) RunID() string {
	return p.runID
}

// Run forwards every snapshot until the stream completes and returns the
// stream's terminal error. Sink failures are logged and do not stop the run.
func (p *Publisher) Run(ctx context.Context, stream *provider.Stream) error {
	p.logger.Info("[Relay] Run %s started", p.runID)

	count := 0
	for b := range stream.Updates() {
		if _, err := p.Publish(ctx, b); err != nil {
			p.logger.Error("[Relay] %v", err)
		}
		count++
	}

	err := stream.Wait()
	if err != nil {
		p.logger.Error("[Relay] Run %s ended with error after %d updates: %v", p.runID, count, err)
	} else {
		p.logger.Info("[Relay] Run %s complete, %d updates", p.runID, count)
	}
	return err
}

// Publish sends one snapshot to the configured sinks.
func (p *Publisher) Publish(ctx context.Context, b provider.BuildRecord) (contracts.BuildStatusUpdate, error) {
	update := contracts.FromRecord(b, p.provider, p.runID, p.seq.Add(1), p.now())
	p.logger.Debug("[Relay] %s %s %s", update.CommitID, update.Status, update.Summary)

	if p.store != nil {
		if _, err := p.store.SaveBuild(ctx, update); err != nil {
			return update, fmt.Errorf("failed to save %s: %w", update.CommitID, err)
		}
	}

	if p.broker != nil {
		data, err := json.Marshal(update)
		if err != nil {
			return update, fmt.Errorf("failed to marshal update: %w", err)
		}
		// Keyed by commit so snapshots of one commit stay ordered
		if err := p.broker.Publish(ctx, contracts.TopicBuildStatus, update.CommitID, data); err != nil {
			return update, fmt.Errorf("failed to publish %s: %w", update.CommitID, err)
		}
	}

	return update, nil
}
