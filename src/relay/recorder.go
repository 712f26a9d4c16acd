package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"buildwatch-agent/src/broker"
	"buildwatch-agent/src/contracts"
	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/store"
)

// RecorderGroup is the consumer group of record agents.
const RecorderGroup = "buildwatch-recorder"

// Recorder consumes the build status topic into a store.
type Recorder struct {
	broker broker.Broker
	store  store.Store
	logger logger.Logger
}

// NewRecorder creates a new record agent.
func NewRecorder(brk broker.Broker, st store.Store, log logger.Logger) *Recorder {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Recorder{
		broker: brk,
		store:  st,
		logger: log,
	}
}

// Run starts the agent's main loop.
// It subscribes to buildwatch.builds.status and saves every snapshot.
func (r *Recorder) Run(ctx context.Context) error {
	r.logger.Info("[Recorder] Starting...")

	msgChan, err := r.broker.Subscribe(ctx, contracts.TopicBuildStatus, RecorderGroup)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicBuildStatus, err)
	}

	r.logger.Info("[Recorder] Listening for build status on '%s' topic...", contracts.TopicBuildStatus)

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				r.logger.Info("[Recorder] Message channel closed, shutting down")
				return nil
			}

			if err := r.record(ctx, msg); err != nil {
				r.logger.Error("[Recorder] Error recording message at offset %d: %v", msg.Offset, err)
			}

		case <-ctx.Done():
			r.logger.Info("[Recorder] Context cancelled, shutting down")
			return ctx.Err()
		}
	}
}

func (r *Recorder) record(ctx context.Context, msg broker.Message) error {
	var update contracts.BuildStatusUpdate
	if err := json.Unmarshal(msg.Value, &update); err != nil {
		return fmt.Errorf("failed to unmarshal update: %w", err)
	}
	if update.CommitID == "" {
		return fmt.Errorf("update without commit id (key %q)", msg.Key)
	}

	saved, err := r.store.SaveBuild(ctx, update)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", update.CommitID, err)
	}
	if !saved {
		r.logger.Debug("[Recorder] Skipped stale update %s #%d for %s", update.RunID, update.Sequence, update.CommitID)
		return nil
	}

	if update.IsTerminal() {
		r.logger.Info("[Recorder] %s finished: %s", update.CommitID, update.Summary)
		return nil
	}
	r.logger.Debug("[Recorder] %s -> %s", update.CommitID, update.Status)
	return nil
}
