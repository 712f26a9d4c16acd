package provider

import (
	"context"
)

// streamBuffer bounds how far the producer may run ahead of a slow consumer.
const streamBuffer = 32

// Executor runs fn on a host-supplied scheduling context.
type Executor func(fn func())

// Emit hands one snapshot to the consumer. It fails only when the stream's
// context is done.
type Emit func(BuildRecord) error

// Producer drives a stream. Returning nil completes it normally.
type Producer func(ctx context.Context, emit Emit) error

// Stream is a single-producer, push-based sequence of build snapshots.
// It completes exactly once, either normally or with an error.
type Stream struct {
	updates chan BuildRecord
	done    chan struct{}
	err     error
}

// NewStream starts produce on exec and returns the stream it feeds.
// Cancelling ctx stops the producer at its next fetch boundary and
// completes the stream without error.
func NewStream(ctx context.Context, exec Executor, produce Producer) *Stream {
	s := &Stream{
		updates: make(chan BuildRecord, streamBuffer),
		done:    make(chan struct{}),
	}
	if exec == nil {
		exec = func(fn func()) { go fn() }
	}
	exec(func() { s.run(ctx, produce) })
	return s
}

// Failed returns a stream that has already completed with err.
func Failed(err error) *Stream {
	s := &Stream{
		updates: make(chan BuildRecord),
		done:    make(chan struct{}),
		err:     err,
	}
	close(s.updates)
	close(s.done)
	return s
}

func (s *Stream) run(ctx context.Context, produce Producer) {
	err := produce(ctx, func(b BuildRecord) error {
		select {
		case s.updates <- b:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if ctx.Err() != nil {
		// Cancellation is a clean completion whatever the producer saw.
		err = nil
	}

	s.err = err
	close(s.updates)
	close(s.done)
}

// Updates yields snapshots in emission order and is closed on completion.
func (s *Stream) Updates() <-chan BuildRecord {
	return s.updates
}

// Done is closed once the stream has completed.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the stream completes and returns its terminal error.
func (s *Stream) Wait() error {
	<-s.done
	return s.err
}

// Err returns the terminal error, or nil while the stream is running.
func (s *Stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
