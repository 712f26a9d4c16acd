package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func collect(t *testing.T, s *Stream) []BuildRecord {
	t.Helper()

	var got []BuildRecord
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b, ok := <-s.Updates():
			if !ok {
				return got
			}
			got = append(got, b)
		case <-timeout:
			t.Fatal("timeout waiting for stream to complete")
		}
	}
}

func TestStream_DeliversInOrderAndCompletes(t *testing.T) {
	s := NewStream(context.Background(), nil, func(ctx context.Context, emit Emit) error {
		for _, v := range []string{"1", "2", "3"} {
			if err := emit(BuildRecord{Version: v}); err != nil {
				return err
			}
		}
		return nil
	})

	got := collect(t, s)

	if len(got) != 3 {
		t.Fatalf("received %d updates, want 3", len(got))
	}
	for i, v := range []string{"1", "2", "3"} {
		if got[i].Version != v {
			t.Errorf("update %d version = %s, want %s", i, got[i].Version, v)
		}
	}
	if err := s.Wait(); err != nil {
		t.Errorf("Wait() error = %v, want nil", err)
	}
}

func TestStream_ProducerErrorIsTerminal(t *testing.T) {
	boom := errors.New("boom")
	s := NewStream(context.Background(), nil, func(ctx context.Context, emit Emit) error {
		_ = emit(BuildRecord{Version: "1"})
		return boom
	})

	got := collect(t, s)

	if len(got) != 1 {
		t.Errorf("received %d updates, want 1", len(got))
	}
	if err := s.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait() error = %v, want %v", err, boom)
	}
	if err := s.Err(); !errors.Is(err, boom) {
		t.Errorf("Err() = %v, want %v", err, boom)
	}
}

func TestStream_CancellationCompletesCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	s := NewStream(ctx, nil, func(ctx context.Context, emit Emit) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	if err := s.Err(); err != nil {
		t.Errorf("Err() while running = %v, want nil", err)
	}
	cancel()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not complete after cancel")
	}
	if err := s.Wait(); err != nil {
		t.Errorf("Wait() error = %v, want nil after cancellation", err)
	}
}

func TestStream_CancelledConsumerDoesNotBlockProducer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := NewStream(ctx, nil, func(ctx context.Context, emit Emit) error {
		for {
			if err := emit(BuildRecord{BuildID: "x"}); err != nil {
				return err
			}
		}
	})

	// Nobody reads; the producer fills the buffer and must unblock on cancel.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("producer stayed blocked after cancel")
	}
}

func TestStream_UsesExecutor(t *testing.T) {
	ran := false
	exec := func(fn func()) {
		ran = true
		fn() // run inline
	}

	s := NewStream(context.Background(), exec, func(ctx context.Context, emit Emit) error {
		return nil
	})

	if !ran {
		t.Fatal("executor was not used")
	}
	if err := s.Wait(); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestFailed(t *testing.T) {
	boom := errors.New("config")
	s := Failed(boom)

	if _, ok := <-s.Updates(); ok {
		t.Error("Updates() should be closed")
	}
	if err := s.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait() error = %v, want %v", err, boom)
	}
}
