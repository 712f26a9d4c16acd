package broker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// InMemoryBroker fans every published message out to all subscribers of the
// topic. Used for single-process runs and tests.
type InMemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Message
	offsets     map[string]int64
	closed      bool
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subscribers: make(map[string][]chan Message),
		offsets:     make(map[string]int64),
	}
}

// Publish delivers the message to every current subscriber of topic. It
// blocks while a subscriber's buffer is full, until ctx ends.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	offset := b.offsets[topic]
	b.offsets[topic] = offset + 1
	subs := append([]chan Message(nil), b.subscribers[topic]...)
	b.mu.Unlock()

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     value,
		Offset:    offset,
		Timestamp: time.Now().UnixMilli(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range subs {
		if !b.subscribed(topic, ch) {
			continue
		}
		select {
		case ch <- msg:
		case <-ctx.Done():
			return fmt.Errorf("failed to publish to %s: %w", topic, ctx.Err())
		}
	}
	return nil
}

// subscribed reports whether ch still belongs to topic. Callers hold mu.
func (b *InMemoryBroker) subscribed(topic string, ch chan Message) bool {
	for _, s := range b.subscribers[topic] {
		if s == ch {
			return true
		}
	}
	return false
}

// Subscribe registers a subscriber that receives messages published from
// now on. The channel closes when ctx ends or the broker is closed.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	ch := make(chan Message, subscriberBuffer)
	b.subscribers[topic] = append(b.subscribers[topic], ch)

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			b.unsubscribe(topic, ch)
		}()
	}
	return ch, nil
}

func (b *InMemoryBroker) unsubscribe(topic string, ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, s := range subs {
		if s == ch {
			b.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes every subscriber channel. Further calls are no-ops.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for topic, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
	return nil
}
