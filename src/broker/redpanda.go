package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"buildwatch-agent/src/logger"
)

// clientID identifies buildwatch connections in broker logs and metrics.
const clientID = "buildwatch"

// RedpandaBroker carries build status snapshots over Redpanda, or any
// Kafka-compatible cluster, using franz-go.
type RedpandaBroker struct {
	client    *kgo.Client
	brokers   []string
	mu        sync.RWMutex
	consumers map[string]*kgo.Client // topic+groupID -> consumer client
	closed    bool
	log       logger.Logger
}

// NewRedpandaBroker creates a new RedpandaBroker instance.
// brokers is a slice of broker addresses (e.g., ["localhost:19092"]).
func NewRedpandaBroker(brokers []string, log logger.Logger) (*RedpandaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	// Producer client. Records are partitioned by key hash, so all snapshots
	// of one commit stay ordered within a partition.
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &RedpandaBroker{
		client:    client,
		brokers:   brokers,
		consumers: make(map[string]*kgo.Client),
		closed:    false,
		log:       log,
	}, nil
}

// Ping checks that at least one seed broker is reachable.
func (b *RedpandaBroker) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	if err := b.client.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach brokers %v: %w", b.brokers, err)
	}
	return nil
}

// Publish produces one keyed record and waits for every in-sync replica to
// acknowledge it. An empty key is rejected: records are partitioned by key,
// and an unkeyed build snapshot could overtake an older one of its commit.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("publish to %s: %w", topic, ErrMissingKey)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	if err := b.client.ProduceSync(ctx, newRecord(topic, key, value)).FirstErr(); err != nil {
		return fmt.Errorf("produce %s to %s: %w", key, topic, err)
	}
	return nil
}

// Subscribe joins groupID on topic. A new group starts from the beginning of
// the topic so a fresh recorder backfills every retained snapshot.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	consumerKey := topic + ":" + groupID
	if _, exists := b.consumers[consumerKey]; exists {
		return nil, fmt.Errorf("already consuming %s as %s", topic, groupID)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.brokers...),
		kgo.ClientID(clientID),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create consumer for %s: %w", topic, err)
	}
	b.consumers[consumerKey] = consumer

	msgChan := make(chan Message, 100)
	go b.consumeLoop(ctx, consumer, msgChan)
	b.log.Info("[RedpandaBroker] consuming %s as %s", topic, groupID)

	return msgChan, nil
}

// consumeLoop forwards keyed records until ctx ends or the consumer closes.
func (b *RedpandaBroker) consumeLoop(ctx context.Context, consumer *kgo.Client, msgChan chan<- Message) {
	defer close(msgChan)

	for ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if ctx.Err() == nil {
				b.log.Warn("[RedpandaBroker] fetch error on %s/%d: %v", topic, partition, err)
			}
		})

		stopped := false
		fetches.EachRecord(func(record *kgo.Record) {
			if stopped {
				return
			}
			msg, ok := toMessage(record)
			if !ok {
				b.log.Warn("[RedpandaBroker] dropping unkeyed record %s/%d@%d", record.Topic, record.Partition, record.Offset)
				return
			}
			b.log.Debug("[RedpandaBroker] %s/%d@%d commit %s", msg.Topic, msg.Partition, msg.Offset, msg.Key)

			select {
			case msgChan <- msg:
			case <-ctx.Done():
				stopped = true
			}
		})
	}
}

// newRecord builds a record tagged with the producing client.
func newRecord(topic, key string, value []byte) *kgo.Record {
	return &kgo.Record{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: []kgo.RecordHeader{{Key: "producer", Value: []byte(clientID)}},
	}
}

// toMessage converts a fetched record. Records without a commit key are
// reported as not ok.
func toMessage(record *kgo.Record) (Message, bool) {
	if len(record.Key) == 0 {
		return Message{}, false
	}
	return Message{
		Topic:     record.Topic,
		Key:       string(record.Key),
		Value:     record.Value,
		Offset:    record.Offset,
		Partition: record.Partition,
		Timestamp: record.Timestamp.UnixMilli(),
	}, true
}

// Close shuts down the broker and all consumer connections.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for _, consumer := range b.consumers {
		consumer.Close()
	}
	b.consumers = make(map[string]*kgo.Client)

	b.client.Close()

	return nil
}
