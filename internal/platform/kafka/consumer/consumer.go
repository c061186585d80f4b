package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the transport-neutral view of a queue record handed to handlers.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message. Returning nil acknowledges the message
// (offset committed); returning an error leaves it unacknowledged so it is
// retried, and redelivered after a crash. Handlers that want to drop a
// message must therefore return nil.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// retryBackoff paces re-processing of a message whose handler failed.
const retryBackoff = 2 * time.Second

// Consumer pulls records from the ingest topic one at a time. Multiple
// processes share the consumer group and compete for partitions; within a
// process exactly one record is in flight.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New builds a group consumer with manual commits.
func New(brokers []string, group, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled. Offsets are committed only after the
// handler accepts a record, so processing is at-least-once.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollRecords(ctx, 1)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		for _, record := range fetches.Records() {
			if err := c.process(ctx, record); err != nil {
				return err
			}
		}
	}
}

// process retries the handler until it accepts the record or ctx ends. This
// is the requeue path: the offset stays uncommitted the whole time.
func (c *Consumer) process(ctx context.Context, record *kgo.Record) error {
	msg := &Message{
		Topic:     record.Topic,
		Key:       record.Key,
		Value:     record.Value,
		Timestamp: record.Timestamp,
	}
	for {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			if err := c.client.CommitRecords(ctx, record); err != nil {
				return fmt.Errorf("commit record: %w", err)
			}
			return nil
		}

		c.logger.Warn("message processing failed, will retry",
			"topic", record.Topic,
			"offset", record.Offset,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
