package kafka

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one consumed message. Returning an error leaves
// the offset uncommitted, so the message comes back after the group
// rebalances or the consumer restarts; within a live session the reader
// keeps moving forward.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer reads order events as part of a consumer group and hands each
// message to a handler.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
}

func NewConsumer(brokers []string, topic, groupID string, handler MessageHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // commit explicitly after the handler succeeds
		StartOffset:    kafka.FirstOffset,
		MaxWait:        500 * time.Millisecond,
	})
	return &Consumer{reader: reader, handler: handler}
}

// Run consumes until ctx is canceled. Handler failures are logged and the
// message is not committed; it is picked up again on the next rebalance or
// restart.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Kafka] fetch failed: %v", err)
			continue
		}

		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			log.Printf("[Kafka] handler failed for key %s: %v", msg.Key, err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("[Kafka] commit failed: %v", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
