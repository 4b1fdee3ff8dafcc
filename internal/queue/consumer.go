package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/autoreply/common/logger"
	"basegraph.app/autoreply/internal/model"
)

type ConsumerConfig struct {
	Stream    string        // Redis stream name
	Group     string        // Redis consumer group name
	Consumer  string        // Redis consumer name
	DLQStream string        // Dead letter stream for unreadable messages
	BatchSize int64         // Number of messages to read per batch
	Block     time.Duration // How long to block/poll for new messages
}

type Message struct {
	ID         string
	Event      model.InboundEvent
	TraceID    string
	EnqueuedAt time.Time
	Raw        redis.XMessage
}

type RedisConsumer struct {
	client StreamClient
	cfg    ConsumerConfig
}

func NewRedisConsumer(ctx context.Context, client StreamClient, cfg ConsumerConfig) (*RedisConsumer, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}

	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(ctx); err != nil {
		return nil, err
	}

	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Start from "0" so events enqueued before the group existed are not lost.
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Read returns the next batch of new messages. Messages that cannot be
// decoded are moved to the dead letter stream and not returned.
func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "autoreply.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// ">" reads only messages never delivered to this group. Pending
		// messages are not redelivered: a reply may already have been sent.
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			parsed, parseErr := ParseMessage(raw)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to parse message",
					"error", parseErr,
					"raw_message_id", raw.ID,
					"stream", c.cfg.Stream)
				if dlqErr := c.SendDLQ(ctx, Message{ID: raw.ID, Raw: raw}, parseErr.Error()); dlqErr != nil {
					slog.ErrorContext(ctx, "failed to dead-letter message", "error", dlqErr, "raw_message_id", raw.ID)
				}
				continue
			}
			messages = append(messages, parsed)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read messages from stream",
			"count", len(messages),
			"stream", c.cfg.Stream,
			"consumer", c.cfg.Consumer)
	}

	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}
	return nil
}

// SendDLQ acks msg and copies its raw fields to the dead letter stream.
func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for dlq: %w", err)
	}

	values := make(map[string]any, len(msg.Raw.Values)+2)
	for k, v := range msg.Raw.Values {
		values[k] = v
	}
	values["error"] = errMsg
	values["original_id"] = msg.ID

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.DLQStream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "message sent to DLQ",
		"final_error", errMsg,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}

// ParseMessage decodes and validates a stream entry written by the producer.
func ParseMessage(raw redis.XMessage) (Message, error) {
	payload, ok := raw.Values[fieldEvent]
	if !ok {
		return Message{}, fmt.Errorf("missing %s", fieldEvent)
	}

	var event model.InboundEvent
	if err := json.Unmarshal([]byte(fmt.Sprint(payload)), &event); err != nil {
		return Message{}, fmt.Errorf("decoding %s: %w", fieldEvent, err)
	}
	if err := event.Validate(); err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:    raw.ID,
		Event: event,
		Raw:   raw,
	}

	if traceID, ok := raw.Values[fieldTraceID]; ok {
		msg.TraceID = fmt.Sprint(traceID)
	}
	if enqueuedAt, ok := raw.Values[fieldEnqueuedAt]; ok {
		secs, err := strconv.ParseInt(fmt.Sprint(enqueuedAt), 10, 64)
		if err != nil {
			return Message{}, fmt.Errorf("parsing %s: %w", fieldEnqueuedAt, err)
		}
		msg.EnqueuedAt = time.Unix(secs, 0)
	}

	return msg, nil
}
