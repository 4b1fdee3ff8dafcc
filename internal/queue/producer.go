package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/autoreply/internal/model"
)

// EventMessage carries one inbound event to the worker.
type EventMessage struct {
	Event   model.InboundEvent
	TraceID string
}

type Producer interface {
	Enqueue(ctx context.Context, msg EventMessage) error
}

type redisProducer struct {
	client StreamClient
	stream string
}

func NewRedisProducer(client StreamClient, stream string) Producer {
	return &redisProducer{
		client: client,
		stream: stream,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg EventMessage) error {
	payload, err := json.Marshal(msg.Event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	fields := map[string]any{
		fieldEvent:      string(payload),
		fieldEventID:    msg.Event.EventID(),
		fieldEnqueuedAt: time.Now().Unix(),
	}
	if msg.TraceID != "" {
		fields[fieldTraceID] = msg.TraceID
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	slog.InfoContext(ctx, "enqueued event",
		"stream_id", id,
		"event_id", msg.Event.EventID(),
		"kind", msg.Event.Kind)
	return nil
}
