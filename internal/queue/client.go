package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// StreamClient is the subset of *redis.Client the queue uses.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
}

const (
	fieldEvent      = "event"
	fieldTraceID    = "trace_id"
	fieldEnqueuedAt = "enqueued_at"
	fieldEventID    = "event_id"
)
