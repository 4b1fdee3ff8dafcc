// Package dedup remembers which webhook events have already been handled so
// Meta's redeliveries never produce a second reply.
package dedup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tracker decides whether an event should be processed. ShouldProcess
// returns false for events authored by the bot itself (selfID non-empty and
// equal to actorID) and for events already seen; otherwise it marks the event
// seen and returns true. Check and mark happen atomically, and bot-authored
// events are rejected before marking.
type Tracker interface {
	ShouldProcess(ctx context.Context, eventID, selfID, actorID string) bool
}

func isSelf(selfID, actorID string) bool {
	return selfID != "" && actorID == selfID
}

// MemoryTracker keeps seen ids for the lifetime of the process.
type MemoryTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{seen: make(map[string]struct{})}
}

func (t *MemoryTracker) ShouldProcess(ctx context.Context, eventID, selfID, actorID string) bool {
	if isSelf(selfID, actorID) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[eventID]; ok {
		return false
	}
	t.seen[eventID] = struct{}{}
	return true
}

// Len returns the number of ids marked seen.
func (t *MemoryTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

const redisKeyPrefix = "autoreply:seen:"

// setNXClient is the slice of the redis client RedisTracker needs.
type setNXClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisTracker shares the seen set between the server and workers through
// SET NX. Keys expire after ttl, well past Meta's redelivery window.
type RedisTracker struct {
	client setNXClient
	ttl    time.Duration
}

func NewRedisTracker(client setNXClient, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, ttl: ttl}
}

// ShouldProcess fails closed: when Redis is unreachable the event is dropped
// rather than risk a duplicate reply.
func (t *RedisTracker) ShouldProcess(ctx context.Context, eventID, selfID, actorID string) bool {
	if isSelf(selfID, actorID) {
		return false
	}

	ok, err := t.client.SetNX(ctx, redisKeyPrefix+eventID, time.Now().Unix(), t.ttl).Result()
	if err != nil {
		slog.ErrorContext(ctx, "dedup check failed, dropping event",
			"error", err,
			"event_id", eventID)
		return false
	}
	return ok
}
