package queue_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// fakeStreams records stream writes and serves a canned XReadGroup result.
type fakeStreams struct {
	mu       sync.Mutex
	added    map[string][]map[string]any
	acked    []string
	pending  []redis.XMessage
	readErr  error
	groupErr error
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{added: map[string][]map[string]any{}}
}

func (f *fakeStreams) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, _ := a.Values.(map[string]any)
	f.added[a.Stream] = append(f.added[a.Stream], values)
	return redis.NewStringResult(fmt.Sprintf("%d-0", len(f.added[a.Stream])), nil)
}

func (f *fakeStreams) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return redis.NewXStreamSliceCmdResult(nil, f.readErr)
	}
	if len(f.pending) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	msgs := f.pending
	f.pending = nil
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: msgs}}, nil)
}

func (f *fakeStreams) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeStreams) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return redis.NewStatusResult("OK", f.groupErr)
}
