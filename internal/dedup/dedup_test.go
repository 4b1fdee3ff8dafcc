package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

type fakeSetNX struct {
	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func (f *fakeSetNX) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = expiration
	return redis.NewBoolResult(true, nil)
}

var _ = Describe("MemoryTracker", func() {
	var (
		ctx     context.Context
		tracker *MemoryTracker
	)

	BeforeEach(func() {
		ctx = context.Background()
		tracker = NewMemoryTracker()
	})

	It("processes an id once", func() {
		Expect(tracker.ShouldProcess(ctx, "m1", "bot", "user")).To(BeTrue())
		Expect(tracker.ShouldProcess(ctx, "m1", "bot", "user")).To(BeFalse())
		Expect(tracker.ShouldProcess(ctx, "m2", "bot", "user")).To(BeTrue())
	})

	It("skips self-authored events without marking them", func() {
		Expect(tracker.ShouldProcess(ctx, "m1", "bot", "bot")).To(BeFalse())
		Expect(tracker.Len()).To(Equal(0))
	})

	It("does not treat an empty self id as a match", func() {
		Expect(tracker.ShouldProcess(ctx, "m1", "", "")).To(BeTrue())
	})

	It("lets exactly one of many concurrent callers through", func() {
		const callers = 64
		var (
			wg      sync.WaitGroup
			allowed atomic.Int32
		)
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if tracker.ShouldProcess(ctx, "same-id", "bot", "user") {
					allowed.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		Expect(allowed.Load()).To(Equal(int32(1)))
		Expect(tracker.Len()).To(Equal(1))
	})
})

var _ = Describe("RedisTracker", func() {
	var (
		ctx    context.Context
		client *fakeSetNX
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeSetNX{keys: map[string]time.Duration{}}
	})

	It("uses SET NX with the configured ttl", func() {
		tracker := NewRedisTracker(client, time.Hour)

		Expect(tracker.ShouldProcess(ctx, "c1", "bot", "user")).To(BeTrue())
		Expect(tracker.ShouldProcess(ctx, "c1", "bot", "user")).To(BeFalse())
		Expect(client.keys).To(HaveKeyWithValue(redisKeyPrefix+"c1", time.Hour))
	})

	It("skips self-authored events before touching redis", func() {
		tracker := NewRedisTracker(client, time.Hour)

		Expect(tracker.ShouldProcess(ctx, "c1", "bot", "bot")).To(BeFalse())
		Expect(client.keys).To(BeEmpty())
	})

	It("drops the event when redis fails", func() {
		client.err = errors.New("connection refused")
		tracker := NewRedisTracker(client, time.Hour)

		Expect(tracker.ShouldProcess(ctx, "c1", "bot", "user")).To(BeFalse())
	})
})
