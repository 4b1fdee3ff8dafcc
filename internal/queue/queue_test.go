package queue_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/queue"
)

var _ = Describe("Queue", func() {
	var (
		ctx     context.Context
		streams *fakeStreams
		cfg     queue.ConsumerConfig
	)

	BeforeEach(func() {
		ctx = context.Background()
		streams = newFakeStreams()
		cfg = queue.ConsumerConfig{
			Stream:    "autoreply_events",
			Group:     "autoreply_group",
			Consumer:  "worker-1",
			DLQStream: "autoreply_events_dlq",
		}
	})

	dm := func() model.InboundEvent {
		ev, err := model.NewDirectMessageEvent(model.PlatformInstagram, model.DirectMessageEvent{
			SenderID: "u1", MessageID: "m1", Text: "hi",
		})
		Expect(err).NotTo(HaveOccurred())
		return ev
	}

	// deliver moves everything the producer wrote into the consumer's next read.
	deliver := func() {
		for i, values := range streams.added[cfg.Stream] {
			streams.pending = append(streams.pending, redis.XMessage{ID: fmt.Sprintf("%d-0", i+1), Values: values})
		}
	}

	It("round-trips an event through the stream", func() {
		producer := queue.NewRedisProducer(streams, cfg.Stream)
		Expect(producer.Enqueue(ctx, queue.EventMessage{Event: dm(), TraceID: "abc123"})).To(Succeed())

		consumer, err := queue.NewRedisConsumer(ctx, streams, cfg)
		Expect(err).NotTo(HaveOccurred())

		deliver()
		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(1))
		Expect(messages[0].Event).To(Equal(dm()))
		Expect(messages[0].TraceID).To(Equal("abc123"))
		Expect(messages[0].EnqueuedAt.IsZero()).To(BeFalse())

		Expect(consumer.Ack(ctx, messages[0])).To(Succeed())
		Expect(streams.acked).To(Equal([]string{"1-0"}))
	})

	It("returns an empty batch when nothing is pending", func() {
		consumer, err := queue.NewRedisConsumer(ctx, streams, cfg)
		Expect(err).NotTo(HaveOccurred())

		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(BeEmpty())
	})

	It("dead-letters messages it cannot decode", func() {
		consumer, err := queue.NewRedisConsumer(ctx, streams, cfg)
		Expect(err).NotTo(HaveOccurred())

		streams.pending = []redis.XMessage{{ID: "7-0", Values: map[string]any{"event": "{not json"}}}
		messages, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(BeEmpty())
		Expect(streams.acked).To(Equal([]string{"7-0"}))
		Expect(streams.added[cfg.DLQStream]).To(HaveLen(1))
		Expect(streams.added[cfg.DLQStream][0]).To(HaveKeyWithValue("original_id", "7-0"))
	})

	It("tolerates an existing consumer group", func() {
		streams.groupErr = errors.New("BUSYGROUP Consumer Group name already exists")
		_, err := queue.NewRedisConsumer(ctx, streams, cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("fails on other group errors", func() {
		streams.groupErr = errors.New("NOAUTH")
		_, err := queue.NewRedisConsumer(ctx, streams, cfg)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("ParseMessage rejects bad entries",
		func(values map[string]any) {
			_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
			Expect(err).To(HaveOccurred())
		},
		Entry("missing event", map[string]any{"trace_id": "x"}),
		Entry("invalid event", map[string]any{"event": `{"kind":"comment"}`}),
		Entry("bad timestamp", map[string]any{
			"event":       `{"kind":"direct_message","direct_message":{"sender_id":"u1","message_id":"m1","text":"hi"}}`,
			"enqueued_at": "yesterday",
		}),
	)
})
