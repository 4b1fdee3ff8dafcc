package store_test

import (
	"context"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoreply/common/id"
	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/store"
)

var _ = Describe("MemoryStores", func() {
	var (
		ctx    context.Context
		stores *store.MemoryStores
	)

	BeforeEach(func() {
		ctx = context.Background()
		ids, err := id.NewGenerator(1)
		Expect(err).NotTo(HaveOccurred())
		stores = store.NewMemoryStores(ids)
	})

	Describe("Conversations", func() {
		It("returns the newest entries oldest first", func() {
			convs := stores.Conversations()
			for i := 1; i <= 7; i++ {
				Expect(convs.Append(ctx, "u1", model.ConversationEntry{
					UserMessage:   fmt.Sprintf("q%d", i),
					BotReply:      fmt.Sprintf("a%d", i),
					SourceEventID: fmt.Sprintf("m%d", i),
				})).To(Succeed())
			}

			recent, err := convs.Recent(ctx, "u1", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(5))
			Expect(recent[0].UserMessage).To(Equal("q3"))
			Expect(recent[4].UserMessage).To(Equal("q7"))
			Expect(recent[4].Timestamp.IsZero()).To(BeFalse())

			count, err := convs.Count(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(7)))
		})

		It("returns nothing for unknown participants", func() {
			recent, err := stores.Conversations().Recent(ctx, "nobody", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(BeEmpty())
		})

		It("keeps every concurrent append", func() {
			convs := stores.Conversations()
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(convs.Append(ctx, "u1", model.ConversationEntry{SourceEventID: fmt.Sprint(i)})).To(Succeed())
				}(i)
			}
			wg.Wait()

			count, err := convs.Count(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(50)))
		})
	})

	Describe("FailedReplies", func() {
		It("assigns ids and lists newest first", func() {
			failures := stores.FailedReplies()
			first := &model.FailedReply{ParticipantID: "u1", SourceEventID: "m1", ErrorKind: model.FailureKindSend}
			second := &model.FailedReply{ParticipantID: "u1", SourceEventID: "m2", ErrorKind: model.FailureKindGeneration}
			other := &model.FailedReply{ParticipantID: "u2", SourceEventID: "m3"}

			Expect(failures.Create(ctx, first)).To(Succeed())
			Expect(failures.Create(ctx, second)).To(Succeed())
			Expect(failures.Create(ctx, other)).To(Succeed())
			Expect(first.ID).NotTo(BeZero())
			Expect(second.ID).To(BeNumerically(">", first.ID))

			list, err := failures.ListByParticipant(ctx, "u1", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].SourceEventID).To(Equal("m2"))
			Expect(list[1].SourceEventID).To(Equal("m1"))
		})
	})
})
