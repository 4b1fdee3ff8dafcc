package service_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoreply/common/id"
	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/pipeline"
	"basegraph.app/autoreply/internal/service"
	"basegraph.app/autoreply/internal/store"
)

var _ = Describe("OutcomeRecorder", func() {
	var (
		ctx      context.Context
		stores   *store.MemoryStores
		recorder *service.OutcomeRecorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		ids, err := id.NewGenerator(1)
		Expect(err).NotTo(HaveOccurred())
		stores = store.NewMemoryStores(ids)
		recorder = service.NewOutcomeRecorder(stores, service.NewMemoryTxRunner(stores))
	})

	It("appends successful exchanges in order", func() {
		Expect(recorder.RecordSuccess(ctx, "u1", "hi", "Hello!", "m1")).To(Succeed())
		Expect(recorder.RecordSuccess(ctx, "u1", "price?", "It's $10", "m2")).To(Succeed())

		entries, err := recorder.Recent(ctx, "u1", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].UserMessage).To(Equal("hi"))
		Expect(entries[1].BotReply).To(Equal("It's $10"))
		Expect(entries[1].SourceEventID).To(Equal("m2"))
		Expect(entries[1].Timestamp.IsZero()).To(BeFalse())
	})

	It("records a generation failure", func() {
		cause := &pipeline.GenerationError{Err: errors.New("timeout")}
		Expect(recorder.RecordFailure(ctx, "u1", "hi", "", "m1", cause)).To(Succeed())

		failures, err := stores.FailedReplies().ListByParticipant(ctx, "u1", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(failures).To(HaveLen(1))
		Expect(failures[0].ErrorKind).To(Equal(model.FailureKindGeneration))
		Expect(failures[0].ErrorDetail).To(ContainSubstring("timeout"))
		Expect(failures[0].ID).NotTo(BeZero())
	})

	It("keeps the Graph API payload and permission flag of a send failure", func() {
		payload := json.RawMessage(`{"error":{"code":3,"message":"no permission"}}`)
		cause := &pipeline.SendError{Code: 3, Message: "no permission", PermissionDenied: true, Payload: payload}
		Expect(recorder.RecordFailure(ctx, "u1", "hi", "Thanks!", "m1", cause)).To(Succeed())

		failures, err := stores.FailedReplies().ListByParticipant(ctx, "u1", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(failures).To(HaveLen(1))
		Expect(failures[0].ErrorKind).To(Equal(model.FailureKindSend))
		Expect(failures[0].PermissionDenied).To(BeTrue())
		Expect(failures[0].AttemptedReply).To(Equal("Thanks!"))
		Expect(failures[0].ErrorDetail).To(ContainSubstring("permission denied (code 3)"))
		Expect(string(failures[0].ErrorPayload)).To(MatchJSON(string(payload)))
	})

	It("returns store errors to the caller", func() {
		recorder = service.NewOutcomeRecorder(failingStores{}, failingTxRunner{})

		Expect(recorder.RecordSuccess(ctx, "u1", "hi", "Hello!", "m1")).To(MatchError(errStoreDown))
		Expect(recorder.RecordFailure(ctx, "u1", "hi", "", "m1", errors.New("x"))).To(MatchError(errStoreDown))
		_, err := recorder.Recent(ctx, "u1", 5)
		Expect(err).To(MatchError(errStoreDown))
	})
})
