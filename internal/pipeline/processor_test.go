package pipeline_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoreply/internal/brain"
	"basegraph.app/autoreply/internal/dedup"
	"basegraph.app/autoreply/internal/graph"
	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/pipeline"
)

var _ = Describe("Processor", func() {
	var (
		ctx       context.Context
		tracker   *dedup.MemoryTracker
		history   *mockHistory
		generator *mockGenerator
		sender    *mockSender
		recorder  *mockRecorder
		processor *pipeline.Processor
	)

	bot := model.BotIdentity{UserID: "bot-id", Username: "brand"}

	dm := func(sender, mid, text string) model.InboundEvent {
		ev, err := model.NewDirectMessageEvent(model.PlatformInstagram, model.DirectMessageEvent{
			SenderID: sender, MessageID: mid, Text: text,
		})
		Expect(err).NotTo(HaveOccurred())
		return ev
	}

	comment := func(id, author, handle string) model.InboundEvent {
		ev, err := model.NewCommentEvent(model.PlatformInstagram, model.CommentEvent{
			CommentID: id, ParentPostID: "p1", Text: "love it", AuthorHandle: handle, AuthorID: author,
		})
		Expect(err).NotTo(HaveOccurred())
		return ev
	}

	BeforeEach(func() {
		ctx = context.Background()
		tracker = dedup.NewMemoryTracker()
		history = &mockHistory{}
		generator = &mockGenerator{}
		sender = &mockSender{}
		recorder = &mockRecorder{}
		processor = pipeline.NewProcessor(pipeline.Dependencies{
			Tracker:   tracker,
			History:   history,
			Builder:   brain.NewContextBuilder(&mockCaptions{caption: "Summer drop"}, 5),
			Generator: generator,
			Sender:    sender,
			Recorder:  recorder,
			Bot:       bot,
			Window:    5,
		})
	})

	Context("direct messages", func() {
		It("generates, sends and records a reply", func() {
			out := processor.Process(ctx, dm("u1", "m1", "hi"))

			Expect(out.Status).To(Equal(pipeline.StatusSuccess))
			Expect(out.Reply).To(Equal("Thanks!"))
			Expect(out.EventID).To(Equal("m1"))
			Expect(out.ParticipantID).To(Equal("u1"))
			Expect(sender.dms).To(Equal([]sent{{"u1", "Thanks!"}}))
			Expect(recorder.successes).To(Equal([]recordedSuccess{{"u1", "hi", "Thanks!", "m1"}}))
			Expect(history.limits).To(Equal([]int{5}))
		})

		It("feeds history into the prompt", func() {
			history.recentFn = func(ctx context.Context, participantID string, limit int) ([]model.ConversationEntry, error) {
				return []model.ConversationEntry{{UserMessage: "earlier", BotReply: "sure"}}, nil
			}

			processor.Process(ctx, dm("u1", "m1", "hi"))
			Expect(generator.prompts).To(HaveLen(1))
			Expect(generator.prompts[0]).To(ContainSubstring("User: earlier\nBot: sure"))
		})

		It("replies without history when loading it fails", func() {
			history.recentFn = func(ctx context.Context, participantID string, limit int) ([]model.ConversationEntry, error) {
				return nil, errors.New("db down")
			}

			out := processor.Process(ctx, dm("u1", "m1", "hi"))
			Expect(out.Status).To(Equal(pipeline.StatusSuccess))
		})

		It("skips a repeated event without calling the generator again", func() {
			first := processor.Process(ctx, dm("u1", "m1", "hi"))
			second := processor.Process(ctx, dm("u1", "m1", "hi"))

			Expect(first.Status).To(Equal(pipeline.StatusSuccess))
			Expect(second.Status).To(Equal(pipeline.StatusSkipped))
			Expect(second.Detail).To(Equal("already processed"))
			Expect(generator.calls()).To(Equal(1))
			Expect(sender.dms).To(HaveLen(1))
		})

		It("skips messages from the bot itself", func() {
			out := processor.Process(ctx, dm("bot-id", "m1", "hi"))

			Expect(out.Status).To(Equal(pipeline.StatusSkipped))
			Expect(out.Detail).To(Equal("authored by this account"))
			Expect(generator.calls()).To(BeZero())
			Expect(tracker.Len()).To(BeZero())
		})
	})

	Context("comments", func() {
		It("replies to the comment with post context", func() {
			out := processor.Process(ctx, comment("c1", "u2", "alice"))

			Expect(out.Status).To(Equal(pipeline.StatusSuccess))
			Expect(sender.comments).To(Equal([]sent{{"c1", "Thanks!"}}))
			Expect(generator.prompts[0]).To(ContainSubstring(`Post context: "Summer drop"`))
			Expect(history.limits).To(BeEmpty())
		})

		It("skips comments authored by the bot's username", func() {
			out := processor.Process(ctx, comment("c1", "someone-else", "brand"))

			Expect(out.Status).To(Equal(pipeline.StatusSkipped))
			Expect(sender.comments).To(BeEmpty())
		})
	})

	Context("failures", func() {
		It("records a generation failure", func() {
			generator.generateFn = func(ctx context.Context, instruction string) (string, error) {
				return "", errors.New("model overloaded")
			}

			out := processor.Process(ctx, dm("u1", "m1", "hi"))

			Expect(out.Status).To(Equal(pipeline.StatusFailure))
			var genErr *pipeline.GenerationError
			Expect(errors.As(out.Err, &genErr)).To(BeTrue())
			Expect(sender.dms).To(BeEmpty())
			Expect(recorder.failures).To(HaveLen(1))
			Expect(recorder.failures[0].Reply).To(BeEmpty())
			Expect(pipeline.FailureKindOf(recorder.failures[0].Cause)).To(Equal(model.FailureKindGeneration))
		})

		It("records a permission-denied send failure", func() {
			sender.sendDMFn = func(ctx context.Context, recipientID, message string) (graph.SendResult, error) {
				return graph.SendResult{}, &graph.APIError{StatusCode: 400, Code: 3, Message: "perm"}
			}

			out := processor.Process(ctx, dm("u1", "m1", "hi"))

			Expect(out.Status).To(Equal(pipeline.StatusFailure))
			Expect(out.Detail).To(ContainSubstring("permission denied (code 3)"))
			var sendErr *pipeline.SendError
			Expect(errors.As(out.Err, &sendErr)).To(BeTrue())
			Expect(sendErr.PermissionDenied).To(BeTrue())

			Expect(recorder.successes).To(BeEmpty())
			Expect(recorder.failures).To(HaveLen(1))
			failure := recorder.failures[0]
			Expect(failure.ParticipantID).To(Equal("u1"))
			Expect(failure.Reply).To(Equal("Thanks!"))
			Expect(failure.EventID).To(Equal("m1"))
			Expect(pipeline.FailureKindOf(failure.Cause)).To(Equal(model.FailureKindSend))
		})

		It("still reports success when only the history write fails", func() {
			recorder.recordSuccessErr = errors.New("db down")

			out := processor.Process(ctx, dm("u1", "m1", "hi"))

			Expect(out.Status).To(Equal(pipeline.StatusSuccess))
			Expect(out.Detail).To(ContainSubstring("recording conversation"))
		})

		It("fails invalid events without marking them seen", func() {
			out := processor.Process(ctx, model.InboundEvent{Kind: model.EventKindComment})

			Expect(out.Status).To(Equal(pipeline.StatusFailure))
			Expect(tracker.Len()).To(BeZero())
		})
	})
})
