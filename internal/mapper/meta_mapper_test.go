package mapper_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/autoreply/internal/mapper"
	"basegraph.app/autoreply/internal/model"
)

var _ = Describe("MetaWebhookMapper", func() {
	var (
		m   mapper.WebhookMapper
		ctx context.Context
	)

	BeforeEach(func() {
		m = mapper.NewMetaWebhookMapper()
		ctx = context.Background()
	})

	Describe("Dispatch", func() {
		It("maps a page direct message", func() {
			payload := `{"object":"page","entry":[{"id":"page1","messaging":[
				{"sender":{"id":"u1"},"recipient":{"id":"page1"},"message":{"mid":"m1","text":"hi"}}
			]}]}`

			events, err := m.Dispatch(ctx, []byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(model.EventKindDirectMessage))
			Expect(events[0].Platform).To(Equal(model.PlatformPage))
			Expect(events[0].DirectMessage).To(Equal(&model.DirectMessageEvent{SenderID: "u1", MessageID: "m1", Text: "hi"}))
		})

		It("maps an instagram comment", func() {
			payload := `{"object":"instagram","entry":[{"id":"ig1","changes":[
				{"field":"comments","value":{"id":"c1","parent_id":"p1","text":"nice","from":{"id":"u2","username":"alice"}}}
			]}]}`

			events, err := m.Dispatch(ctx, []byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(model.EventKindComment))
			Expect(events[0].Comment).To(Equal(&model.CommentEvent{
				CommentID:    "c1",
				ParentPostID: "p1",
				Text:         "nice",
				AuthorHandle: "alice",
				AuthorID:     "u2",
			}))
		})

		It("prefers the media id as the parent post", func() {
			payload := `{"object":"instagram","entry":[{"changes":[
				{"field":"comments","value":{"id":"c2","parent_id":"c1","media":{"id":"post9"},"text":"+1","from":{"id":"u2"}}}
			]}]}`

			events, err := m.Dispatch(ctx, []byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].Comment.ParentPostID).To(Equal("post9"))
		})

		It("ignores non-comment changes", func() {
			payload := `{"object":"instagram","entry":[{"changes":[{"field":"likes","value":{"id":"x"}}]}]}`

			events, err := m.Dispatch(ctx, []byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(BeEmpty())
		})

		It("does not read changes for page objects", func() {
			payload := `{"object":"page","entry":[{"changes":[
				{"field":"comments","value":{"id":"c1","text":"nice","from":{"id":"u2"}}}
			]}]}`

			events, err := m.Dispatch(ctx, []byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(BeEmpty())
		})

		It("returns no events for unsupported objects", func() {
			events, err := m.Dispatch(ctx, []byte(`{"object":"whatsapp_business_account","entry":[]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).NotTo(BeNil())
			Expect(events).To(BeEmpty())
		})

		It("fails on malformed JSON", func() {
			_, err := m.Dispatch(ctx, []byte(`{"object":`))
			Expect(errors.Is(err, mapper.ErrMalformedPayload)).To(BeTrue())
		})

		It("fails when the entry list is not an array", func() {
			_, err := m.Dispatch(ctx, []byte(`{"object":"instagram","entry":{"id":"a"}}`))
			Expect(errors.Is(err, mapper.ErrMalformedPayload)).To(BeTrue())
		})

		It("keeps well-formed events next to a badly typed entry", func() {
			payload := `{"object":"instagram","entry":[
				{"id":"a","messaging":[{"sender":{"id":"u1"},"message":{"mid":"m1","text":"hello"}}]},
				{"id":"b","messaging":[{"sender":{"id":12345},"message":{"mid":"m2","text":"bad"}}]}
			]}`

			events, err := m.Dispatch(ctx, []byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventID()).To(Equal("m1"))
		})

		DescribeTable("skips only the malformed part of a batch",
			func(entry string, wantIDs []string) {
				payload := `{"object":"instagram","entry":[` + entry + `,
					{"messaging":[{"sender":{"id":"u9"},"message":{"mid":"m9","text":"ok"}}]}]}`

				events, err := m.Dispatch(ctx, []byte(payload))
				Expect(err).NotTo(HaveOccurred())
				ids := make([]string, 0, len(events))
				for _, ev := range events {
					ids = append(ids, ev.EventID())
				}
				Expect(ids).To(Equal(wantIDs))
			},
			Entry("entry is a string", `"oops"`, []string{"m9"}),
			Entry("messaging is an object", `{"messaging":{"sender":{"id":"u1"}}}`, []string{"m9"}),
			Entry("numeric sender id beside a good item",
				`{"messaging":[{"sender":{"id":1},"message":{"mid":"m0","text":"x"}},
					{"sender":{"id":"u2"},"message":{"mid":"m2","text":"y"}}]}`,
				[]string{"m2", "m9"}),
			Entry("change value with numeric text beside a good comment",
				`{"changes":[{"field":"comments","value":{"id":"c0","text":7}},
					{"field":"comments","value":{"id":"c1","text":"nice","from":{"id":"u2"}}}]}`,
				[]string{"c1", "m9"}),
			Entry("change field is a number",
				`{"changes":[{"field":1,"value":{}}]}`, []string{"m9"}),
		)

		DescribeTable("drops messaging items that need no reply",
			func(item string) {
				payload := `{"object":"instagram","entry":[{"messaging":[` + item + `]}]}`
				events, err := m.Dispatch(ctx, []byte(payload))
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(BeEmpty())
			},
			Entry("no message", `{"sender":{"id":"u1"},"read":{"mid":"m1"}}`),
			Entry("attachment only", `{"sender":{"id":"u1"},"message":{"mid":"m1","attachments":[{"type":"image"}]}}`),
			Entry("echo", `{"sender":{"id":"bot"},"message":{"mid":"m1","text":"hi","is_echo":true}}`),
			Entry("missing sender id", `{"sender":{},"message":{"mid":"m1","text":"hi"}}`),
			Entry("missing message id", `{"sender":{"id":"u1"},"message":{"text":"hi"}}`),
		)

		It("skips comments without an id", func() {
			payload := `{"object":"instagram","entry":[{"changes":[
				{"field":"comments","value":{"text":"nice","from":{"id":"u2"}}}
			]}]}`

			events, err := m.Dispatch(ctx, []byte(payload))
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(BeEmpty())
		})

		It("preserves source order across entries", func() {
			payload := `{"object":"instagram","entry":[
				{"messaging":[{"sender":{"id":"u1"},"message":{"mid":"m1","text":"one"}}],
				 "changes":[{"field":"comments","value":{"id":"c1","text":"two","from":{"id":"u2"}}}]},
				{"messaging":[{"sender":{"id":"u3"},"message":{"mid":"m3","text":"three"}}]}
			]}`

			events, err := m.Dispatch(ctx, []byte(payload))
			Expect(err).NotTo(HaveOccurred())
			ids := make([]string, 0, len(events))
			for _, ev := range events {
				ids = append(ids, ev.EventID())
			}
			Expect(ids).To(Equal([]string{"m1", "c1", "m3"}))
		})
	})
})
