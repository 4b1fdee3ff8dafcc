package service_test

import (
	"context"
	"errors"
	"sync"

	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/pipeline"
	"basegraph.app/autoreply/internal/queue"
	"basegraph.app/autoreply/internal/service"
	"basegraph.app/autoreply/internal/store"
)

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Generate(ctx context.Context, instruction string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *stubGenerator) Model() string { return "stub" }

type mockProducer struct {
	mu        sync.Mutex
	enqueueFn func(ctx context.Context, msg queue.EventMessage) error
	messages  []queue.EventMessage
}

func (m *mockProducer) Enqueue(ctx context.Context, msg queue.EventMessage) error {
	if m.enqueueFn != nil {
		if err := m.enqueueFn(ctx, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

type mockProcessor struct {
	mu        sync.Mutex
	events    []model.InboundEvent
	processFn func(ctx context.Context, event model.InboundEvent) pipeline.Outcome
}

func (m *mockProcessor) Process(ctx context.Context, event model.InboundEvent) pipeline.Outcome {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.processFn != nil {
		return m.processFn(ctx, event)
	}
	return pipeline.Outcome{Status: pipeline.StatusSuccess, EventID: event.EventID()}
}

// failingStores returns errors from every write.
type failingStores struct{}

func (failingStores) Conversations() store.ConversationStore { return failingConversations{} }
func (failingStores) FailedReplies() store.FailedReplyStore  { return failingFailures{} }

var errStoreDown = errors.New("store down")

type failingConversations struct{}

func (failingConversations) Ensure(ctx context.Context, participantID string) error {
	return errStoreDown
}

func (failingConversations) Append(ctx context.Context, participantID string, entry model.ConversationEntry) error {
	return errStoreDown
}

func (failingConversations) Recent(ctx context.Context, participantID string, limit int) ([]model.ConversationEntry, error) {
	return nil, errStoreDown
}

func (failingConversations) Count(ctx context.Context, participantID string) (int64, error) {
	return 0, errStoreDown
}

type failingFailures struct{}

func (failingFailures) Create(ctx context.Context, failure *model.FailedReply) error {
	return errStoreDown
}

func (failingFailures) ListByParticipant(ctx context.Context, participantID string, limit int) ([]model.FailedReply, error) {
	return nil, errStoreDown
}

type failingTxRunner struct{}

func (failingTxRunner) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	return fn(failingStores{})
}
