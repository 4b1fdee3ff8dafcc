package store

import (
	"context"
	"sync"
	"time"

	"basegraph.app/autoreply/common/id"
	"basegraph.app/autoreply/internal/model"
)

// MemoryStores keeps conversations and failures in process memory. It backs
// the service when no database is configured and in tests.
type MemoryStores struct {
	mu            sync.Mutex
	ids           id.Generator
	conversations map[string]*model.Conversation
	failures      []model.FailedReply
}

func NewMemoryStores(ids id.Generator) *MemoryStores {
	return &MemoryStores{
		ids:           ids,
		conversations: make(map[string]*model.Conversation),
	}
}

func (m *MemoryStores) Conversations() ConversationStore {
	return (*memoryConversationStore)(m)
}

func (m *MemoryStores) FailedReplies() FailedReplyStore {
	return (*memoryFailedReplyStore)(m)
}

type memoryConversationStore MemoryStores

func (s *memoryConversationStore) Ensure(ctx context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[participantID]; !ok {
		s.conversations[participantID] = &model.Conversation{ParticipantID: participantID}
	}
	return nil
}

func (s *memoryConversationStore) Append(ctx context.Context, participantID string, entry model.ConversationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[participantID]
	if !ok {
		conv = &model.Conversation{ParticipantID: participantID}
		s.conversations[participantID] = conv
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	conv.Entries = append(conv.Entries, entry)
	return nil
}

func (s *memoryConversationStore) Recent(ctx context.Context, participantID string, limit int) ([]model.ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[participantID]
	if !ok {
		return nil, nil
	}
	recent := conv.Recent(limit)
	out := make([]model.ConversationEntry, len(recent))
	copy(out, recent)
	return out, nil
}

func (s *memoryConversationStore) Count(ctx context.Context, participantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[participantID]
	if !ok {
		return 0, nil
	}
	return int64(len(conv.Entries)), nil
}

type memoryFailedReplyStore MemoryStores

func (s *memoryFailedReplyStore) Create(ctx context.Context, failure *model.FailedReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if failure.ID == 0 {
		failure.ID = s.ids.Next()
	}
	if failure.Timestamp.IsZero() {
		failure.Timestamp = time.Now().UTC()
	}
	s.failures = append(s.failures, *failure)
	return nil
}

func (s *memoryFailedReplyStore) ListByParticipant(ctx context.Context, participantID string, limit int) ([]model.FailedReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.FailedReply
	for i := len(s.failures) - 1; i >= 0 && len(out) < limit; i-- {
		if s.failures[i].ParticipantID == participantID {
			out = append(out, s.failures[i])
		}
	}
	return out, nil
}
