package store

import (
	"context"
	"fmt"
	"math"

	"basegraph.app/autoreply/common/id"
	"basegraph.app/autoreply/core/db/sqlc"
	"basegraph.app/autoreply/internal/model"
)

type conversationStore struct {
	queries *sqlc.Queries
	ids     id.Generator
}

func newConversationStore(queries *sqlc.Queries, ids id.Generator) ConversationStore {
	return &conversationStore{queries: queries, ids: ids}
}

func (s *conversationStore) Ensure(ctx context.Context, participantID string) error {
	return s.queries.UpsertConversation(ctx, participantID)
}

func (s *conversationStore) Append(ctx context.Context, participantID string, entry model.ConversationEntry) error {
	_, err := s.queries.AppendConversationEntry(ctx, sqlc.AppendConversationEntryParams{
		ID:            s.ids.Next(),
		ParticipantID: participantID,
		UserMessage:   entry.UserMessage,
		BotReply:      entry.BotReply,
		SourceEventID: entry.SourceEventID,
		CreatedAt:     toTimestamptz(entry.Timestamp),
	})
	if err != nil {
		return fmt.Errorf("appending conversation entry: %w", err)
	}
	return nil
}

func (s *conversationStore) Recent(ctx context.Context, participantID string, limit int) ([]model.ConversationEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	limit = min(limit, math.MaxInt32)

	rows, err := s.queries.ListRecentConversationEntries(ctx, sqlc.ListRecentConversationEntriesParams{
		ParticipantID: participantID,
		Limit:         int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing conversation entries: %w", err)
	}

	entries := make([]model.ConversationEntry, len(rows))
	for i, row := range rows {
		entries[i] = toConversationEntryModel(row)
	}
	return entries, nil
}

func (s *conversationStore) Count(ctx context.Context, participantID string) (int64, error) {
	return s.queries.CountConversationEntries(ctx, participantID)
}
