package store

import (
	"context"
	"errors"

	"basegraph.app/autoreply/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ConversationStore persists the append-only reply history per participant.
type ConversationStore interface {
	// Ensure creates the conversation row if it does not exist yet.
	Ensure(ctx context.Context, participantID string) error
	Append(ctx context.Context, participantID string, entry model.ConversationEntry) error
	// Recent returns up to limit of the newest entries, oldest first.
	Recent(ctx context.Context, participantID string, limit int) ([]model.ConversationEntry, error)
	Count(ctx context.Context, participantID string) (int64, error)
}

// FailedReplyStore persists replies that could not be generated or sent.
type FailedReplyStore interface {
	Create(ctx context.Context, failure *model.FailedReply) error
	ListByParticipant(ctx context.Context, participantID string, limit int) ([]model.FailedReply, error)
}
