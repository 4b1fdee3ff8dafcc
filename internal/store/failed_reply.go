package store

import (
	"context"
	"fmt"

	"basegraph.app/autoreply/common/id"
	"basegraph.app/autoreply/core/db/sqlc"
	"basegraph.app/autoreply/internal/model"
)

type failedReplyStore struct {
	queries *sqlc.Queries
	ids     id.Generator
}

func newFailedReplyStore(queries *sqlc.Queries, ids id.Generator) FailedReplyStore {
	return &failedReplyStore{queries: queries, ids: ids}
}

func (s *failedReplyStore) Create(ctx context.Context, failure *model.FailedReply) error {
	if failure.ID == 0 {
		failure.ID = s.ids.Next()
	}

	row, err := s.queries.CreateFailedReply(ctx, sqlc.CreateFailedReplyParams{
		ID:               failure.ID,
		ParticipantID:    failure.ParticipantID,
		UserMessage:      failure.UserMessage,
		AttemptedReply:   failure.AttemptedReply,
		SourceEventID:    failure.SourceEventID,
		ErrorKind:        string(failure.ErrorKind),
		ErrorDetail:      failure.ErrorDetail,
		ErrorPayload:     failure.ErrorPayload,
		PermissionDenied: failure.PermissionDenied,
		CreatedAt:        toTimestamptz(failure.Timestamp),
	})
	if err != nil {
		return fmt.Errorf("creating failed reply: %w", err)
	}

	*failure = toFailedReplyModel(row)
	return nil
}

func (s *failedReplyStore) ListByParticipant(ctx context.Context, participantID string, limit int) ([]model.FailedReply, error) {
	rows, err := s.queries.ListFailedRepliesByParticipant(ctx, sqlc.ListFailedRepliesByParticipantParams{
		ParticipantID: participantID,
		Limit:         int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing failed replies: %w", err)
	}

	failures := make([]model.FailedReply, len(rows))
	for i, row := range rows {
		failures[i] = toFailedReplyModel(row)
	}
	return failures, nil
}
