package store

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"basegraph.app/autoreply/core/db/sqlc"
	"basegraph.app/autoreply/internal/model"
)

func toTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		t = time.Now()
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func toConversationEntryModel(row sqlc.ConversationEntry) model.ConversationEntry {
	return model.ConversationEntry{
		Timestamp:     row.CreatedAt.Time,
		UserMessage:   row.UserMessage,
		BotReply:      row.BotReply,
		SourceEventID: row.SourceEventID,
	}
}

func toFailedReplyModel(row sqlc.FailedReply) model.FailedReply {
	return model.FailedReply{
		ID:               row.ID,
		Timestamp:        row.CreatedAt.Time,
		ParticipantID:    row.ParticipantID,
		UserMessage:      row.UserMessage,
		AttemptedReply:   row.AttemptedReply,
		SourceEventID:    row.SourceEventID,
		ErrorKind:        model.FailureKind(row.ErrorKind),
		ErrorDetail:      row.ErrorDetail,
		ErrorPayload:     row.ErrorPayload,
		PermissionDenied: row.PermissionDenied,
	}
}
