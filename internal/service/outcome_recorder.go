package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/pipeline"
)

// OutcomeRecorder persists reply outcomes: successful exchanges extend the
// participant's conversation, failures become failed reply records. It also
// serves conversation history to the pipeline.
type OutcomeRecorder struct {
	stores   StoreProvider
	txRunner TxRunner
}

var (
	_ pipeline.Recorder      = (*OutcomeRecorder)(nil)
	_ pipeline.HistoryReader = (*OutcomeRecorder)(nil)
)

func NewOutcomeRecorder(stores StoreProvider, txRunner TxRunner) *OutcomeRecorder {
	return &OutcomeRecorder{
		stores:   stores,
		txRunner: txRunner,
	}
}

func (r *OutcomeRecorder) Recent(ctx context.Context, participantID string, limit int) ([]model.ConversationEntry, error) {
	entries, err := r.stores.Conversations().Recent(ctx, participantID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent entries: %w", err)
	}
	return entries, nil
}

func (r *OutcomeRecorder) RecordSuccess(ctx context.Context, participantID, userMessage, reply, eventID string) error {
	entry := model.ConversationEntry{
		Timestamp:     time.Now().UTC(),
		UserMessage:   userMessage,
		BotReply:      reply,
		SourceEventID: eventID,
	}

	err := r.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Conversations().Ensure(ctx, participantID); err != nil {
			return fmt.Errorf("ensuring conversation: %w", err)
		}
		if err := sp.Conversations().Append(ctx, participantID, entry); err != nil {
			return fmt.Errorf("appending entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "conversation entry recorded", "participant_id", participantID)
	return nil
}

func (r *OutcomeRecorder) RecordFailure(ctx context.Context, participantID, userMessage, reply, eventID string, cause error) error {
	failure := &model.FailedReply{
		Timestamp:      time.Now().UTC(),
		ParticipantID:  participantID,
		UserMessage:    userMessage,
		AttemptedReply: reply,
		SourceEventID:  eventID,
		ErrorKind:      pipeline.FailureKindOf(cause),
	}
	if cause != nil {
		failure.ErrorDetail = cause.Error()
	}

	var sendErr *pipeline.SendError
	if errors.As(cause, &sendErr) {
		failure.ErrorPayload = sendErr.Payload
		failure.PermissionDenied = sendErr.PermissionDenied
	}

	err := r.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.FailedReplies().Create(ctx, failure); err != nil {
			return fmt.Errorf("creating failed reply: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "failed reply recorded",
		"failed_reply_id", failure.ID,
		"error_kind", failure.ErrorKind,
		"permission_denied", failure.PermissionDenied)
	return nil
}
