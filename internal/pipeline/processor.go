package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/autoreply/common/llm"
	"basegraph.app/autoreply/common/logger"
	"basegraph.app/autoreply/internal/brain"
	"basegraph.app/autoreply/internal/dedup"
	"basegraph.app/autoreply/internal/graph"
	"basegraph.app/autoreply/internal/model"
)

// HistoryReader loads the recent conversation with a participant.
type HistoryReader interface {
	Recent(ctx context.Context, participantID string, limit int) ([]model.ConversationEntry, error)
}

// ReplySender delivers replies through the Graph API.
type ReplySender interface {
	ReplyToComment(ctx context.Context, commentID, message string) (graph.SendResult, error)
	SendDirectMessage(ctx context.Context, recipientID, message string) (graph.SendResult, error)
	GetSenderName(ctx context.Context, senderID string) string
}

// Recorder persists the result of a reply attempt.
type Recorder interface {
	RecordSuccess(ctx context.Context, participantID, userMessage, reply, eventID string) error
	RecordFailure(ctx context.Context, participantID, userMessage, reply, eventID string, cause error) error
}

type Dependencies struct {
	Tracker   dedup.Tracker
	History   HistoryReader
	Builder   brain.ContextBuilder
	Generator llm.ReplyGenerator
	Sender    ReplySender
	Recorder  Recorder
	Bot       model.BotIdentity
	Window    int
}

// Processor runs one inbound event through dedup, context assembly, reply
// generation, delivery and recording. It is safe for concurrent use.
type Processor struct {
	tracker   dedup.Tracker
	history   HistoryReader
	builder   brain.ContextBuilder
	generator llm.ReplyGenerator
	sender    ReplySender
	recorder  Recorder
	bot       model.BotIdentity
	window    int
}

func NewProcessor(deps Dependencies) *Processor {
	return &Processor{
		tracker:   deps.Tracker,
		history:   deps.History,
		builder:   deps.Builder,
		generator: deps.Generator,
		sender:    deps.Sender,
		recorder:  deps.Recorder,
		bot:       deps.Bot,
		window:    deps.Window,
	}
}

// Process never returns an error: failures are recorded and reported in the
// Outcome so one event cannot abort its siblings.
func (p *Processor) Process(ctx context.Context, event model.InboundEvent) Outcome {
	out := newOutcome(event)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:       out.EventID,
		ParticipantID: out.ParticipantID,
		Channel:       string(event.Kind),
		Component:     "autoreply.pipeline.processor",
	})

	sc := logger.StartSpan(ctx, "pipeline.process", trace.WithAttributes(
		attribute.String("event.id", out.EventID),
		attribute.String("event.kind", string(event.Kind)),
	))
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()
	result := p.process(ctx, event, out)

	sc.SetAttributes(attribute.String("outcome.status", string(result.Status)))
	if result.Err != nil {
		sc.RecordError(result.Err)
	}

	slog.InfoContext(ctx, "event processed",
		"status", result.Status,
		"detail", result.Detail,
		"duration_ms", time.Since(start).Milliseconds())

	return result
}

func (p *Processor) process(ctx context.Context, event model.InboundEvent, out Outcome) Outcome {
	if err := event.Validate(); err != nil {
		return out.failed("", &GenerationError{Err: err})
	}

	selfID, actorID := event.SelfCheckPair(p.bot)
	if !p.tracker.ShouldProcess(ctx, out.EventID, selfID, actorID) {
		if selfID != "" && selfID == actorID {
			return out.skipped("authored by this account")
		}
		return out.skipped("already processed")
	}

	if event.Kind == model.EventKindDirectMessage {
		slog.InfoContext(ctx, "direct message received",
			"sender_name", p.sender.GetSenderName(ctx, event.DirectMessage.SenderID),
			"text", logger.Truncate(event.Text(), 120))
	} else {
		slog.InfoContext(ctx, "comment received",
			"author", event.Comment.AuthorHandle,
			"post_id", event.Comment.ParentPostID,
			"text", logger.Truncate(event.Text(), 120))
	}

	prompt, err := p.builder.BuildPrompt(ctx, event, p.loadHistory(ctx, event))
	if err != nil {
		return p.fail(ctx, event, out, "", &GenerationError{Err: err})
	}

	reply, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return p.fail(ctx, event, out, "", &GenerationError{Err: err})
	}

	if _, err := p.send(ctx, event, reply); err != nil {
		sendErr := newSendError(err)
		if sendErr.PermissionDenied {
			slog.WarnContext(ctx, "graph api permission error: "+permissionHint,
				"code", sendErr.Code)
		}
		return p.fail(ctx, event, out, reply, sendErr)
	}

	if err := p.recorder.RecordSuccess(ctx, out.ParticipantID, event.Text(), reply, out.EventID); err != nil {
		persistErr := &PersistenceError{Op: "conversation", Err: err}
		slog.ErrorContext(ctx, "reply sent but conversation not saved", "error", persistErr)
		return out.succeeded(reply, persistErr.Error())
	}

	return out.succeeded(reply, "")
}

func (p *Processor) loadHistory(ctx context.Context, event model.InboundEvent) []model.ConversationEntry {
	if event.Kind != model.EventKindDirectMessage || p.history == nil || p.window <= 0 {
		return nil
	}

	history, err := p.history.Recent(ctx, event.ParticipantID(), p.window)
	if err != nil {
		slog.WarnContext(ctx, "loading conversation history failed, replying without it", "error", err)
		return nil
	}
	return history
}

func (p *Processor) send(ctx context.Context, event model.InboundEvent, reply string) (graph.SendResult, error) {
	sc := logger.StartSpan(ctx, "pipeline.send_reply", trace.WithSpanKind(trace.SpanKindClient))
	defer sc.End()

	var (
		res graph.SendResult
		err error
	)
	switch event.Kind {
	case model.EventKindComment:
		res, err = p.sender.ReplyToComment(sc.Context(), event.Comment.CommentID, reply)
	case model.EventKindDirectMessage:
		res, err = p.sender.SendDirectMessage(sc.Context(), event.DirectMessage.SenderID, reply)
	default:
		err = errors.New("unsupported event kind")
	}
	if err != nil {
		sc.RecordError(err)
		return graph.SendResult{}, err
	}

	slog.InfoContext(ctx, "reply sent", "reply_id", res.ID)
	return res, nil
}

func (p *Processor) fail(ctx context.Context, event model.InboundEvent, out Outcome, reply string, cause error) Outcome {
	slog.ErrorContext(ctx, "reply failed", "error", cause)

	if err := p.recorder.RecordFailure(ctx, out.ParticipantID, event.Text(), reply, out.EventID, cause); err != nil {
		slog.ErrorContext(ctx, "failed reply not recorded",
			"error", &PersistenceError{Op: "failed reply", Err: err})
	}

	return out.failed(reply, cause)
}
