package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/autoreply/common/logger"
	"basegraph.app/autoreply/internal/queue"
)

type Worker struct {
	consumer  Consumer
	processor EventProcessor
	backoff   time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, processor EventProcessor) *Worker {
	return &Worker{
		consumer:  consumer,
		processor: processor,
		backoff:   time.Second,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-ctx.Done():
				case <-w.stopCh:
				case <-time.After(w.backoff):
				}
			}
		}
	}
}

// Stop signals Run to return after the current batch and waits for it.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"event_id", msg.Event.EventID())
			if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
				slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
			}
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"event_id", msg.Event.EventID())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs one queued event through the pipeline and acks it.
// Pipeline failures are already recorded by the processor, so they are acked
// like successes.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	span := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_message")
	defer span.End()
	ctx = logger.WithLogFields(span.Context(), logger.LogFields{
		MessageID: msg.ID,
		Component: "autoreply.worker",
	})

	attrs := []any{"event_id", msg.Event.EventID(), "kind", msg.Event.Kind}
	if !msg.EnqueuedAt.IsZero() {
		attrs = append(attrs, "queue_latency_ms", time.Since(msg.EnqueuedAt).Milliseconds())
	}
	slog.InfoContext(ctx, "processing message", attrs...)

	outcome := w.processor.Process(ctx, msg.Event)

	slog.InfoContext(ctx, "message processed",
		"status", outcome.Status,
		"detail", outcome.Detail)

	if err := w.consumer.Ack(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err)
	}

	return nil
}
