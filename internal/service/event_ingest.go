package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"basegraph.app/autoreply/common/logger"
	"basegraph.app/autoreply/internal/mapper"
	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/pipeline"
	"basegraph.app/autoreply/internal/queue"
)

// EventProcessor runs one event through the reply pipeline.
type EventProcessor interface {
	Process(ctx context.Context, event model.InboundEvent) pipeline.Outcome
}

type IngestResult struct {
	Events    int
	Processed int
	Enqueued  int
	Outcomes  []pipeline.Outcome
}

// EventIngestService accepts a verified webhook body and either processes its
// events inline or hands them to the queue.
type EventIngestService interface {
	Ingest(ctx context.Context, body []byte) (*IngestResult, error)
}

type EventIngestConfig struct {
	MaxConcurrency int
}

type eventIngestService struct {
	mapper    mapper.WebhookMapper
	processor EventProcessor
	queue     queue.Producer
	cfg       EventIngestConfig
}

// NewEventIngestService processes inline when producer is nil.
func NewEventIngestService(m mapper.WebhookMapper, processor EventProcessor, producer queue.Producer, cfg EventIngestConfig) EventIngestService {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	return &eventIngestService{
		mapper:    m,
		processor: processor,
		queue:     producer,
		cfg:       cfg,
	}
}

func (s *eventIngestService) Ingest(ctx context.Context, body []byte) (*IngestResult, error) {
	events, err := s.mapper.Dispatch(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("dispatching webhook: %w", err)
	}

	result := &IngestResult{Events: len(events)}
	if len(events) == 0 {
		return result, nil
	}

	if s.queue != nil {
		s.enqueue(ctx, events, result)
		return result, nil
	}

	s.processInline(ctx, events, result)
	return result, nil
}

func (s *eventIngestService) enqueue(ctx context.Context, events []model.InboundEvent, result *IngestResult) {
	traceID := logger.TraceID(ctx)
	for _, event := range events {
		if err := s.queue.Enqueue(ctx, queue.EventMessage{Event: event, TraceID: traceID}); err != nil {
			slog.ErrorContext(ctx, "enqueueing event failed",
				"error", err,
				"event_id", event.EventID())
			continue
		}
		result.Enqueued++
	}
}

// processInline fans events out with bounded concurrency. Work runs on a
// context detached from the request so a client disconnect does not cancel
// in-flight replies.
func (s *eventIngestService) processInline(ctx context.Context, events []model.InboundEvent, result *IngestResult) {
	detached := context.WithoutCancel(ctx)
	outcomes := make([]pipeline.Outcome, len(events))

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)
	for i, event := range events {
		g.Go(func() error {
			outcomes[i] = s.processor.Process(detached, event)
			return nil
		})
	}
	_ = g.Wait()

	result.Outcomes = outcomes
	for _, out := range outcomes {
		if out.Status == pipeline.StatusSuccess {
			result.Processed++
		}
	}
}
