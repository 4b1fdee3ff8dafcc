package worker

import (
	"context"

	"basegraph.app/autoreply/internal/model"
	"basegraph.app/autoreply/internal/pipeline"
	"basegraph.app/autoreply/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// EventProcessor abstracts the reply pipeline for testability.
type EventProcessor interface {
	Process(ctx context.Context, event model.InboundEvent) pipeline.Outcome
}
