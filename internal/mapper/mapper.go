package mapper

import (
	"context"
	"errors"

	"basegraph.app/autoreply/internal/model"
)

// ErrMalformedPayload is returned when a webhook body is not valid JSON or
// its envelope has the wrong shape. Malformed entries and items inside a
// readable envelope are skipped instead.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// WebhookMapper turns a verified webhook body into validated inbound events,
// in source order. Unknown objects and irrelevant or malformed items yield no
// events.
type WebhookMapper interface {
	Dispatch(ctx context.Context, payload []byte) ([]model.InboundEvent, error)
}
