package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"basegraph.app/autoreply/internal/graph"
	"basegraph.app/autoreply/internal/mapper"
	"basegraph.app/autoreply/internal/model"
)

var (
	// ErrSignatureInvalid rejects a webhook whose payload signature does not match.
	ErrSignatureInvalid = errors.New("invalid signature")

	ErrMalformedPayload = mapper.ErrMalformedPayload
)

const permissionHint = "need instagram_manage_messages approval"

// GenerationError means no reply could be produced for an event.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating reply: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// SendError means the Graph API did not accept the reply.
type SendError struct {
	Code             int
	Message          string
	PermissionDenied bool
	Payload          json.RawMessage
	Err              error
}

func (e *SendError) Error() string {
	if e.PermissionDenied {
		return fmt.Sprintf("sending reply: permission denied (code %d): %s: %s", e.Code, permissionHint, e.Message)
	}
	if e.Code != 0 {
		return fmt.Sprintf("sending reply: code %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("sending reply: %s", e.Message)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// PersistenceError means an outcome could not be recorded.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("recording %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// newSendError classifies a Graph API send failure.
func newSendError(err error) *SendError {
	var apiErr *graph.APIError
	if errors.As(err, &apiErr) {
		return &SendError{
			Code:             apiErr.Code,
			Message:          apiErr.Message,
			PermissionDenied: apiErr.PermissionDenied(),
			Payload:          apiErr.Raw,
			Err:              err,
		}
	}
	return &SendError{Message: err.Error(), Err: err}
}

// FailureKindOf maps an error from Process to the kind stored with the
// failed reply.
func FailureKindOf(err error) model.FailureKind {
	var sendErr *SendError
	var persistErr *PersistenceError
	switch {
	case errors.As(err, &sendErr):
		return model.FailureKindSend
	case errors.As(err, &persistErr):
		return model.FailureKindPersistence
	default:
		return model.FailureKindGeneration
	}
}
