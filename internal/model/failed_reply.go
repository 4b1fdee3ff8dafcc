package model

import (
	"encoding/json"
	"time"
)

type FailureKind string

const (
	FailureKindGeneration  FailureKind = "generation_failure"
	FailureKindSend        FailureKind = "send_failure"
	FailureKindPersistence FailureKind = "persistence_failure"
)

// FailedReply records an event whose reply could not be produced or delivered.
// Rows are written once and never updated.
type FailedReply struct {
	ID               int64           `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	ParticipantID    string          `json:"participant_id"`
	UserMessage      string          `json:"user_message"`
	AttemptedReply   string          `json:"attempted_reply"`
	SourceEventID    string          `json:"source_event_id"`
	ErrorKind        FailureKind     `json:"error_kind"`
	ErrorDetail      string          `json:"error_detail"`
	ErrorPayload     json.RawMessage `json:"error_payload,omitempty"`
	PermissionDenied bool            `json:"permission_denied"`
}
