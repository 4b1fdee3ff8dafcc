package pipeline

import "basegraph.app/autoreply/internal/model"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// Outcome is the result of processing one event. Every event produces one,
// whatever happened to it.
type Outcome struct {
	Status        Status          `json:"status"`
	Kind          model.EventKind `json:"kind"`
	EventID       string          `json:"event_id"`
	ParticipantID string          `json:"participant_id"`
	Detail        string          `json:"detail,omitempty"`
	Reply         string          `json:"reply,omitempty"`
	Err           error           `json:"-"`
}

func newOutcome(event model.InboundEvent) Outcome {
	return Outcome{
		Kind:          event.Kind,
		EventID:       event.EventID(),
		ParticipantID: event.ParticipantID(),
	}
}

func (o Outcome) skipped(detail string) Outcome {
	o.Status = StatusSkipped
	o.Detail = detail
	return o
}

func (o Outcome) failed(reply string, err error) Outcome {
	o.Status = StatusFailure
	o.Reply = reply
	o.Detail = err.Error()
	o.Err = err
	return o
}

func (o Outcome) succeeded(reply, detail string) Outcome {
	o.Status = StatusSuccess
	o.Reply = reply
	o.Detail = detail
	return o
}
