package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers and the pipeline enrich the context once per event so downstream
// code logs with event and participant ids without passing them around.
type LogFields struct {
	EventID       string // comment id or DM message id
	ParticipantID string // conversation key
	Channel       string // "comment" or "direct_message"
	MessageID     string // Redis stream message ID (queue mode)
	Component     string // e.g. "autoreply.pipeline.processor"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.EventID != "" {
		result.EventID = next.EventID
	}
	if next.ParticipantID != "" {
		result.ParticipantID = next.ParticipantID
	}
	if next.Channel != "" {
		result.Channel = next.Channel
	}
	if next.MessageID != "" {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
// Used for message bodies and upstream error payloads in log lines.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
