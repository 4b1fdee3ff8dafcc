package mapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"basegraph.app/autoreply/internal/model"
)

// Entries and items stay raw so one badly typed item is skipped on its own.
type webhookPayload struct {
	Object string            `json:"object"`
	Entry  []json.RawMessage `json:"entry"`
}

type webhookEntry struct {
	ID        string            `json:"id"`
	Messaging []json.RawMessage `json:"messaging"`
	Changes   []json.RawMessage `json:"changes"`
}

type messagingItem struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Timestamp int64           `json:"timestamp"`
	Message   *messagePayload `json:"message"`
}

type messagePayload struct {
	Mid    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo"`
}

type changeItem struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type commentValue struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Text     string `json:"text"`
	From     struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"from"`
	Media struct {
		ID string `json:"id"`
	} `json:"media"`
}

const commentsField = "comments"

// MetaWebhookMapper reads Instagram and Messenger (page) webhook payloads.
type MetaWebhookMapper struct{}

func NewMetaWebhookMapper() *MetaWebhookMapper {
	return &MetaWebhookMapper{}
}

func (m *MetaWebhookMapper) Dispatch(ctx context.Context, payload []byte) ([]model.InboundEvent, error) {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	platform := model.Platform(body.Object)
	switch platform {
	case model.PlatformInstagram, model.PlatformPage:
	default:
		slog.InfoContext(ctx, "ignoring webhook for unsupported object", "object", body.Object)
		return []model.InboundEvent{}, nil
	}

	events := []model.InboundEvent{}
	for i, raw := range body.Entry {
		var entry webhookEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			slog.WarnContext(ctx, "skipping unreadable webhook entry", "entry_index", i, "error", err)
			continue
		}

		for j, rawItem := range entry.Messaging {
			var item messagingItem
			if err := json.Unmarshal(rawItem, &item); err != nil {
				slog.WarnContext(ctx, "skipping unreadable messaging item",
					"entry_id", entry.ID, "item_index", j, "error", err)
				continue
			}
			if ev, ok := m.directMessage(ctx, platform, item); ok {
				events = append(events, ev)
			}
		}

		// Messenger page subscriptions only deliver messaging items.
		if platform != model.PlatformInstagram {
			continue
		}
		for j, rawChange := range entry.Changes {
			var change changeItem
			if err := json.Unmarshal(rawChange, &change); err != nil {
				slog.WarnContext(ctx, "skipping unreadable change",
					"entry_id", entry.ID, "item_index", j, "error", err)
				continue
			}
			if change.Field != commentsField {
				slog.DebugContext(ctx, "ignoring change", "field", change.Field)
				continue
			}
			if ev, ok := m.comment(ctx, change); ok {
				events = append(events, ev)
			}
		}
	}

	return events, nil
}

func (m *MetaWebhookMapper) directMessage(ctx context.Context, platform model.Platform, item messagingItem) (model.InboundEvent, bool) {
	msg := item.Message
	if msg == nil || msg.Text == "" {
		slog.DebugContext(ctx, "ignoring messaging item without text", "sender_id", item.Sender.ID)
		return model.InboundEvent{}, false
	}
	if msg.IsEcho {
		slog.DebugContext(ctx, "ignoring echo of own message", "message_id", msg.Mid)
		return model.InboundEvent{}, false
	}

	ev, err := model.NewDirectMessageEvent(platform, model.DirectMessageEvent{
		SenderID:  item.Sender.ID,
		MessageID: msg.Mid,
		Text:      msg.Text,
	})
	if err != nil {
		slog.WarnContext(ctx, "skipping direct message", "error", err)
		return model.InboundEvent{}, false
	}
	return ev, true
}

func (m *MetaWebhookMapper) comment(ctx context.Context, change changeItem) (model.InboundEvent, bool) {
	var value commentValue
	if err := json.Unmarshal(change.Value, &value); err != nil {
		slog.WarnContext(ctx, "skipping comment with unreadable value", "error", err)
		return model.InboundEvent{}, false
	}
	if value.Text == "" {
		slog.DebugContext(ctx, "ignoring comment without text", "comment_id", value.ID)
		return model.InboundEvent{}, false
	}

	postID := value.Media.ID
	if postID == "" {
		postID = value.ParentID
	}

	ev, err := model.NewCommentEvent(model.PlatformInstagram, model.CommentEvent{
		CommentID:    value.ID,
		ParentPostID: postID,
		Text:         value.Text,
		AuthorHandle: value.From.Username,
		AuthorID:     value.From.ID,
	})
	if err != nil {
		slog.WarnContext(ctx, "skipping comment", "error", err)
		return model.InboundEvent{}, false
	}
	return ev, true
}
