package brain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"basegraph.app/autoreply/internal/model"
)

// CaptionFetcher reads a post caption for comment context.
type CaptionFetcher interface {
	GetPostCaption(ctx context.Context, postID string) (string, error)
}

// ContextBuilder renders the instruction handed to the reply generator.
type ContextBuilder interface {
	BuildPrompt(ctx context.Context, event model.InboundEvent, history []model.ConversationEntry) (string, error)
}

// contextBuilder builds channel-specific prompts. Comments get the post
// caption; direct messages get the most recent window of the conversation.
type contextBuilder struct {
	captions CaptionFetcher
	window   int
}

// NewContextBuilder creates a ContextBuilder. window bounds how many history
// entries a direct message prompt includes.
func NewContextBuilder(captions CaptionFetcher, window int) ContextBuilder {
	return &contextBuilder{
		captions: captions,
		window:   window,
	}
}

func (b *contextBuilder) BuildPrompt(ctx context.Context, event model.InboundEvent, history []model.ConversationEntry) (string, error) {
	switch event.Kind {
	case model.EventKindComment:
		caption := b.fetchCaption(ctx, event.Comment.ParentPostID)
		return commentPrompt(event.Comment.Text, caption), nil
	case model.EventKindDirectMessage:
		return directMessagePrompt(event.DirectMessage.Text, model.LastEntries(history, b.window)), nil
	default:
		return "", fmt.Errorf("building prompt: unsupported event kind %q", event.Kind)
	}
}

// fetchCaption degrades to an empty caption; a missing caption only makes
// the reply less specific.
func (b *contextBuilder) fetchCaption(ctx context.Context, postID string) string {
	if postID == "" || b.captions == nil {
		return ""
	}

	caption, err := b.captions.GetPostCaption(ctx, postID)
	if err != nil {
		slog.WarnContext(ctx, "caption lookup failed, continuing without post context",
			"error", err,
			"post_id", postID)
		return ""
	}
	return caption
}

func commentPrompt(text, caption string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a friendly reply to this Instagram comment: %q\n\n", text)
	fmt.Fprintf(&sb, "Post context: %q\n\n", caption)
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Use post context to make reply more relevant\n")
	sb.WriteString("- Keep it under 50 characters\n")
	sb.WriteString("- Be positive and engaging\n")
	sb.WriteString("- Sound natural and conversational\n\n")
	sb.WriteString("Generate contextual reply:")
	return sb.String()
}

func directMessagePrompt(text string, history []model.ConversationEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a friendly, helpful DM reply to: %q\n", text)

	if len(history) > 0 {
		sb.WriteString("\nPrevious conversation:\n")
		for _, entry := range history {
			fmt.Fprintf(&sb, "User: %s\nBot: %s\n", entry.UserMessage, entry.BotReply)
		}
	}

	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Keep it under 100 characters\n")
	sb.WriteString("- Be professional and helpful\n")
	sb.WriteString("- Use conversation context if available\n")
	sb.WriteString("- Sound natural\n\n")
	sb.WriteString("Generate helpful reply:")
	return sb.String()
}
