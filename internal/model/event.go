package model

import (
	"errors"
	"fmt"
)

type EventKind string

const (
	EventKindComment       EventKind = "comment"
	EventKindDirectMessage EventKind = "direct_message"
)

// Platform is the webhook object the event arrived under.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformPage      Platform = "page"
)

var ErrInvalidEvent = errors.New("invalid inbound event")

// CommentEvent is a public comment on one of the account's posts.
type CommentEvent struct {
	CommentID    string `json:"comment_id"`
	ParentPostID string `json:"parent_post_id,omitempty"`
	Text         string `json:"text"`
	AuthorHandle string `json:"author_handle,omitempty"`
	AuthorID     string `json:"author_id,omitempty"`
}

// DirectMessageEvent is a private message sent to the account.
type DirectMessageEvent struct {
	SenderID  string `json:"sender_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// InboundEvent is a tagged union: exactly one of Comment or DirectMessage is
// set, matching Kind. Build it with NewCommentEvent or NewDirectMessageEvent.
type InboundEvent struct {
	Kind          EventKind           `json:"kind"`
	Platform      Platform            `json:"platform"`
	Comment       *CommentEvent       `json:"comment,omitempty"`
	DirectMessage *DirectMessageEvent `json:"direct_message,omitempty"`
}

// BotIdentity identifies the account the service replies as.
type BotIdentity struct {
	UserID   string
	Username string
}

func NewCommentEvent(platform Platform, c CommentEvent) (InboundEvent, error) {
	ev := InboundEvent{Kind: EventKindComment, Platform: platform, Comment: &c}
	return ev, ev.Validate()
}

func NewDirectMessageEvent(platform Platform, dm DirectMessageEvent) (InboundEvent, error) {
	ev := InboundEvent{Kind: EventKindDirectMessage, Platform: platform, DirectMessage: &dm}
	return ev, ev.Validate()
}

// Validate checks the union shape and the fields every later stage relies on.
func (e InboundEvent) Validate() error {
	switch e.Kind {
	case EventKindComment:
		if e.Comment == nil || e.DirectMessage != nil {
			return fmt.Errorf("%w: comment kind must carry only a comment", ErrInvalidEvent)
		}
		if e.Comment.CommentID == "" {
			return fmt.Errorf("%w: comment id missing", ErrInvalidEvent)
		}
	case EventKindDirectMessage:
		if e.DirectMessage == nil || e.Comment != nil {
			return fmt.Errorf("%w: direct_message kind must carry only a direct message", ErrInvalidEvent)
		}
		if e.DirectMessage.SenderID == "" {
			return fmt.Errorf("%w: sender id missing", ErrInvalidEvent)
		}
		if e.DirectMessage.MessageID == "" {
			return fmt.Errorf("%w: message id missing", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}

// EventID is the platform id used for deduplication.
func (e InboundEvent) EventID() string {
	switch {
	case e.Kind == EventKindComment && e.Comment != nil:
		return e.Comment.CommentID
	case e.Kind == EventKindDirectMessage && e.DirectMessage != nil:
		return e.DirectMessage.MessageID
	}
	return ""
}

// ActorID is the author's platform user id.
func (e InboundEvent) ActorID() string {
	switch {
	case e.Kind == EventKindComment && e.Comment != nil:
		return e.Comment.AuthorID
	case e.Kind == EventKindDirectMessage && e.DirectMessage != nil:
		return e.DirectMessage.SenderID
	}
	return ""
}

// ParticipantID keys the conversation record. Comments without an author id
// fall back to the comment id.
func (e InboundEvent) ParticipantID() string {
	switch {
	case e.Kind == EventKindComment && e.Comment != nil:
		if e.Comment.AuthorID != "" {
			return e.Comment.AuthorID
		}
		return e.Comment.CommentID
	case e.Kind == EventKindDirectMessage && e.DirectMessage != nil:
		return e.DirectMessage.SenderID
	}
	return ""
}

func (e InboundEvent) Text() string {
	switch {
	case e.Kind == EventKindComment && e.Comment != nil:
		return e.Comment.Text
	case e.Kind == EventKindDirectMessage && e.DirectMessage != nil:
		return e.DirectMessage.Text
	}
	return ""
}

// SelfCheckPair returns the (self, actor) ids compared for loop detection.
// Comment webhooks reliably carry the author's username but not always the
// id, so a comment matches the bot on either its user id or its username.
func (e InboundEvent) SelfCheckPair(bot BotIdentity) (selfID, actorID string) {
	if e.Kind == EventKindComment && e.Comment != nil {
		if bot.UserID != "" && e.Comment.AuthorID == bot.UserID {
			return bot.UserID, e.Comment.AuthorID
		}
		if bot.Username != "" && e.Comment.AuthorHandle != "" {
			return bot.Username, e.Comment.AuthorHandle
		}
	}
	return bot.UserID, e.ActorID()
}
