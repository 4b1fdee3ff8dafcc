package model

import "time"

// ConversationEntry is one exchange: the user's message and the bot's reply.
type ConversationEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	UserMessage   string    `json:"user_message"`
	BotReply      string    `json:"bot_reply"`
	SourceEventID string    `json:"source_event_id"`
}

// Conversation is the append-only history with one participant, oldest first.
type Conversation struct {
	ParticipantID string              `json:"participant_id"`
	Entries       []ConversationEntry `json:"entries"`
}

// Recent returns the last n entries in chronological order.
func (c Conversation) Recent(n int) []ConversationEntry {
	return LastEntries(c.Entries, n)
}

// LastEntries returns the tail of entries with at most n items. A non-positive
// n yields no entries.
func LastEntries(entries []ConversationEntry, n int) []ConversationEntry {
	if n <= 0 {
		return nil
	}
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
