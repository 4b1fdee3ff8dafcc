package store

import (
	"basegraph.app/autoreply/common/id"
	"basegraph.app/autoreply/core/db/sqlc"
)

// Stores hands out Postgres-backed stores over one set of queries, which may
// be bound to a transaction.
type Stores struct {
	queries *sqlc.Queries
	ids     id.Generator
}

func NewStores(queries *sqlc.Queries, ids id.Generator) *Stores {
	return &Stores{queries: queries, ids: ids}
}

func (s *Stores) Conversations() ConversationStore {
	return newConversationStore(s.queries, s.ids)
}

func (s *Stores) FailedReplies() FailedReplyStore {
	return newFailedReplyStore(s.queries, s.ids)
}
