package service

import (
	"context"

	"basegraph.app/autoreply/common/id"
	"basegraph.app/autoreply/core/db"
	"basegraph.app/autoreply/core/db/sqlc"
	"basegraph.app/autoreply/internal/store"
)

// StoreProvider exposes only the stores needed by a transactional operation.
type StoreProvider interface {
	Conversations() store.ConversationStore
	FailedReplies() store.FailedReplyStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db  *db.DB
	ids id.Generator
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB, ids id.Generator) TxRunner {
	return &dbTxRunner{db: db, ids: ids}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		stores := store.NewStores(q, r.ids)
		return fn(stores)
	})
}

type memoryTxRunner struct {
	stores *store.MemoryStores
}

// NewMemoryTxRunner runs fn directly against in-memory stores. Writes made
// before fn returns an error are not rolled back.
func NewMemoryTxRunner(stores *store.MemoryStores) TxRunner {
	return &memoryTxRunner{stores: stores}
}

func (r *memoryTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return fn(r.stores)
}
