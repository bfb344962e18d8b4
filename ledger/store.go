/*
store.go - Persistence interface for batches and ledger events

PURPOSE:
  Defines the interface between the accounting core and the database.
  The core only needs a handful of query and insert shapes; everything else
  (schema, connections, master data CRUD) belongs to the implementation.

KEY INTERFACES:
  Store:   Batch/event queries and inserts, plus the branch/item lookups the
           core needs to validate requests
  TxStore: Store plus WithTx for one-operation-one-transaction atomicity

APPEND-ONLY CONTRACT:
  - InsertTransaction / InsertDisposal / InsertBatch are the only writes
    to the ledger tables
  - NO Update() or Delete() methods exist for batches or events

ATOMICITY:
  Allocation reads balances, then posts one event (and possibly one batch)
  per allocated lot. Engine runs the whole sequence inside WithTx so a
  failure halfway leaves nothing visible.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, also holds master data tables
  - ledger/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: Uses TxStore.WithTx around every posting operation
  - balance.go: Uses GetBatch + the two sum queries
*/
package ledger

import "context"

// =============================================================================
// STORE - Ledger persistence (append-only for batches and events)
// =============================================================================

type Store interface {
	// GetBatch returns the batch or a *NotFoundError.
	GetBatch(ctx context.Context, id BatchID) (Batch, error)

	// SumOutgoingTransactions sums quantity over every transaction event
	// debiting the batch, regardless of type.
	SumOutgoingTransactions(ctx context.Context, id BatchID) (int64, error)

	// SumDisposals sums quantity over every disposal event debiting the batch.
	SumDisposals(ctx context.Context, id BatchID) (int64, error)

	// FindCandidateBatches returns batches for item at branch whose
	// acquisition year matches (IS NULL for the unspecified year), ordered
	// by ascending id. Exhausted batches may be included; the allocator
	// filters them.
	FindCandidateBatches(ctx context.Context, itemID ItemID, branchID BranchID, year Year) ([]BatchRef, error)

	InsertTransaction(ctx context.Context, ev TransactionEvent) (TransactionID, error)
	InsertBatch(ctx context.Context, b Batch) (BatchID, error)
	InsertDisposal(ctx context.Context, ev DisposalEvent) (DisposalID, error)

	// Reference lookups. Missing rows yield a *NotFoundError.
	GetItem(ctx context.Context, id ItemID) (Item, error)
	GetBranch(ctx context.Context, id BranchID) (Branch, error)
	FindBranchByName(ctx context.Context, name string) (Branch, error)
	InsertBranch(ctx context.Context, b Branch) (BranchID, error)

	// Listing for the read model. Events are returned in id order.
	ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error)
	ListTransactions(ctx context.Context) ([]TransactionEvent, error)
	ListDisposals(ctx context.Context) ([]DisposalEvent, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
