/*
balance.go - Units still available in a batch

PURPOSE:
  Computes how many units of a lot are still at its branch. This is the
  central calculation every other component builds on.

FORMULA:
  available = original_quantity - Σ transaction quantities - Σ disposal quantities

  Every TransactionEvent debits its batch regardless of type. Units that come
  back through a Return arrive as a NEW batch at the Store, so nothing is ever
  added back to the source batch.

INVARIANT:
  0 <= available <= original_quantity

LIFECYCLE:
  Active    available > 0
  Exhausted available == 0 (terminal)

NO CACHING:
  Batches are independent: taking units from one batch never changes another
  batch's balance, so a multi-batch allocation can call Available once per
  candidate without drift. Nothing is memoized across calls.

SEE ALSO:
  - allocator.go: Calls Available for every candidate batch
  - aggregate.go: Sums the same formula over batch sets
*/
package ledger

import (
	"context"
	"fmt"
)

// =============================================================================
// BATCH BALANCE - The components of available
// =============================================================================

type BatchState string

const (
	BatchActive    BatchState = "active"
	BatchExhausted BatchState = "exhausted"
)

type BatchBalance struct {
	BatchID     BatchID
	Original    int64
	Transferred int64 // Σ transaction events (Issue, Transfer, Return)
	Disposed    int64
}

// Available returns the units still held.
func (b BatchBalance) Available() int64 {
	return b.Original - b.Transferred - b.Disposed
}

func (b BatchBalance) State() BatchState {
	if b.Available() > 0 {
		return BatchActive
	}
	return BatchExhausted
}

// =============================================================================
// BALANCE CALCULATOR
// =============================================================================

type BalanceCalculator struct {
	Store Store
}

// Balance fetches the three components for one batch.
func (bc *BalanceCalculator) Balance(ctx context.Context, id BatchID) (BatchBalance, error) {
	batch, err := bc.Store.GetBatch(ctx, id)
	if err != nil {
		return BatchBalance{}, err
	}

	transferred, err := bc.Store.SumOutgoingTransactions(ctx, id)
	if err != nil {
		return BatchBalance{}, fmt.Errorf("sum transactions for batch %d: %w", id, err)
	}

	disposed, err := bc.Store.SumDisposals(ctx, id)
	if err != nil {
		return BatchBalance{}, fmt.Errorf("sum disposals for batch %d: %w", id, err)
	}

	return BatchBalance{
		BatchID:     id,
		Original:    batch.OriginalQuantity,
		Transferred: transferred,
		Disposed:    disposed,
	}, nil
}

// Available returns units still held by the batch.
func (bc *BalanceCalculator) Available(ctx context.Context, id BatchID) (int64, error) {
	b, err := bc.Balance(ctx, id)
	if err != nil {
		return 0, err
	}
	return b.Available(), nil
}
