/*
allocator.go - FIFO allocation of a requested quantity across batches

PURPOSE:
  A request ("5 units of Item X, year 2022, from the Store") rarely fits in a
  single lot. The allocator picks the eligible lots and splits the demand
  across them, oldest first. It is a pure planning step: it never writes.

ALGORITHM:
  1. Candidates: same item, same branch, same acquisition year (or year IS
     NULL when the year is unspecified), available > 0
  2. Order: ascending BatchID (creation order) - older lots go first
  3. Pre-check: Σ available >= requested, otherwise InsufficientStockError
     before anything is posted (no partial allocation)
  4. Walk: take min(remaining, available) from each lot until remaining == 0

EXAMPLE:
  B1 (created first, available 3), B2 (available 5), request 4:

    [(B1, 3), (B2, 1)]

INVARIANT:
  On success Σ line.Quantity == requested and every line.Quantity <= the
  batch's available at call time.

SEE ALSO:
  - balance.go: Available per candidate
  - movement.go, disposal.go: Consume the allocation
*/
package ledger

import (
	"context"
	"fmt"
)

// =============================================================================
// ALLOCATION - The plan produced by the allocator
// =============================================================================

type AllocationRequest struct {
	ItemID   ItemID
	BranchID BranchID
	Year     Year
	Quantity int64
}

// AllocationLine is the amount taken from one batch.
type AllocationLine struct {
	BatchID   BatchID
	Quantity  int64
	Available int64 // available before this allocation
}

type Allocation struct {
	Request        AllocationRequest
	Lines          []AllocationLine
	TotalAvailable int64 // Σ available over all candidates
}

// Total returns Σ line quantities.
func (a Allocation) Total() int64 {
	var total int64
	for _, l := range a.Lines {
		total += l.Quantity
	}
	return total
}

// =============================================================================
// ALLOCATOR
// =============================================================================

type Allocator struct {
	Store    Store
	Balances *BalanceCalculator
}

// NewAllocator builds an allocator and its balance calculator over store.
func NewAllocator(store Store) *Allocator {
	return &Allocator{Store: store, Balances: &BalanceCalculator{Store: store}}
}

// candidate is an eligible batch with its current balance.
type candidate struct {
	id        BatchID
	available int64
}

// Allocate plans which batches satisfy req.
func (a *Allocator) Allocate(ctx context.Context, req AllocationRequest) (Allocation, error) {
	if req.Quantity <= 0 {
		return Allocation{}, ErrInvalidQuantity
	}

	candidates, total, err := a.candidates(ctx, req)
	if err != nil {
		return Allocation{}, err
	}

	if total < req.Quantity {
		return Allocation{}, &InsufficientStockError{
			ItemID:    req.ItemID,
			BranchID:  req.BranchID,
			Year:      req.Year,
			Available: total,
			Requested: req.Quantity,
		}
	}

	var lines []AllocationLine
	remaining := req.Quantity

	for _, c := range candidates {
		if remaining == 0 {
			break
		}
		take := min(remaining, c.available)
		lines = append(lines, AllocationLine{
			BatchID:   c.id,
			Quantity:  take,
			Available: c.available,
		})
		remaining -= take
	}

	return Allocation{Request: req, Lines: lines, TotalAvailable: total}, nil
}

// candidates returns eligible batches with available > 0, FIFO-ordered, and
// the sum of their availability.
func (a *Allocator) candidates(ctx context.Context, req AllocationRequest) ([]candidate, int64, error) {
	refs, err := a.Store.FindCandidateBatches(ctx, req.ItemID, req.BranchID, req.Year)
	if err != nil {
		return nil, 0, fmt.Errorf("find candidate batches: %w", err)
	}

	var (
		out   []candidate
		total int64
		last  BatchID
	)
	for i, ref := range refs {
		if i > 0 && ref.ID <= last {
			return nil, 0, fmt.Errorf("candidate batches out of creation order: %d after %d", ref.ID, last)
		}
		last = ref.ID

		available, err := a.Balances.Available(ctx, ref.ID)
		if err != nil {
			return nil, 0, err
		}
		if available <= 0 {
			continue
		}
		out = append(out, candidate{id: ref.ID, available: available})
		total += available
	}
	return out, total, nil
}
