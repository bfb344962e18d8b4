/*
disposal.go - Terminal removal of units from Store batches

PURPOSE:
  Disposal (condemnation, auction, write-off, ...) permanently shrinks the
  available quantity of Store-held lots. It uses the same FIFO allocation as
  movements but creates no batch: disposed units leave the system.

AVAILABILITY:
  Uses the same formula as every other component:

    available = original - Σ transactions - Σ disposals

  A returned unit is never added back to its source batch; it arrives at the
  Store as a derived batch, which is what disposal then draws from.

SEE ALSO:
  - allocator.go: Produces the lines (source branch fixed to the Store)
  - engine.go: Wraps Record in a transaction
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
)

// DefaultDisposalMethod is used when the caller leaves the method empty.
const DefaultDisposalMethod = "Condemnation"

type DisposalInput struct {
	ItemID       ItemID
	Year         Year
	Quantity     int64
	Date         Date
	Method       string
	AuthorityRef string
	Remarks      string
}

type DisposalResult struct {
	Reference   string
	Allocation  Allocation
	DisposalIDs []DisposalID
}

type DisposalProcessor struct {
	Store       Store
	StoreBranch BranchID
	Allocator   *Allocator
}

// Record allocates against Store batches and posts one DisposalEvent per
// line. Like MovementRecorder.Record it expects to run inside a transaction.
func (d *DisposalProcessor) Record(ctx context.Context, in DisposalInput, reference string) (*DisposalResult, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := d.Store.GetItem(ctx, in.ItemID); err != nil {
		return nil, err
	}

	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = DefaultDisposalMethod
	}

	alloc, err := d.Allocator.Allocate(ctx, AllocationRequest{
		ItemID:   in.ItemID,
		BranchID: d.StoreBranch,
		Year:     in.Year,
		Quantity: in.Quantity,
	})
	if err != nil {
		return nil, err
	}

	result := &DisposalResult{Reference: reference, Allocation: alloc}
	for _, line := range alloc.Lines {
		id, err := d.Store.InsertDisposal(ctx, DisposalEvent{
			BatchID:      line.BatchID,
			Date:         in.Date,
			Quantity:     line.Quantity,
			Method:       method,
			AuthorityRef: in.AuthorityRef,
			Remarks:      in.Remarks,
			Reference:    reference,
		})
		if err != nil {
			return nil, fmt.Errorf("post disposal of batch %d: %w", line.BatchID, err)
		}
		result.DisposalIDs = append(result.DisposalIDs, id)
	}
	return result, nil
}
