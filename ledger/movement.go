/*
movement.go - Issue/Return posting and derived-batch materialization

PURPOSE:
  Moves units between the Store and a branch. Every allocated lot yields one
  TransactionEvent that debits it, followed by one new batch at the
  destination holding the moved units, so they can later be returned,
  re-issued or disposed on their own.

DIRECTION RULES:
  Issue:  Store  ──▶ branch   (destination must not be the Store)
  Return: branch ──▶ Store    (source must not be the Store)

  Anything else fails with InvalidMovementError before allocation.

DERIVED BATCH:
  For a line (batch B, take N) of an Issue to "Branch B":

    TransactionEvent{batch: B, type: Issue, from: Store, to: Branch B, quantity: N}
    Batch{branch: Branch B, quantity: N, method: "Issue",
          source: "Issued to Branch B", cost: B.cost, year: B.year,
          derived_from: B}

PROVENANCE:
  Cost and acquisition year travel with the units. DerivedFrom keeps the
  lineage queryable without parsing the Source text.

SEE ALSO:
  - allocator.go: Produces the lines
  - engine.go: Wraps Record in a transaction
*/
package ledger

import (
	"context"
	"fmt"
)

// =============================================================================
// MOVEMENT INPUT / RESULT
// =============================================================================

type MovementInput struct {
	ItemID       ItemID
	Type         TransactionType // TxIssue or TxReturn
	From         BranchID
	To           BranchID
	Year         Year
	Quantity     int64
	Date         Date
	AuthorityRef string
	Remarks      string
}

type MovementResult struct {
	Reference      string
	Allocation     Allocation
	TransactionIDs []TransactionID
	DerivedBatches []BatchID
}

// =============================================================================
// MOVEMENT RECORDER
// =============================================================================

type MovementRecorder struct {
	Store       Store
	StoreBranch BranchID
	Allocator   *Allocator
}

// Validate checks direction rules and that the item and both branches exist.
// It returns the destination branch so the provenance text can name it.
func (m *MovementRecorder) Validate(ctx context.Context, in MovementInput) (Branch, error) {
	if in.Quantity <= 0 {
		return Branch{}, ErrInvalidQuantity
	}

	invalid := func(reason string) error {
		return &InvalidMovementError{Type: in.Type, From: in.From, To: in.To, Reason: reason}
	}

	switch in.Type {
	case TxIssue:
		if in.From != m.StoreBranch {
			return Branch{}, invalid("issues must originate at the Store")
		}
		if in.To == m.StoreBranch {
			return Branch{}, invalid("cannot issue to the Store")
		}
	case TxReturn:
		if in.From == m.StoreBranch {
			return Branch{}, invalid("cannot return from the Store")
		}
		if in.To != m.StoreBranch {
			return Branch{}, invalid("returns must go back to the Store")
		}
	default:
		return Branch{}, invalid("only Issue and Return movements can be recorded")
	}

	if _, err := m.Store.GetItem(ctx, in.ItemID); err != nil {
		return Branch{}, err
	}
	if _, err := m.Store.GetBranch(ctx, in.From); err != nil {
		return Branch{}, err
	}
	return m.Store.GetBranch(ctx, in.To)
}

// Record allocates and posts the movement. It must run inside a transaction:
// a failure in the loop leaves earlier lines written.
func (m *MovementRecorder) Record(ctx context.Context, in MovementInput, reference string) (*MovementResult, error) {
	dest, err := m.Validate(ctx, in)
	if err != nil {
		return nil, err
	}

	alloc, err := m.Allocator.Allocate(ctx, AllocationRequest{
		ItemID:   in.ItemID,
		BranchID: in.From,
		Year:     in.Year,
		Quantity: in.Quantity,
	})
	if err != nil {
		return nil, err
	}

	result := &MovementResult{Reference: reference, Allocation: alloc}

	for _, line := range alloc.Lines {
		txID, err := m.Store.InsertTransaction(ctx, TransactionEvent{
			BatchID:      line.BatchID,
			Type:         in.Type,
			FromBranch:   in.From,
			ToBranch:     in.To,
			Date:         in.Date,
			Quantity:     line.Quantity,
			AuthorityRef: in.AuthorityRef,
			Remarks:      in.Remarks,
			Reference:    reference,
		})
		if err != nil {
			return nil, fmt.Errorf("post %s of batch %d: %w", in.Type, line.BatchID, err)
		}
		result.TransactionIDs = append(result.TransactionIDs, txID)

		derivedID, err := m.materialize(ctx, in, line, dest)
		if err != nil {
			return nil, err
		}
		result.DerivedBatches = append(result.DerivedBatches, derivedID)
	}

	return result, nil
}

// materialize creates the destination batch for one posted line.
func (m *MovementRecorder) materialize(ctx context.Context, in MovementInput, line AllocationLine, dest Branch) (BatchID, error) {
	src, err := m.Store.GetBatch(ctx, line.BatchID)
	if err != nil {
		return 0, err
	}

	id, err := m.Store.InsertBatch(ctx, Batch{
		ItemID:            src.ItemID,
		BranchID:          dest.ID,
		AcquisitionDate:   in.Date,
		AcquisitionMethod: string(in.Type),
		Source:            ProvenanceSource(in.Type, dest.Name),
		OriginalQuantity:  line.Quantity,
		Cost:              src.Cost,
		AuthorityRef:      in.AuthorityRef,
		Remarks:           in.Remarks,
		AcquisitionYear:   src.AcquisitionYear,
		DerivedFrom:       src.ID,
	})
	if err != nil {
		return 0, fmt.Errorf("materialize batch from %d at branch %d: %w", src.ID, dest.ID, err)
	}
	return id, nil
}

// ProvenanceSource is the human-readable Source text of a derived batch.
func ProvenanceSource(t TransactionType, destName string) string {
	switch t {
	case TxIssue:
		return "Issued to " + destName
	case TxReturn:
		return "Returned to " + destName
	default:
		return fmt.Sprintf("%s to %s", t, destName)
	}
}
