/*
engine.go - Entry point for acquisitions, movements and disposals

PURPOSE:
  Engine is what the API (or any CLI) talks to. It resolves the Store branch
  once, then runs each user operation as exactly one transaction:

    Acquire  ──▶ InsertBatch at Store
    Move     ──▶ Allocate ──▶ (InsertTransaction + InsertBatch) per line
    Dispose  ──▶ Allocate ──▶ InsertDisposal per line

ONE OPERATION = ONE TRANSACTION:
  The allocator's pre-check and the postings that follow happen inside the
  same TxStore.WithTx call. If any line fails, every line of that request is
  rolled back and the caller sees the error; nothing is ever half-posted.

STORE BRANCH:
  Looked up by name at construction and created when absent. The resolved id
  is held on the Engine and never changes afterwards.

REFERENCES:
  Each posting request gets one reference (a UUID by default) written on all
  of its events, so the lines of one request can be found together.

SEE ALSO:
  - movement.go, disposal.go: The per-request posting logic
  - aggregate.go: Read-only rollups over the same store
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store       TxStore
	storeBranch BranchID
	log         *zap.Logger
	newRef      func() string
	today       func() Date
}

type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithReferences overrides how request references are generated.
func WithReferences(fn func() string) Option {
	return func(e *Engine) { e.newRef = fn }
}

// WithClock overrides the date used when an input leaves Date empty.
func WithClock(fn func() Date) Option {
	return func(e *Engine) { e.today = fn }
}

// NewEngine bootstraps the Store branch and returns a ready engine.
func NewEngine(ctx context.Context, store TxStore, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:  store,
		log:    zap.NewNop(),
		newRef: uuid.NewString,
		today:  Today,
	}
	for _, opt := range opts {
		opt(e)
	}

	branch, err := EnsureStoreBranch(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("bootstrap store branch: %w", err)
	}
	e.storeBranch = branch.ID
	e.log.Debug("store branch resolved", zap.Int64("branch_id", int64(branch.ID)))
	return e, nil
}

// EnsureStoreBranch returns the Store branch, creating it if absent.
func EnsureStoreBranch(ctx context.Context, store Store) (Branch, error) {
	b, err := store.FindBranchByName(ctx, StoreBranchName)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Branch{}, err
	}

	b = Branch{
		Name:    StoreBranchName,
		Address: StoreBranchAddress,
		Remarks: "Default central branch for acquisitions and disposals",
	}
	id, err := store.InsertBranch(ctx, b)
	if err != nil {
		return Branch{}, err
	}
	b.ID = id
	return b, nil
}

// StoreBranch returns the resolved Store branch id.
func (e *Engine) StoreBranch() BranchID { return e.storeBranch }

// Store exposes the underlying store for read models.
func (e *Engine) Store() TxStore { return e.store }

// =============================================================================
// READS
// =============================================================================

// Available returns the units still held by a batch.
func (e *Engine) Available(ctx context.Context, id BatchID) (int64, error) {
	bc := &BalanceCalculator{Store: e.store}
	return bc.Available(ctx, id)
}

// Balance returns the balance components of a batch.
func (e *Engine) Balance(ctx context.Context, id BatchID) (BatchBalance, error) {
	bc := &BalanceCalculator{Store: e.store}
	return bc.Balance(ctx, id)
}

// Allocate plans an allocation without posting anything.
func (e *Engine) Allocate(ctx context.Context, req AllocationRequest) (Allocation, error) {
	return NewAllocator(e.store).Allocate(ctx, req)
}

// =============================================================================
// ACQUISITION
// =============================================================================

type AcquisitionInput struct {
	ItemID       ItemID
	Date         Date
	Method       string // purchase, grant, donation, ...
	Source       string
	Quantity     int64
	Cost         decimal.NullDecimal
	AuthorityRef string
	Remarks      string
	Year         Year
}

// Acquire records a new lot at the Store.
func (e *Engine) Acquire(ctx context.Context, in AcquisitionInput) (BatchID, error) {
	if in.Quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		return 0, &ValidationError{Field: "acquisition_method", Message: "is required"}
	}
	if method == MethodIssue || method == MethodReturn {
		return 0, &ValidationError{Field: "acquisition_method", Message: "Issue and Return are reserved for movements"}
	}
	if !in.Year.Valid {
		return 0, &ValidationError{Field: "acquisition_year", Message: "is required"}
	}
	if in.Cost.Valid && in.Cost.Decimal.IsNegative() {
		return 0, &ValidationError{Field: "cost", Message: "must not be negative"}
	}
	if in.Date.IsZero() {
		in.Date = e.today()
	}

	var id BatchID
	err := e.store.WithTx(ctx, func(s Store) error {
		if _, err := s.GetItem(ctx, in.ItemID); err != nil {
			return err
		}
		var err error
		id, err = s.InsertBatch(ctx, Batch{
			ItemID:            in.ItemID,
			BranchID:          e.storeBranch,
			AcquisitionDate:   in.Date,
			AcquisitionMethod: method,
			Source:            in.Source,
			OriginalQuantity:  in.Quantity,
			Cost:              in.Cost,
			AuthorityRef:      in.AuthorityRef,
			Remarks:           in.Remarks,
			AcquisitionYear:   in.Year,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	e.log.Info("acquired batch",
		zap.Int64("batch_id", int64(id)),
		zap.Int64("item_id", int64(in.ItemID)),
		zap.Int64("quantity", in.Quantity),
		zap.String("year", in.Year.String()),
	)
	return id, nil
}

// =============================================================================
// MOVEMENTS AND DISPOSALS
// =============================================================================

// Move posts an Issue or Return atomically and returns what was created.
func (e *Engine) Move(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if in.Date.IsZero() {
		in.Date = e.today()
	}
	ref := e.newRef()

	var result *MovementResult
	err := e.store.WithTx(ctx, func(s Store) error {
		rec := &MovementRecorder{Store: s, StoreBranch: e.storeBranch, Allocator: NewAllocator(s)}
		var err error
		result, err = rec.Record(ctx, in, ref)
		return err
	})
	if err != nil {
		e.log.Warn("movement rejected",
			zap.String("type", string(in.Type)),
			zap.Int64("item_id", int64(in.ItemID)),
			zap.Int64("quantity", in.Quantity),
			zap.Error(err),
		)
		return nil, err
	}

	e.log.Info("posted movement",
		zap.String("reference", ref),
		zap.String("type", string(in.Type)),
		zap.Int64("item_id", int64(in.ItemID)),
		zap.Int64("from", int64(in.From)),
		zap.Int64("to", int64(in.To)),
		zap.Int64("quantity", in.Quantity),
		zap.Int("lines", len(result.TransactionIDs)),
	)
	return result, nil
}

// Issue moves units from the Store to a branch. A zero From means the Store;
// any other source is rejected by Move.
func (e *Engine) Issue(ctx context.Context, in MovementInput) (*MovementResult, error) {
	in.Type = TxIssue
	if in.From == 0 {
		in.From = e.storeBranch
	}
	return e.Move(ctx, in)
}

// Return moves units from a branch back to the Store. A zero To means the
// Store; any other destination is rejected by Move.
func (e *Engine) Return(ctx context.Context, in MovementInput) (*MovementResult, error) {
	in.Type = TxReturn
	if in.To == 0 {
		in.To = e.storeBranch
	}
	return e.Move(ctx, in)
}

// Dispose posts disposals against Store batches atomically.
func (e *Engine) Dispose(ctx context.Context, in DisposalInput) (*DisposalResult, error) {
	if in.Date.IsZero() {
		in.Date = e.today()
	}
	ref := e.newRef()

	var result *DisposalResult
	err := e.store.WithTx(ctx, func(s Store) error {
		proc := &DisposalProcessor{Store: s, StoreBranch: e.storeBranch, Allocator: NewAllocator(s)}
		var err error
		result, err = proc.Record(ctx, in, ref)
		return err
	})
	if err != nil {
		e.log.Warn("disposal rejected",
			zap.Int64("item_id", int64(in.ItemID)),
			zap.Int64("quantity", in.Quantity),
			zap.Error(err),
		)
		return nil, err
	}

	e.log.Info("posted disposal",
		zap.String("reference", ref),
		zap.Int64("item_id", int64(in.ItemID)),
		zap.Int64("quantity", in.Quantity),
		zap.Int("lines", len(result.DisposalIDs)),
	)
	return result, nil
}
