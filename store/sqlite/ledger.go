package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// LEDGER STORE (ledger.Store interface)
// =============================================================================

var (
	batchColumns = []string{
		"batch_id", "item_id", "branch_id", "acquisition_date", "acquisition_method",
		"COALESCE(source, '') AS source", "quantity", "cost",
		"COALESCE(authority_ref, '') AS authority_ref", "COALESCE(remarks, '') AS remarks",
		"acquisition_year", "COALESCE(derived_from, 0) AS derived_from",
	}
	transactionColumns = []string{
		"transaction_id", "batch_id", "transaction_type",
		"COALESCE(from_branch_id, 0) AS from_branch_id", "COALESCE(to_branch_id, 0) AS to_branch_id",
		"transaction_date", "quantity",
		"COALESCE(authority_ref, '') AS authority_ref", "COALESCE(remarks, '') AS remarks",
		"COALESCE(reference, '') AS reference",
	}
	disposalColumns = []string{
		"disposal_id", "batch_id", "disposal_date", "quantity", "disposal_method",
		"COALESCE(authority_ref, '') AS authority_ref", "COALESCE(remarks, '') AS remarks",
		"COALESCE(reference, '') AS reference",
	}
	branchColumns = []string{
		"branch_id", "branch_name", "COALESCE(address, '') AS address", "COALESCE(remarks, '') AS remarks",
	}
	itemColumns = []string{
		"item_id", "item_name", "category_id", "subcategory_id",
		"COALESCE(specification, '') AS specification",
		"COALESCE(govt_property_code, '') AS govt_property_code",
		"COALESCE(remarks, '') AS remarks",
	}
)

var (
	_ ledger.TxStore = (*Store)(nil)
	_ ledger.Store   = (*txStore)(nil)
)

// txStore runs the ledger queries against one querier. Store uses it over
// *sql.DB under its mutex; WithTx hands it out over *sql.Tx.
type txStore struct {
	q querier
}

func (ts *txStore) GetBatch(ctx context.Context, id ledger.BatchID) (ledger.Batch, error) {
	var b ledger.Batch
	err := get(ctx, ts.q, &b, builder.Select(batchColumns...).
		From("asset_batches").
		Where(sq.Eq{"batch_id": int64(id)}))
	if err != nil {
		return ledger.Batch{}, notFound(err, "batch", id)
	}
	return b, nil
}

func (ts *txStore) SumOutgoingTransactions(ctx context.Context, id ledger.BatchID) (int64, error) {
	var total int64
	err := get(ctx, ts.q, &total, builder.Select("COALESCE(SUM(quantity), 0)").
		From("asset_transactions").
		Where(sq.Eq{"batch_id": int64(id)}))
	return total, err
}

func (ts *txStore) SumDisposals(ctx context.Context, id ledger.BatchID) (int64, error) {
	var total int64
	err := get(ctx, ts.q, &total, builder.Select("COALESCE(SUM(quantity), 0)").
		From("asset_disposal").
		Where(sq.Eq{"batch_id": int64(id)}))
	return total, err
}

// yearCondition matches acquisition_year, using IS NULL for the unspecified year.
func yearCondition(y ledger.Year) sq.Eq {
	if !y.Valid {
		return sq.Eq{"acquisition_year": nil}
	}
	return sq.Eq{"acquisition_year": y.Text}
}

func (ts *txStore) FindCandidateBatches(ctx context.Context, itemID ledger.ItemID, branchID ledger.BranchID, year ledger.Year) ([]ledger.BatchRef, error) {
	var refs []ledger.BatchRef
	err := selectAll(ctx, ts.q, &refs, builder.Select("batch_id", "quantity").
		From("asset_batches").
		Where(sq.Eq{"item_id": int64(itemID), "branch_id": int64(branchID)}).
		Where(yearCondition(year)).
		OrderBy("batch_id ASC"))
	if err != nil {
		return nil, fmt.Errorf("query candidate batches: %w", err)
	}
	return refs, nil
}

func (ts *txStore) InsertTransaction(ctx context.Context, ev ledger.TransactionEvent) (ledger.TransactionID, error) {
	id, err := insert(ctx, ts.q, builder.Insert("asset_transactions").
		Columns("batch_id", "transaction_type", "from_branch_id", "to_branch_id",
			"transaction_date", "quantity", "authority_ref", "remarks", "reference").
		Values(int64(ev.BatchID), string(ev.Type), nullInt64(int64(ev.FromBranch)), nullInt64(int64(ev.ToBranch)),
			ev.Date, ev.Quantity, ev.AuthorityRef, ev.Remarks, nullString(ev.Reference)))
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return ledger.TransactionID(id), nil
}

func (ts *txStore) InsertBatch(ctx context.Context, b ledger.Batch) (ledger.BatchID, error) {
	id, err := insert(ctx, ts.q, builder.Insert("asset_batches").
		Columns("item_id", "branch_id", "acquisition_date", "acquisition_method", "source",
			"quantity", "cost", "authority_ref", "remarks", "acquisition_year", "derived_from").
		Values(int64(b.ItemID), int64(b.BranchID), b.AcquisitionDate, b.AcquisitionMethod, b.Source,
			b.OriginalQuantity, b.Cost, b.AuthorityRef, b.Remarks, b.AcquisitionYear, nullInt64(int64(b.DerivedFrom))))
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}
	return ledger.BatchID(id), nil
}

func (ts *txStore) InsertDisposal(ctx context.Context, ev ledger.DisposalEvent) (ledger.DisposalID, error) {
	id, err := insert(ctx, ts.q, builder.Insert("asset_disposal").
		Columns("batch_id", "disposal_date", "quantity", "disposal_method", "authority_ref", "remarks", "reference").
		Values(int64(ev.BatchID), ev.Date, ev.Quantity, ev.Method, ev.AuthorityRef, ev.Remarks, nullString(ev.Reference)))
	if err != nil {
		return 0, fmt.Errorf("failed to insert disposal: %w", err)
	}
	return ledger.DisposalID(id), nil
}

func (ts *txStore) GetItem(ctx context.Context, id ledger.ItemID) (ledger.Item, error) {
	var it ledger.Item
	err := get(ctx, ts.q, &it, builder.Select(itemColumns...).
		From("items").
		Where(sq.Eq{"item_id": int64(id)}))
	if err != nil {
		return ledger.Item{}, notFound(err, "item", id)
	}
	return it, nil
}

func (ts *txStore) GetBranch(ctx context.Context, id ledger.BranchID) (ledger.Branch, error) {
	var b ledger.Branch
	err := get(ctx, ts.q, &b, builder.Select(branchColumns...).
		From("branches").
		Where(sq.Eq{"branch_id": int64(id)}))
	if err != nil {
		return ledger.Branch{}, notFound(err, "branch", id)
	}
	return b, nil
}

func (ts *txStore) FindBranchByName(ctx context.Context, name string) (ledger.Branch, error) {
	var b ledger.Branch
	err := get(ctx, ts.q, &b, builder.Select(branchColumns...).
		From("branches").
		Where(sq.Eq{"branch_name": name}))
	if err != nil {
		return ledger.Branch{}, notFound(err, "branch", name)
	}
	return b, nil
}

func (ts *txStore) InsertBranch(ctx context.Context, b ledger.Branch) (ledger.BranchID, error) {
	id, err := insert(ctx, ts.q, builder.Insert("branches").
		Columns("branch_name", "address", "remarks").
		Values(b.Name, b.Address, b.Remarks))
	if err != nil {
		return 0, fmt.Errorf("failed to insert branch: %w", err)
	}
	return ledger.BranchID(id), nil
}

func (ts *txStore) ListBatches(ctx context.Context, f ledger.BatchFilter) ([]ledger.Batch, error) {
	q := builder.Select(batchColumns...).From("asset_batches").OrderBy("batch_id ASC")
	if f.ItemID != nil {
		q = q.Where(sq.Eq{"item_id": int64(*f.ItemID)})
	}
	if f.BranchID != nil {
		q = q.Where(sq.Eq{"branch_id": int64(*f.BranchID)})
	}
	if f.Year != nil {
		q = q.Where(yearCondition(*f.Year))
	}

	var batches []ledger.Batch
	if err := selectAll(ctx, ts.q, &batches, q); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

func (ts *txStore) ListTransactions(ctx context.Context) ([]ledger.TransactionEvent, error) {
	var txs []ledger.TransactionEvent
	err := selectAll(ctx, ts.q, &txs, builder.Select(transactionColumns...).
		From("asset_transactions").
		OrderBy("transaction_id ASC"))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (ts *txStore) ListDisposals(ctx context.Context) ([]ledger.DisposalEvent, error) {
	var ds []ledger.DisposalEvent
	err := selectAll(ctx, ts.q, &ds, builder.Select(disposalColumns...).
		From("asset_disposal").
		OrderBy("disposal_id ASC"))
	if err != nil {
		return nil, fmt.Errorf("list disposals: %w", err)
	}
	return ds, nil
}

// =============================================================================
// Store delegates to txStore over *sql.DB, holding the mutex
// =============================================================================

func (s *Store) view() *txStore { return &txStore{q: s.db} }

func (s *Store) GetBatch(ctx context.Context, id ledger.BatchID) (ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetBatch(ctx, id)
}

func (s *Store) SumOutgoingTransactions(ctx context.Context, id ledger.BatchID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().SumOutgoingTransactions(ctx, id)
}

func (s *Store) SumDisposals(ctx context.Context, id ledger.BatchID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().SumDisposals(ctx, id)
}

func (s *Store) FindCandidateBatches(ctx context.Context, itemID ledger.ItemID, branchID ledger.BranchID, year ledger.Year) ([]ledger.BatchRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().FindCandidateBatches(ctx, itemID, branchID, year)
}

func (s *Store) InsertTransaction(ctx context.Context, ev ledger.TransactionEvent) (ledger.TransactionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertTransaction(ctx, ev)
}

func (s *Store) InsertBatch(ctx context.Context, b ledger.Batch) (ledger.BatchID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertBatch(ctx, b)
}

func (s *Store) InsertDisposal(ctx context.Context, ev ledger.DisposalEvent) (ledger.DisposalID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertDisposal(ctx, ev)
}

func (s *Store) GetItem(ctx context.Context, id ledger.ItemID) (ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetItem(ctx, id)
}

func (s *Store) GetBranch(ctx context.Context, id ledger.BranchID) (ledger.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetBranch(ctx, id)
}

func (s *Store) FindBranchByName(ctx context.Context, name string) (ledger.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().FindBranchByName(ctx, name)
}

func (s *Store) InsertBranch(ctx context.Context, b ledger.Branch) (ledger.BranchID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertBranch(ctx, b)
}

func (s *Store) ListBatches(ctx context.Context, f ledger.BatchFilter) ([]ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListBatches(ctx, f)
}

func (s *Store) ListTransactions(ctx context.Context) ([]ledger.TransactionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListTransactions(ctx)
}

func (s *Store) ListDisposals(ctx context.Context) ([]ledger.DisposalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListDisposals(ctx)
}
