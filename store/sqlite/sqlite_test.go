package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-ledger/catalog"
	"github.com/warp/asset-ledger/ledger"
	"github.com/warp/asset-ledger/store/sqlite"
)

type testDB struct {
	ctx    context.Context
	store  *sqlite.Store
	engine *ledger.Engine
	item   ledger.ItemID
	branch ledger.BranchID
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := ledger.NewEngine(ctx, store)
	require.NoError(t, err)

	catID, err := store.InsertCategory(ctx, catalog.Category{Name: "Furniture"})
	require.NoError(t, err)
	subID, err := store.InsertSubCategory(ctx, catalog.SubCategory{CategoryID: catID, Name: "Chairs"})
	require.NoError(t, err)
	item, err := store.InsertItem(ctx, ledger.Item{Name: "Office Chair", CategoryID: catID, SubCategoryID: subID})
	require.NoError(t, err)
	branch, err := store.InsertBranch(ctx, ledger.Branch{Name: "Branch B", Address: "Main Road"})
	require.NoError(t, err)

	return &testDB{ctx: ctx, store: store, engine: engine, item: item, branch: branch}
}

func (db *testDB) acquire(t *testing.T, qty int64, year string) ledger.BatchID {
	t.Helper()
	id, err := db.engine.Acquire(db.ctx, ledger.AcquisitionInput{
		ItemID:   db.item,
		Date:     ledger.NewDate(2023, time.May, 2),
		Method:   "Purchase",
		Quantity: qty,
		Cost:     decimal.NewNullDecimal(decimal.RequireFromString("149.99")),
		Year:     ledger.NewYear(year),
	})
	require.NoError(t, err)
	return id
}

func TestStore_BootstrapsStoreBranchOnce(t *testing.T) {
	db := newTestDB(t)

	again, err := ledger.NewEngine(db.ctx, db.store)
	require.NoError(t, err)
	assert.Equal(t, db.engine.StoreBranch(), again.StoreBranch())

	branches, err := db.store.ListBranches(db.ctx)
	require.NoError(t, err)
	assert.Len(t, branches, 2)
}

func TestStore_BatchRoundTrip(t *testing.T) {
	db := newTestDB(t)
	id := db.acquire(t, 5, "2023")

	b, err := db.store.GetBatch(db.ctx, id)
	require.NoError(t, err)

	assert.Equal(t, db.item, b.ItemID)
	assert.Equal(t, db.engine.StoreBranch(), b.BranchID)
	assert.Equal(t, "2023-05-02", b.AcquisitionDate.String())
	assert.Equal(t, int64(5), b.OriginalQuantity)
	assert.True(t, b.Cost.Valid)
	assert.Equal(t, "149.99", b.Cost.Decimal.String())
	assert.Equal(t, ledger.NewYear("2023"), b.AcquisitionYear)
	assert.Zero(t, b.DerivedFrom)
}

func TestStore_GetBatch_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.store.GetBatch(db.ctx, 99)

	var nf *ledger.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "batch", nf.Entity)
}

func TestStore_IssueAcrossLots_PersistsLinesAndDerivedBatches(t *testing.T) {
	// GIVEN: Two 2023 lots of 2 and 3 at the Store
	// WHEN: Issuing 4 to Branch B
	// THEN: Two transaction rows sharing one reference, two derived batches
	//       at Branch B carrying cost, year and derived_from

	db := newTestDB(t)
	b1 := db.acquire(t, 2, "2023")
	b2 := db.acquire(t, 3, "2023")

	res, err := db.engine.Issue(db.ctx, ledger.MovementInput{
		ItemID: db.item, To: db.branch, Year: ledger.NewYear("2023"), Quantity: 4,
		Date: ledger.NewDate(2023, time.June, 1), AuthorityRef: "MEMO-7",
	})
	require.NoError(t, err)

	txs, err := db.store.ListTransactions(db.ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, b1, txs[0].BatchID)
	assert.Equal(t, int64(2), txs[0].Quantity)
	assert.Equal(t, b2, txs[1].BatchID)
	assert.Equal(t, int64(2), txs[1].Quantity)
	for _, tx := range txs {
		assert.Equal(t, res.Reference, tx.Reference)
		assert.Equal(t, "MEMO-7", tx.AuthorityRef)
		assert.Equal(t, db.engine.StoreBranch(), tx.FromBranch)
		assert.Equal(t, db.branch, tx.ToBranch)
	}

	require.Len(t, res.DerivedBatches, 2)
	for i, id := range res.DerivedBatches {
		d, err := db.store.GetBatch(db.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, db.branch, d.BranchID)
		assert.Equal(t, "Issued to Branch B", d.Source)
		assert.Equal(t, "149.99", d.Cost.Decimal.String())
		assert.Equal(t, "2023", d.AcquisitionYear.Text)
		assert.Equal(t, txs[i].BatchID, d.DerivedFrom)
	}

	avail, err := db.engine.Available(db.ctx, b2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), avail)
}

func TestStore_InsufficientStock_RollsBack(t *testing.T) {
	db := newTestDB(t)
	db.acquire(t, 2, "2023")

	_, err := db.engine.Issue(db.ctx, ledger.MovementInput{
		ItemID: db.item, To: db.branch, Year: ledger.NewYear("2023"), Quantity: 3,
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	txs, err := db.store.ListTransactions(db.ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)

	batches, err := db.store.ListBatches(db.ctx, ledger.BatchFilter{})
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestStore_FindCandidateBatches_UnspecifiedYearIsNull(t *testing.T) {
	db := newTestDB(t)
	db.acquire(t, 2, "2023")
	legacy, err := db.store.InsertBatch(db.ctx, ledger.Batch{
		ItemID: db.item, BranchID: db.engine.StoreBranch(), OriginalQuantity: 4,
		AcquisitionDate: ledger.NewDate(2019, time.January, 1), AcquisitionMethod: "Legacy import",
	})
	require.NoError(t, err)

	refs, err := db.store.FindCandidateBatches(db.ctx, db.item, db.engine.StoreBranch(), ledger.UnspecifiedYear)
	require.NoError(t, err)

	require.Len(t, refs, 1)
	assert.Equal(t, legacy, refs[0].ID)
	assert.Equal(t, int64(4), refs[0].OriginalQuantity)
}

func TestStore_DisposeAndSum(t *testing.T) {
	db := newTestDB(t)
	id := db.acquire(t, 6, "2022")

	_, err := db.engine.Dispose(db.ctx, ledger.DisposalInput{
		ItemID: db.item, Year: ledger.NewYear("2022"), Quantity: 6, Method: "Auction",
	})
	require.NoError(t, err)

	disposed, err := db.store.SumDisposals(db.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(6), disposed)

	bal, err := db.engine.Balance(db.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ledger.BatchExhausted, bal.State())

	ds, err := db.store.ListDisposals(db.ctx)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "Auction", ds[0].Method)
}

func TestStore_CountReferences_BranchOnEitherSide(t *testing.T) {
	db := newTestDB(t)
	db.acquire(t, 3, "2023")
	_, err := db.engine.Issue(db.ctx, ledger.MovementInput{
		ItemID: db.item, To: db.branch, Year: ledger.NewYear("2023"), Quantity: 1,
	})
	require.NoError(t, err)

	n, err := db.store.CountReferences(db.ctx, catalog.TransactionsOfBranch, int64(db.branch))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = db.store.CountReferences(db.ctx, catalog.BatchesOfItem, int64(db.item))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStore_DuplicateBranchName(t *testing.T) {
	db := newTestDB(t)

	_, err := db.store.InsertBranch(db.ctx, ledger.Branch{Name: "Branch B"})
	assert.ErrorIs(t, err, ledger.ErrDuplicate)
}

func TestStore_Reset_KeepsStoreBranch(t *testing.T) {
	db := newTestDB(t)
	db.acquire(t, 3, "2023")

	require.NoError(t, db.store.Reset(db.ctx))

	branches, err := db.store.ListBranches(db.ctx)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, db.engine.StoreBranch(), branches[0].ID)

	batches, err := db.store.ListBatches(db.ctx, ledger.BatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, batches)
}
