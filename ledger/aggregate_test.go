package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-ledger/ledger"
)

func TestStockByItemBranchYear_AgreesWithBatchBalances(t *testing.T) {
	// GIVEN: Lots in 2021 and 2022, part of 2022 issued, part disposed
	// WHEN: Rolling up stock
	// THEN: Each row equals Σ Available over the batches it groups

	f := newFixture(t)
	f.acquire(t, 4, "2021")
	f.acquire(t, 6, "2022")
	f.issue(t, 5, "2022")
	_, err := f.eng.Dispose(f.ctx, ledger.DisposalInput{ItemID: f.item, Year: ledger.NewYear("2021"), Quantity: 1})
	require.NoError(t, err)

	agg := &ledger.Aggregator{Store: f.mem}
	rows, err := agg.StockByItemBranchYear(f.ctx, ledger.StockFilter{})
	require.NoError(t, err)

	batches, err := f.mem.ListBatches(f.ctx, ledger.BatchFilter{})
	require.NoError(t, err)

	for _, row := range rows {
		var want int64
		for _, b := range batches {
			if b.ItemID == row.ItemID && b.BranchID == row.BranchID && row.Year.Matches(b.AcquisitionYear) {
				want += f.available(t, b.ID)
			}
		}
		assert.Equal(t, want, row.Available, "row %s/%s/%s", row.ItemName, row.BranchName, row.Year)
	}

	// Branch B 2022: 5, Store 2021: 3, Store 2022: 1
	require.Len(t, rows, 3)
	assert.Equal(t, "Branch B", rows[0].BranchName)
	assert.Equal(t, int64(5), rows[0].Available)
	assert.Equal(t, "Store", rows[1].BranchName)
	assert.Equal(t, "2021", rows[1].Year.Text)
	assert.Equal(t, int64(3), rows[1].Available)
	assert.Equal(t, "2022", rows[2].Year.Text)
	assert.Equal(t, int64(1), rows[2].Available)
}

func TestStockByItemBranchYear_OmitsEmptyGroups(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 2, "2022")
	f.issue(t, 2, "2022")

	agg := &ledger.Aggregator{Store: f.mem}
	storeID := f.eng.StoreBranch()
	rows, err := agg.StockByItemBranchYear(f.ctx, ledger.StockFilter{BranchID: &storeID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestYearOptions_UnspecifiedYearLast(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 2, "2023")
	f.acquire(t, 3, "2021")
	_, err := f.mem.InsertBatch(f.ctx, ledger.Batch{
		ItemID: f.item, BranchID: f.eng.StoreBranch(), OriginalQuantity: 4,
		AcquisitionMethod: "Legacy import",
	})
	require.NoError(t, err)

	agg := &ledger.Aggregator{Store: f.mem}
	opts, err := agg.YearOptions(f.ctx, f.item, f.eng.StoreBranch())
	require.NoError(t, err)

	require.Len(t, opts, 3)
	assert.Equal(t, "2021 (Available: 3)", opts[0].Label())
	assert.Equal(t, "2023 (Available: 2)", opts[1].Label())
	assert.Equal(t, "Unknown (Available: 4)", opts[2].Label())
}

func TestBranchBalances(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 10, "2022")
	f.issue(t, 3, "2022")

	agg := &ledger.Aggregator{Store: f.mem}
	rows, err := agg.BranchBalances(f.ctx)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, ledger.BranchBalance{BranchID: f.branchB, BranchName: "Branch B", ItemID: f.item, ItemName: "Office Chair", Available: 3}, rows[0])
	assert.Equal(t, int64(7), rows[1].Available)
}

func TestTransactionHistory_MostRecentFirst(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 10, "2022")

	for _, day := range []int{3, 1, 2} {
		_, err := f.eng.Issue(f.ctx, ledger.MovementInput{
			ItemID: f.item, To: f.branchB, Year: ledger.NewYear("2022"), Quantity: 1,
			Date: ledger.NewDate(2024, time.March, day),
		})
		require.NoError(t, err)
	}

	agg := &ledger.Aggregator{Store: f.mem}
	hist, err := agg.TransactionHistory(f.ctx)
	require.NoError(t, err)

	require.Len(t, hist, 3)
	assert.Equal(t, "2024-03-03", hist[0].Date.String())
	assert.Equal(t, "2024-03-02", hist[1].Date.String())
	assert.Equal(t, "2024-03-01", hist[2].Date.String())
	assert.Equal(t, "Store", hist[0].FromBranchName)
	assert.Equal(t, "Branch B", hist[0].ToBranchName)
}

func TestDisposalHistory_SameDateOrderedByIDDesc(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 10, "2022")

	for i := 0; i < 2; i++ {
		_, err := f.eng.Dispose(f.ctx, ledger.DisposalInput{ItemID: f.item, Year: ledger.NewYear("2022"), Quantity: 1})
		require.NoError(t, err)
	}

	agg := &ledger.Aggregator{Store: f.mem}
	hist, err := agg.DisposalHistory(f.ctx)
	require.NoError(t, err)

	require.Len(t, hist, 2)
	assert.Greater(t, hist[0].ID, hist[1].ID)
	assert.Equal(t, "Office Chair", hist[0].ItemName)
}

func TestAcquisitionHistory_ExcludesDerivedBatches(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 10, "2022")
	f.issue(t, 3, "2022")

	agg := &ledger.Aggregator{Store: f.mem}
	hist, err := agg.AcquisitionHistory(f.ctx)
	require.NoError(t, err)

	require.Len(t, hist, 1)
	assert.Equal(t, "Purchase", hist[0].AcquisitionMethod)
}

func TestStockRegister_OriginalLotsOnly(t *testing.T) {
	// GIVEN: 10 acquired, 4 issued, 2 disposed from the original lot
	// THEN: acquired 10, disposed 2, remaining 8 (issued units are still held)

	f := newFixture(t)
	f.acquire(t, 10, "2022")
	f.issue(t, 4, "2022")
	_, err := f.eng.Dispose(f.ctx, ledger.DisposalInput{ItemID: f.item, Year: ledger.NewYear("2022"), Quantity: 2})
	require.NoError(t, err)

	agg := &ledger.Aggregator{Store: f.mem}
	rows, err := agg.StockRegister(f.ctx)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, ledger.RegisterRow{ItemID: f.item, ItemName: "Office Chair", Acquired: 10, Disposed: 2, Remaining: 8}, rows[0])
}
