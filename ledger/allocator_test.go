package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-ledger/ledger"
)

func TestAllocate_SingleBatchCoversRequest(t *testing.T) {
	f := newFixture(t)
	b1 := f.acquire(t, 10, "2022")

	alloc, err := f.eng.Allocate(f.ctx, ledger.AllocationRequest{
		ItemID: f.item, BranchID: f.eng.StoreBranch(), Year: ledger.NewYear("2022"), Quantity: 4,
	})
	require.NoError(t, err)

	require.Len(t, alloc.Lines, 1)
	assert.Equal(t, b1, alloc.Lines[0].BatchID)
	assert.Equal(t, int64(4), alloc.Total())
	assert.Equal(t, int64(10), alloc.TotalAvailable)
}

func TestAllocate_SkipsExhaustedAndOtherYears(t *testing.T) {
	// GIVEN: B1 2022 exhausted, B2 2021, B3 2022 with 5
	// WHEN: Allocating 2 of year 2022
	// THEN: Only B3 is used

	f := newFixture(t)
	f.acquire(t, 2, "2022")
	f.issue(t, 2, "2022")
	f.acquire(t, 5, "2021")
	b3 := f.acquire(t, 5, "2022")

	alloc, err := f.eng.Allocate(f.ctx, ledger.AllocationRequest{
		ItemID: f.item, BranchID: f.eng.StoreBranch(), Year: ledger.NewYear("2022"), Quantity: 2,
	})
	require.NoError(t, err)

	require.Len(t, alloc.Lines, 1)
	assert.Equal(t, b3, alloc.Lines[0].BatchID)
	assert.Equal(t, int64(5), alloc.TotalAvailable)
}

func TestAllocate_ExactTotalUsesEveryBatch(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 1, "2022")
	f.acquire(t, 2, "2022")
	f.acquire(t, 3, "2022")

	alloc, err := f.eng.Allocate(f.ctx, ledger.AllocationRequest{
		ItemID: f.item, BranchID: f.eng.StoreBranch(), Year: ledger.NewYear("2022"), Quantity: 6,
	})
	require.NoError(t, err)

	require.Len(t, alloc.Lines, 3)
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, want, alloc.Lines[i].Quantity)
	}
}

func TestAllocate_DoesNotWrite(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 3, "2022")
	beforeB, beforeT, beforeD := f.counts(t)

	_, err := f.eng.Allocate(f.ctx, ledger.AllocationRequest{
		ItemID: f.item, BranchID: f.eng.StoreBranch(), Year: ledger.NewYear("2022"), Quantity: 2,
	})
	require.NoError(t, err)

	afterB, afterT, afterD := f.counts(t)
	assert.Equal(t, []int{beforeB, beforeT, beforeD}, []int{afterB, afterT, afterD})
}

func TestAllocate_InsufficientAndInvalid(t *testing.T) {
	f := newFixture(t)
	f.acquire(t, 3, "2022")
	req := ledger.AllocationRequest{ItemID: f.item, BranchID: f.eng.StoreBranch(), Year: ledger.NewYear("2022")}

	req.Quantity = 4
	_, err := f.eng.Allocate(f.ctx, req)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	req.Quantity = 0
	_, err = f.eng.Allocate(f.ctx, req)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	req.Quantity = -1
	_, err = f.eng.Allocate(f.ctx, req)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
}
