package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-ledger/catalog"
	"github.com/warp/asset-ledger/ledger"
	"github.com/warp/asset-ledger/store/sqlite"
)

type env struct {
	ctx    context.Context
	store  *sqlite.Store
	svc    *catalog.Service
	engine *ledger.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := ledger.NewEngine(ctx, store)
	require.NoError(t, err)

	return &env{ctx: ctx, store: store, svc: catalog.NewService(store, nil), engine: engine}
}

// seedItem creates a category, sub-category and item and returns them.
func (e *env) seedItem(t *testing.T, code string) (catalog.Category, catalog.SubCategory, ledger.Item) {
	t.Helper()
	cat, err := e.svc.CreateCategory(e.ctx, catalog.Category{Name: "Furniture " + code})
	require.NoError(t, err)
	sub, err := e.svc.CreateSubCategory(e.ctx, catalog.SubCategory{CategoryID: cat.ID, Name: "Chairs"})
	require.NoError(t, err)
	it, err := e.svc.CreateItem(e.ctx, ledger.Item{
		Name: "Chair " + code, CategoryID: cat.ID, SubCategoryID: sub.ID, GovtPropertyCode: code,
	})
	require.NoError(t, err)
	return cat, sub, it
}

// =============================================================================
// CATEGORIES
// =============================================================================

func TestCategory_NameRequiredAndUnique(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateCategory(e.ctx, catalog.Category{Name: "  "})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = e.svc.CreateCategory(e.ctx, catalog.Category{Name: "IT"})
	require.NoError(t, err)
	_, err = e.svc.CreateCategory(e.ctx, catalog.Category{Name: "IT"})
	assert.ErrorIs(t, err, ledger.ErrDuplicate)
}

func TestCategory_DeleteBlockedBySubCategories(t *testing.T) {
	// GIVEN: A category with a sub-category
	// WHEN: Deleting the category
	// THEN: ReferentialIntegrityError naming the sub-categories

	e := newEnv(t)
	cat, err := e.svc.CreateCategory(e.ctx, catalog.Category{Name: "IT"})
	require.NoError(t, err)
	_, err = e.svc.CreateSubCategory(e.ctx, catalog.SubCategory{CategoryID: cat.ID, Name: "Laptops"})
	require.NoError(t, err)

	err = e.svc.DeleteCategory(e.ctx, cat.ID)

	var ri *ledger.ReferentialIntegrityError
	require.True(t, errors.As(err, &ri))
	assert.Equal(t, "sub-categories", ri.ReferencedBy)
	assert.Equal(t, int64(1), ri.Count)
}

func TestCategory_DeleteUnreferenced(t *testing.T) {
	e := newEnv(t)
	cat, err := e.svc.CreateCategory(e.ctx, catalog.Category{Name: "IT"})
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteCategory(e.ctx, cat.ID))

	_, err = e.svc.GetCategory(e.ctx, cat.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// SUB-CATEGORIES
// =============================================================================

func TestSubCategory_RequiresExistingCategory(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateSubCategory(e.ctx, catalog.SubCategory{CategoryID: 42, Name: "Orphans"})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSubCategory_DeleteBlockedByItems(t *testing.T) {
	e := newEnv(t)
	_, sub, _ := e.seedItem(t, "GP-1")

	err := e.svc.DeleteSubCategory(e.ctx, sub.ID)
	assert.ErrorIs(t, err, ledger.ErrReferentialIntegrity)
}

func TestSubCategory_ListByCategory(t *testing.T) {
	e := newEnv(t)
	a, err := e.svc.CreateCategory(e.ctx, catalog.Category{Name: "A"})
	require.NoError(t, err)
	b, err := e.svc.CreateCategory(e.ctx, catalog.Category{Name: "B"})
	require.NoError(t, err)
	_, err = e.svc.CreateSubCategory(e.ctx, catalog.SubCategory{CategoryID: a.ID, Name: "A1"})
	require.NoError(t, err)
	_, err = e.svc.CreateSubCategory(e.ctx, catalog.SubCategory{CategoryID: b.ID, Name: "B1"})
	require.NoError(t, err)

	subs, err := e.svc.ListSubCategories(e.ctx, &a.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "A1", subs[0].Name)

	all, err := e.svc.ListSubCategories(e.ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// ITEMS
// =============================================================================

func TestItem_FirstMayOmitGovtCode(t *testing.T) {
	// GIVEN: No items yet
	// WHEN: Creating one without a code, then a second without a code
	// THEN: The first succeeds, the second is rejected

	e := newEnv(t)
	cat, err := e.svc.CreateCategory(e.ctx, catalog.Category{Name: "IT"})
	require.NoError(t, err)
	sub, err := e.svc.CreateSubCategory(e.ctx, catalog.SubCategory{CategoryID: cat.ID, Name: "Laptops"})
	require.NoError(t, err)

	_, err = e.svc.CreateItem(e.ctx, ledger.Item{Name: "Laptop", CategoryID: cat.ID, SubCategoryID: sub.ID})
	require.NoError(t, err)

	_, err = e.svc.CreateItem(e.ctx, ledger.Item{Name: "Dock", CategoryID: cat.ID, SubCategoryID: sub.ID})
	var ve *ledger.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "govt_property_code", ve.Field)
}

func TestItem_GovtCodeUnique(t *testing.T) {
	e := newEnv(t)
	cat, sub, _ := e.seedItem(t, "GP-1")

	_, err := e.svc.CreateItem(e.ctx, ledger.Item{
		Name: "Another", CategoryID: cat.ID, SubCategoryID: sub.ID, GovtPropertyCode: "GP-1",
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicate)
}

func TestItem_SubCategoryMustBelongToCategory(t *testing.T) {
	e := newEnv(t)
	_, sub, _ := e.seedItem(t, "GP-1")
	other, err := e.svc.CreateCategory(e.ctx, catalog.Category{Name: "Vehicles"})
	require.NoError(t, err)

	_, err = e.svc.CreateItem(e.ctx, ledger.Item{
		Name: "Van", CategoryID: other.ID, SubCategoryID: sub.ID, GovtPropertyCode: "GP-2",
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestItem_DeleteBlockedByBatches(t *testing.T) {
	e := newEnv(t)
	_, _, it := e.seedItem(t, "GP-1")
	_, err := e.engine.Acquire(e.ctx, ledger.AcquisitionInput{
		ItemID: it.ID, Method: "Purchase", Quantity: 1, Year: ledger.NewYear("2024"),
		Date: ledger.NewDate(2024, time.February, 1),
	})
	require.NoError(t, err)

	err = e.svc.DeleteItem(e.ctx, it.ID)

	var ri *ledger.ReferentialIntegrityError
	require.True(t, errors.As(err, &ri))
	assert.Equal(t, "batches", ri.ReferencedBy)
}

func TestItem_DeleteUnreferenced(t *testing.T) {
	e := newEnv(t)
	_, _, it := e.seedItem(t, "GP-1")

	require.NoError(t, e.svc.DeleteItem(e.ctx, it.ID))

	_, err := e.svc.GetItem(e.ctx, it.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// BRANCHES
// =============================================================================

func TestBranch_StoreIsProtected(t *testing.T) {
	e := newEnv(t)
	storeID := e.engine.StoreBranch()

	err := e.svc.DeleteBranch(e.ctx, storeID)
	assert.ErrorIs(t, err, ledger.ErrStoreBranchProtected)

	_, err = e.svc.UpdateBranch(e.ctx, ledger.Branch{ID: storeID, Name: "Warehouse"})
	assert.ErrorIs(t, err, ledger.ErrStoreBranchProtected)

	// Address and remarks may still change.
	_, err = e.svc.UpdateBranch(e.ctx, ledger.Branch{ID: storeID, Name: ledger.StoreBranchName, Address: "Block C"})
	assert.NoError(t, err)
}

func TestBranch_DeleteBlockedByTransactions(t *testing.T) {
	// GIVEN: A branch that received an issue
	// WHEN: Deleting it
	// THEN: Blocked (its derived batch is the first reference found)

	e := newEnv(t)
	_, _, it := e.seedItem(t, "GP-1")
	br, err := e.svc.CreateBranch(e.ctx, ledger.Branch{Name: "North"})
	require.NoError(t, err)
	_, err = e.engine.Acquire(e.ctx, ledger.AcquisitionInput{
		ItemID: it.ID, Method: "Purchase", Quantity: 2, Year: ledger.NewYear("2024"),
	})
	require.NoError(t, err)
	_, err = e.engine.Issue(e.ctx, ledger.MovementInput{
		ItemID: it.ID, To: br.ID, Year: ledger.NewYear("2024"), Quantity: 1,
	})
	require.NoError(t, err)

	err = e.svc.DeleteBranch(e.ctx, br.ID)
	assert.ErrorIs(t, err, ledger.ErrReferentialIntegrity)
}

func TestBranch_DeleteUnused(t *testing.T) {
	e := newEnv(t)
	br, err := e.svc.CreateBranch(e.ctx, ledger.Branch{Name: "South"})
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteBranch(e.ctx, br.ID))

	_, err = e.svc.GetBranch(e.ctx, br.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestBranch_DuplicateName(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateBranch(e.ctx, ledger.Branch{Name: ledger.StoreBranchName})
	assert.ErrorIs(t, err, ledger.ErrDuplicate)
}
