/*
Package catalog manages the master data the ledger refers to: categories,
sub-categories, branches and items.

PURPOSE:
  The ledger never creates or removes reference rows; it only looks them up.
  This package owns their lifecycle and the rules that keep the ledger's
  references valid.

RULES:
  - Category and branch names are unique
  - A government property code is unique; only the very first item may
    omit it
  - An item's sub-category must belong to the item's category
  - The Store branch can be neither renamed nor deleted
  - A row cannot be deleted while anything references it:

      category     <- sub-categories, items
      sub-category <- items
      branch       <- batches, transaction events (either side)
      item         <- batches

SEE ALSO:
  - ledger/errors.go: ReferentialIntegrityError and friends
  - store/sqlite/catalog.go: The SQLite implementation of Store
*/
package catalog

import (
	"context"

	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// MODEL
// =============================================================================

type Category struct {
	ID      int64  `db:"category_id" json:"id"`
	Name    string `db:"category_name" json:"name"`
	Remarks string `db:"remarks" json:"remarks"`
}

type SubCategory struct {
	ID         int64  `db:"subcategory_id" json:"id"`
	CategoryID int64  `db:"category_id" json:"category_id"`
	Name       string `db:"subcategory_name" json:"name"`
	Remarks    string `db:"remarks" json:"remarks"`
}

// Reference describes rows that point at a catalog entry. A row matches when
// any of Columns equals the entry's id.
type Reference struct {
	Table   string
	Columns []string
	Label   string // used in ReferentialIntegrityError.ReferencedBy
}

var (
	SubCategoriesOfCategory = Reference{Table: "sub_categories", Columns: []string{"category_id"}, Label: "sub-categories"}
	ItemsOfCategory         = Reference{Table: "items", Columns: []string{"category_id"}, Label: "items"}
	ItemsOfSubCategory      = Reference{Table: "items", Columns: []string{"subcategory_id"}, Label: "items"}
	BatchesOfBranch         = Reference{Table: "asset_batches", Columns: []string{"branch_id"}, Label: "batches"}
	TransactionsOfBranch    = Reference{Table: "asset_transactions", Columns: []string{"from_branch_id", "to_branch_id"}, Label: "transactions"}
	BatchesOfItem           = Reference{Table: "asset_batches", Columns: []string{"item_id"}, Label: "batches"}
)

// =============================================================================
// STORE
// =============================================================================

// Store persists master data. Get* return a *ledger.NotFoundError for missing
// rows; unique violations surface as ledger.ErrDuplicate.
type Store interface {
	InsertCategory(ctx context.Context, c Category) (int64, error)
	UpdateCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	InsertSubCategory(ctx context.Context, sc SubCategory) (int64, error)
	UpdateSubCategory(ctx context.Context, sc SubCategory) error
	GetSubCategory(ctx context.Context, id int64) (SubCategory, error)
	// ListSubCategories returns all sub-categories, or only those of
	// categoryID when it is non-nil.
	ListSubCategories(ctx context.Context, categoryID *int64) ([]SubCategory, error)
	DeleteSubCategory(ctx context.Context, id int64) error

	InsertBranch(ctx context.Context, b ledger.Branch) (ledger.BranchID, error)
	UpdateBranch(ctx context.Context, b ledger.Branch) error
	GetBranch(ctx context.Context, id ledger.BranchID) (ledger.Branch, error)
	FindBranchByName(ctx context.Context, name string) (ledger.Branch, error)
	ListBranches(ctx context.Context) ([]ledger.Branch, error)
	DeleteBranch(ctx context.Context, id ledger.BranchID) error

	InsertItem(ctx context.Context, it ledger.Item) (ledger.ItemID, error)
	UpdateItem(ctx context.Context, it ledger.Item) error
	GetItem(ctx context.Context, id ledger.ItemID) (ledger.Item, error)
	ListItems(ctx context.Context) ([]ledger.Item, error)
	CountItems(ctx context.Context) (int64, error)
	DeleteItem(ctx context.Context, id ledger.ItemID) error

	// CountReferences counts rows of ref.Table where any of ref.Columns = id.
	CountReferences(ctx context.Context, ref Reference, id int64) (int64, error)
}
