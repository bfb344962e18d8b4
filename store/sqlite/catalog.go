package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/warp/asset-ledger/catalog"
	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// CATALOG STORE (catalog.Store interface)
// =============================================================================

var (
	categoryColumns    = []string{"category_id", "category_name", "COALESCE(remarks, '') AS remarks"}
	subCategoryColumns = []string{"subcategory_id", "category_id", "subcategory_name", "COALESCE(remarks, '') AS remarks"}
)

var _ catalog.Store = (*Store)(nil)

// affected turns a zero-row UPDATE/DELETE into a NotFoundError.
func affected(n int64, err error, entity string, id any) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

// Categories

func (s *Store) InsertCategory(ctx context.Context, c catalog.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insert(ctx, s.db, builder.Insert("categories").
		Columns("category_name", "remarks").
		Values(c.Name, c.Remarks))
}

func (s *Store) UpdateCategory(ctx context.Context, c catalog.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := exec(ctx, s.db, builder.Update("categories").
		Set("category_name", c.Name).
		Set("remarks", c.Remarks).
		Where(sq.Eq{"category_id": c.ID}))
	return affected(n, err, "category", c.ID)
}

func (s *Store) GetCategory(ctx context.Context, id int64) (catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c catalog.Category
	err := get(ctx, s.db, &c, builder.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"category_id": id}))
	if err != nil {
		return catalog.Category{}, notFound(err, "category", id)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cs []catalog.Category
	err := selectAll(ctx, s.db, &cs, builder.Select(categoryColumns...).
		From("categories").
		OrderBy("category_name"))
	return cs, err
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := exec(ctx, s.db, builder.Delete("categories").Where(sq.Eq{"category_id": id}))
	return affected(n, err, "category", id)
}

// Sub-categories

func (s *Store) InsertSubCategory(ctx context.Context, sc catalog.SubCategory) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insert(ctx, s.db, builder.Insert("sub_categories").
		Columns("category_id", "subcategory_name", "remarks").
		Values(sc.CategoryID, sc.Name, sc.Remarks))
}

func (s *Store) UpdateSubCategory(ctx context.Context, sc catalog.SubCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := exec(ctx, s.db, builder.Update("sub_categories").
		Set("category_id", sc.CategoryID).
		Set("subcategory_name", sc.Name).
		Set("remarks", sc.Remarks).
		Where(sq.Eq{"subcategory_id": sc.ID}))
	return affected(n, err, "sub-category", sc.ID)
}

func (s *Store) GetSubCategory(ctx context.Context, id int64) (catalog.SubCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sc catalog.SubCategory
	err := get(ctx, s.db, &sc, builder.Select(subCategoryColumns...).
		From("sub_categories").
		Where(sq.Eq{"subcategory_id": id}))
	if err != nil {
		return catalog.SubCategory{}, notFound(err, "sub-category", id)
	}
	return sc, nil
}

func (s *Store) ListSubCategories(ctx context.Context, categoryID *int64) ([]catalog.SubCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := builder.Select(subCategoryColumns...).From("sub_categories").OrderBy("subcategory_name")
	if categoryID != nil {
		q = q.Where(sq.Eq{"category_id": *categoryID})
	}
	var scs []catalog.SubCategory
	err := selectAll(ctx, s.db, &scs, q)
	return scs, err
}

func (s *Store) DeleteSubCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := exec(ctx, s.db, builder.Delete("sub_categories").Where(sq.Eq{"subcategory_id": id}))
	return affected(n, err, "sub-category", id)
}

// Branches (InsertBranch, GetBranch and FindBranchByName live in ledger.go)

func (s *Store) UpdateBranch(ctx context.Context, b ledger.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := exec(ctx, s.db, builder.Update("branches").
		Set("branch_name", b.Name).
		Set("address", b.Address).
		Set("remarks", b.Remarks).
		Where(sq.Eq{"branch_id": int64(b.ID)}))
	return affected(n, err, "branch", b.ID)
}

func (s *Store) ListBranches(ctx context.Context) ([]ledger.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bs []ledger.Branch
	err := selectAll(ctx, s.db, &bs, builder.Select(branchColumns...).
		From("branches").
		OrderBy("branch_name"))
	return bs, err
}

func (s *Store) DeleteBranch(ctx context.Context, id ledger.BranchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := exec(ctx, s.db, builder.Delete("branches").Where(sq.Eq{"branch_id": int64(id)}))
	return affected(n, err, "branch", id)
}

// Items (GetItem lives in ledger.go)

func (s *Store) InsertItem(ctx context.Context, it ledger.Item) (ledger.ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := insert(ctx, s.db, builder.Insert("items").
		Columns("item_name", "category_id", "subcategory_id", "specification", "govt_property_code", "remarks").
		Values(it.Name, it.CategoryID, it.SubCategoryID, it.Specification, nullString(it.GovtPropertyCode), it.Remarks))
	if err != nil {
		return 0, err
	}
	return ledger.ItemID(id), nil
}

func (s *Store) UpdateItem(ctx context.Context, it ledger.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := exec(ctx, s.db, builder.Update("items").
		Set("item_name", it.Name).
		Set("category_id", it.CategoryID).
		Set("subcategory_id", it.SubCategoryID).
		Set("specification", it.Specification).
		Set("govt_property_code", nullString(it.GovtPropertyCode)).
		Set("remarks", it.Remarks).
		Where(sq.Eq{"item_id": int64(it.ID)}))
	return affected(n, err, "item", it.ID)
}

func (s *Store) ListItems(ctx context.Context) ([]ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []ledger.Item
	err := selectAll(ctx, s.db, &items, builder.Select(itemColumns...).
		From("items").
		OrderBy("item_name"))
	return items, err
}

func (s *Store) CountItems(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := get(ctx, s.db, &n, builder.Select("COUNT(*)").From("items"))
	return n, err
}

func (s *Store) DeleteItem(ctx context.Context, id ledger.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := exec(ctx, s.db, builder.Delete("items").Where(sq.Eq{"item_id": int64(id)}))
	return affected(n, err, "item", id)
}

// CountReferences counts rows of ref.Table pointing at id through any of
// ref.Columns.
func (s *Store) CountReferences(ctx context.Context, ref catalog.Reference, id int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cond sq.Or
	for _, col := range ref.Columns {
		cond = append(cond, sq.Eq{col: id})
	}

	var n int64
	if err := get(ctx, s.db, &n, builder.Select("COUNT(*)").From(ref.Table).Where(cond)); err != nil {
		return 0, fmt.Errorf("count %s referencing %d: %w", ref.Table, id, err)
	}
	return n, nil
}
