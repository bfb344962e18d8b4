package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/asset-ledger/ledger"
)

// Service applies the catalog rules on top of a Store.
type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ledger.ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// checkUnused fails with a ReferentialIntegrityError on the first reference
// that still has rows.
func (s *Service) checkUnused(ctx context.Context, entity string, id int64, refs ...Reference) error {
	for _, ref := range refs {
		n, err := s.store.CountReferences(ctx, ref, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ledger.ReferentialIntegrityError{Entity: entity, ID: id, ReferencedBy: ref.Label, Count: n}
		}
	}
	return nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Service) CreateCategory(ctx context.Context, c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := required("category_name", c.Name); err != nil {
		return Category{}, err
	}
	id, err := s.store.InsertCategory(ctx, c)
	if err != nil {
		return Category{}, err
	}
	c.ID = id
	s.log.Info("category created", zap.Int64("category_id", id), zap.String("name", c.Name))
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := required("category_name", c.Name); err != nil {
		return Category{}, err
	}
	if _, err := s.store.GetCategory(ctx, c.ID); err != nil {
		return Category{}, err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return err
	}
	if err := s.checkUnused(ctx, "category", id, SubCategoriesOfCategory, ItemsOfCategory); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.log.Info("category deleted", zap.Int64("category_id", id))
	return nil
}

// =============================================================================
// SUB-CATEGORIES
// =============================================================================

func (s *Service) CreateSubCategory(ctx context.Context, sc SubCategory) (SubCategory, error) {
	sc.Name = strings.TrimSpace(sc.Name)
	if err := required("subcategory_name", sc.Name); err != nil {
		return SubCategory{}, err
	}
	if _, err := s.store.GetCategory(ctx, sc.CategoryID); err != nil {
		return SubCategory{}, err
	}
	id, err := s.store.InsertSubCategory(ctx, sc)
	if err != nil {
		return SubCategory{}, err
	}
	sc.ID = id
	s.log.Info("sub-category created", zap.Int64("subcategory_id", id), zap.Int64("category_id", sc.CategoryID))
	return sc, nil
}

func (s *Service) UpdateSubCategory(ctx context.Context, sc SubCategory) (SubCategory, error) {
	sc.Name = strings.TrimSpace(sc.Name)
	if err := required("subcategory_name", sc.Name); err != nil {
		return SubCategory{}, err
	}
	current, err := s.store.GetSubCategory(ctx, sc.ID)
	if err != nil {
		return SubCategory{}, err
	}
	if _, err := s.store.GetCategory(ctx, sc.CategoryID); err != nil {
		return SubCategory{}, err
	}
	// Moving to another category would orphan the category of its items.
	if current.CategoryID != sc.CategoryID {
		if err := s.checkUnused(ctx, "sub-category", sc.ID, ItemsOfSubCategory); err != nil {
			return SubCategory{}, err
		}
	}
	if err := s.store.UpdateSubCategory(ctx, sc); err != nil {
		return SubCategory{}, err
	}
	return sc, nil
}

func (s *Service) GetSubCategory(ctx context.Context, id int64) (SubCategory, error) {
	return s.store.GetSubCategory(ctx, id)
}

func (s *Service) ListSubCategories(ctx context.Context, categoryID *int64) ([]SubCategory, error) {
	return s.store.ListSubCategories(ctx, categoryID)
}

func (s *Service) DeleteSubCategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetSubCategory(ctx, id); err != nil {
		return err
	}
	if err := s.checkUnused(ctx, "sub-category", id, ItemsOfSubCategory); err != nil {
		return err
	}
	if err := s.store.DeleteSubCategory(ctx, id); err != nil {
		return err
	}
	s.log.Info("sub-category deleted", zap.Int64("subcategory_id", id))
	return nil
}

// =============================================================================
// BRANCHES
// =============================================================================

func (s *Service) CreateBranch(ctx context.Context, b ledger.Branch) (ledger.Branch, error) {
	b.Name = strings.TrimSpace(b.Name)
	if err := required("branch_name", b.Name); err != nil {
		return ledger.Branch{}, err
	}
	id, err := s.store.InsertBranch(ctx, b)
	if err != nil {
		return ledger.Branch{}, err
	}
	b.ID = id
	s.log.Info("branch created", zap.Int64("branch_id", int64(id)), zap.String("name", b.Name))
	return b, nil
}

func (s *Service) UpdateBranch(ctx context.Context, b ledger.Branch) (ledger.Branch, error) {
	b.Name = strings.TrimSpace(b.Name)
	if err := required("branch_name", b.Name); err != nil {
		return ledger.Branch{}, err
	}
	current, err := s.store.GetBranch(ctx, b.ID)
	if err != nil {
		return ledger.Branch{}, err
	}
	if current.IsStore() && b.Name != ledger.StoreBranchName {
		return ledger.Branch{}, ledger.ErrStoreBranchProtected
	}
	if err := s.store.UpdateBranch(ctx, b); err != nil {
		return ledger.Branch{}, err
	}
	return b, nil
}

func (s *Service) GetBranch(ctx context.Context, id ledger.BranchID) (ledger.Branch, error) {
	return s.store.GetBranch(ctx, id)
}

func (s *Service) ListBranches(ctx context.Context) ([]ledger.Branch, error) {
	return s.store.ListBranches(ctx)
}

func (s *Service) DeleteBranch(ctx context.Context, id ledger.BranchID) error {
	b, err := s.store.GetBranch(ctx, id)
	if err != nil {
		return err
	}
	if b.IsStore() {
		return ledger.ErrStoreBranchProtected
	}
	if err := s.checkUnused(ctx, "branch", int64(id), BatchesOfBranch, TransactionsOfBranch); err != nil {
		return err
	}
	if err := s.store.DeleteBranch(ctx, id); err != nil {
		return err
	}
	s.log.Info("branch deleted", zap.Int64("branch_id", int64(id)))
	return nil
}

// =============================================================================
// ITEMS
// =============================================================================

func (s *Service) validateItem(ctx context.Context, it ledger.Item, isFirst bool) error {
	if err := required("item_name", it.Name); err != nil {
		return err
	}
	if !isFirst {
		if err := required("govt_property_code", it.GovtPropertyCode); err != nil {
			return err
		}
	}
	if _, err := s.store.GetCategory(ctx, it.CategoryID); err != nil {
		return err
	}
	sc, err := s.store.GetSubCategory(ctx, it.SubCategoryID)
	if err != nil {
		return err
	}
	if sc.CategoryID != it.CategoryID {
		return &ledger.ValidationError{Field: "subcategory_id", Message: "does not belong to the selected category"}
	}
	return nil
}

func (s *Service) CreateItem(ctx context.Context, it ledger.Item) (ledger.Item, error) {
	it.Name = strings.TrimSpace(it.Name)
	it.GovtPropertyCode = strings.TrimSpace(it.GovtPropertyCode)

	n, err := s.store.CountItems(ctx)
	if err != nil {
		return ledger.Item{}, err
	}
	if err := s.validateItem(ctx, it, n == 0); err != nil {
		return ledger.Item{}, err
	}

	id, err := s.store.InsertItem(ctx, it)
	if err != nil {
		return ledger.Item{}, err
	}
	it.ID = id
	s.log.Info("item created", zap.Int64("item_id", int64(id)), zap.String("name", it.Name))
	return it, nil
}

func (s *Service) UpdateItem(ctx context.Context, it ledger.Item) (ledger.Item, error) {
	it.Name = strings.TrimSpace(it.Name)
	it.GovtPropertyCode = strings.TrimSpace(it.GovtPropertyCode)

	current, err := s.store.GetItem(ctx, it.ID)
	if err != nil {
		return ledger.Item{}, err
	}
	// An item that was created without a code may keep it empty.
	if err := s.validateItem(ctx, it, current.GovtPropertyCode == ""); err != nil {
		return ledger.Item{}, err
	}
	if err := s.store.UpdateItem(ctx, it); err != nil {
		return ledger.Item{}, err
	}
	return it, nil
}

func (s *Service) GetItem(ctx context.Context, id ledger.ItemID) (ledger.Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context) ([]ledger.Item, error) {
	return s.store.ListItems(ctx)
}

func (s *Service) DeleteItem(ctx context.Context, id ledger.ItemID) error {
	if _, err := s.store.GetItem(ctx, id); err != nil {
		return err
	}
	if err := s.checkUnused(ctx, "item", int64(id), BatchesOfItem); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.log.Info("item deleted", zap.Int64("item_id", int64(id)))
	return nil
}
