/*
handlers.go - HTTP API handlers for the asset ledger

PURPOSE:
  Exposes the catalog, the ledger engine and the reports via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  domain packages.

ENDPOINTS:
  Catalog:
    GET/POST          /api/{categories,subcategories,branches,items}
    GET/PUT/DELETE    /api/{categories,subcategories,branches,items}/{id}

  Ledger:
    POST   /api/acquisitions     New lot at the Store
    POST   /api/allocations      FIFO plan, nothing is posted
    POST   /api/movements        Issue or Return
    POST   /api/disposals        Dispose from the Store
    GET    /api/batches          Batches (item_id, branch_id, year filters)
    GET    /api/batches/{id}     Batch with balance

  Reports:
    GET    /api/reports/stock         Item x branch x year balances
    GET    /api/reports/years         Year picker for item_id + branch_id
    GET    /api/reports/branches      Item balances per branch
    GET    /api/reports/register      Stock register of original lots
    GET    /api/reports/acquisitions  Acquisition history
    GET    /api/reports/transactions  Movement history
    GET    /api/reports/disposals     Disposal history

REQUEST FLOW:
  1. Decode JSON body / path and query parameters
  2. Validate (validator/v10 tags on request DTOs)
  3. Call catalog.Service, ledger.Engine or ledger.Aggregator
  4. Serialize response
  5. Map domain errors with writeDomainError

ERROR HANDLING:
  - 400: validation errors, invalid quantity, invalid movement
  - 404: row not found
  - 409: insufficient stock, referential integrity, duplicate, Store protected
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/asset-ledger/catalog"
	"github.com/warp/asset-ledger/ledger"
	"github.com/warp/asset-ledger/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Engine  *ledger.Engine
	Catalog *catalog.Service
	Reports *ledger.Aggregator

	log      *zap.Logger
	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the catalog service and the aggregator over store.
func NewHandler(store *sqlite.Store, engine *ledger.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Engine:   engine,
		Catalog:  catalog.NewService(store, log.Named("catalog")),
		Reports:  &ledger.Aggregator{Store: store},
		log:      log,
		validate: newValidator(),
	}
}

// newValidator reports fields by their json name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads and validates a JSON body. On failure the response is written
// and false is returned.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Details: fe.Field() + " failed on " + fe.Tag(),
				Field:   fe.Field(),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, key string) (*int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+key, err)
		return nil, false
	}
	return &id, true
}

// queryYear returns nil when "year" is absent and the unspecified year when it
// is present but empty.
func queryYear(r *http.Request) *ledger.Year {
	q := r.URL.Query()
	if !q.Has("year") {
		return nil
	}
	y := ledger.NewYear(q.Get("year"))
	return &y
}

// stockFilter reads item_id, branch_id and year from the query.
func stockFilter(w http.ResponseWriter, r *http.Request) (ledger.StockFilter, bool) {
	var f ledger.StockFilter
	item, ok := queryID(w, r, "item_id")
	if !ok {
		return f, false
	}
	branch, ok := queryID(w, r, "branch_id")
	if !ok {
		return f, false
	}
	if item != nil {
		id := ledger.ItemID(*item)
		f.ItemID = &id
	}
	if branch != nil {
		id := ledger.BranchID(*branch)
		f.BranchID = &id
	}
	f.Year = queryYear(r)
	return f, true
}

// =============================================================================
// CATEGORY ENDPOINTS
// =============================================================================

// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cs))
}

// POST /api/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), catalog.Category{Name: req.Name, Remarks: req.Remarks})
	if err != nil {
		h.writeDomainError(w, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GET /api/categories/{id}
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.Catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PUT /api/categories/{id}
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Catalog.UpdateCategory(r.Context(), catalog.Category{ID: id, Name: req.Name, Remarks: req.Remarks})
	if err != nil {
		h.writeDomainError(w, "Failed to update category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DELETE /api/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteCategory(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SUB-CATEGORY ENDPOINTS
// =============================================================================

// GET /api/subcategories?category_id=
func (h *Handler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := queryID(w, r, "category_id")
	if !ok {
		return
	}
	scs, err := h.Catalog.ListSubCategories(r.Context(), categoryID)
	if err != nil {
		h.writeDomainError(w, "Failed to list sub-categories", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(scs))
}

// POST /api/subcategories
func (h *Handler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	var req SubCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	sc, err := h.Catalog.CreateSubCategory(r.Context(), catalog.SubCategory{
		CategoryID: req.CategoryID, Name: req.Name, Remarks: req.Remarks,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create sub-category", err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

// GET /api/subcategories/{id}
func (h *Handler) GetSubCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sc, err := h.Catalog.GetSubCategory(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get sub-category", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// PUT /api/subcategories/{id}
func (h *Handler) UpdateSubCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SubCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	sc, err := h.Catalog.UpdateSubCategory(r.Context(), catalog.SubCategory{
		ID: id, CategoryID: req.CategoryID, Name: req.Name, Remarks: req.Remarks,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update sub-category", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// DELETE /api/subcategories/{id}
func (h *Handler) DeleteSubCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteSubCategory(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete sub-category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BRANCH ENDPOINTS
// =============================================================================

// GET /api/branches
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Catalog.ListBranches(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list branches", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bs))
}

// POST /api/branches
func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req BranchRequest
	if !h.decode(w, r, &req) {
		return
	}
	b, err := h.Catalog.CreateBranch(r.Context(), ledger.Branch{Name: req.Name, Address: req.Address, Remarks: req.Remarks})
	if err != nil {
		h.writeDomainError(w, "Failed to create branch", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// GET /api/branches/{id}
func (h *Handler) GetBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.Catalog.GetBranch(r.Context(), ledger.BranchID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get branch", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// PUT /api/branches/{id}
func (h *Handler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req BranchRequest
	if !h.decode(w, r, &req) {
		return
	}
	b, err := h.Catalog.UpdateBranch(r.Context(), ledger.Branch{
		ID: ledger.BranchID(id), Name: req.Name, Address: req.Address, Remarks: req.Remarks,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update branch", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DELETE /api/branches/{id}
func (h *Handler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteBranch(r.Context(), ledger.BranchID(id)); err != nil {
		h.writeDomainError(w, "Failed to delete branch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ITEM ENDPOINTS
// =============================================================================

func (req ItemRequest) item(id ledger.ItemID) ledger.Item {
	return ledger.Item{
		ID:               id,
		Name:             req.Name,
		CategoryID:       req.CategoryID,
		SubCategoryID:    req.SubCategoryID,
		Specification:    req.Specification,
		GovtPropertyCode: req.GovtPropertyCode,
		Remarks:          req.Remarks,
	}
}

// GET /api/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListItems(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list items", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

// POST /api/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	it, err := h.Catalog.CreateItem(r.Context(), req.item(0))
	if err != nil {
		h.writeDomainError(w, "Failed to create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// GET /api/items/{id}
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, err := h.Catalog.GetItem(r.Context(), ledger.ItemID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// PUT /api/items/{id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	it, err := h.Catalog.UpdateItem(r.Context(), req.item(ledger.ItemID(id)))
	if err != nil {
		h.writeDomainError(w, "Failed to update item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// DELETE /api/items/{id}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteItem(r.Context(), ledger.ItemID(id)); err != nil {
		h.writeDomainError(w, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEDGER ENDPOINTS
// =============================================================================

// CreateAcquisition records a new lot at the Store.
// POST /api/acquisitions
func (h *Handler) CreateAcquisition(w http.ResponseWriter, r *http.Request) {
	var req AcquisitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.Engine.Acquire(r.Context(), ledger.AcquisitionInput{
		ItemID:       req.ItemID,
		Date:         req.Date,
		Method:       req.Method,
		Source:       req.Source,
		Quantity:     req.Quantity,
		Cost:         req.Cost,
		AuthorityRef: req.AuthorityRef,
		Remarks:      req.Remarks,
		Year:         req.Year,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record acquisition", err)
		return
	}
	writeJSON(w, http.StatusCreated, AcquisitionDTO{BatchID: id})
}

// PlanAllocation returns the FIFO plan for a request without posting it.
// POST /api/allocations
func (h *Handler) PlanAllocation(w http.ResponseWriter, r *http.Request) {
	var req AllocationRequest
	if !h.decode(w, r, &req) {
		return
	}
	branch := req.BranchID
	if branch == 0 {
		branch = h.Engine.StoreBranch()
	}
	a, err := h.Engine.Allocate(r.Context(), ledger.AllocationRequest{
		ItemID: req.ItemID, BranchID: branch, Year: req.Year, Quantity: req.Quantity,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to plan allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(a))
}

// CreateMovement posts an Issue or a Return.
// POST /api/movements
func (h *Handler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := ledger.MovementInput{
		ItemID:       req.ItemID,
		Type:         req.Type,
		From:         req.From,
		To:           req.To,
		Year:         req.Year,
		Quantity:     req.Quantity,
		Date:         req.Date,
		AuthorityRef: req.AuthorityRef,
		Remarks:      req.Remarks,
	}

	var (
		res *ledger.MovementResult
		err error
	)
	switch req.Type {
	case ledger.TxIssue:
		res, err = h.Engine.Issue(r.Context(), in)
	case ledger.TxReturn:
		res, err = h.Engine.Return(r.Context(), in)
	default:
		res, err = h.Engine.Move(r.Context(), in)
	}
	if err != nil {
		h.writeDomainError(w, "Failed to record movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, MovementDTO{
		Reference:      res.Reference,
		Type:           req.Type,
		Allocation:     toAllocationDTO(res.Allocation),
		TransactionIDs: res.TransactionIDs,
		DerivedBatches: res.DerivedBatches,
	})
}

// CreateDisposal disposes units from the Store.
// POST /api/disposals
func (h *Handler) CreateDisposal(w http.ResponseWriter, r *http.Request) {
	var req DisposalRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Engine.Dispose(r.Context(), ledger.DisposalInput{
		ItemID:       req.ItemID,
		Year:         req.Year,
		Quantity:     req.Quantity,
		Date:         req.Date,
		Method:       req.Method,
		AuthorityRef: req.AuthorityRef,
		Remarks:      req.Remarks,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record disposal", err)
		return
	}
	writeJSON(w, http.StatusCreated, DisposalDTO{
		Reference:   res.Reference,
		Allocation:  toAllocationDTO(res.Allocation),
		DisposalIDs: res.DisposalIDs,
	})
}

// GET /api/batches?item_id=&branch_id=&year=
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	f, ok := stockFilter(w, r)
	if !ok {
		return
	}
	batches, err := h.Store.ListBatches(r.Context(), ledger.BatchFilter(f))
	if err != nil {
		h.writeDomainError(w, "Failed to list batches", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(batches))
}

// GetBatch returns a batch with its computed balance.
// GET /api/batches/{id}
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	b, err := h.Store.GetBatch(ctx, ledger.BatchID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get batch", err)
		return
	}
	bal, err := h.Engine.Balance(ctx, b.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BatchDTO{
		Batch:       b,
		Transferred: bal.Transferred,
		Disposed:    bal.Disposed,
		Available:   bal.Available(),
		State:       bal.State(),
	})
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// GET /api/reports/stock?item_id=&branch_id=&year=
func (h *Handler) StockReport(w http.ResponseWriter, r *http.Request) {
	f, ok := stockFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.StockByItemBranchYear(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, "Failed to build stock report", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

// YearOptions lists the years with stock for an item at a branch. branch_id
// defaults to the Store.
// GET /api/reports/years?item_id=&branch_id=
func (h *Handler) YearOptions(w http.ResponseWriter, r *http.Request) {
	f, ok := stockFilter(w, r)
	if !ok {
		return
	}
	if f.ItemID == nil {
		writeError(w, http.StatusBadRequest, "item_id is required", nil)
		return
	}
	branch := h.Engine.StoreBranch()
	if f.BranchID != nil {
		branch = *f.BranchID
	}

	opts, err := h.Reports.YearOptions(r.Context(), *f.ItemID, branch)
	if err != nil {
		h.writeDomainError(w, "Failed to list years", err)
		return
	}
	dtos := make([]YearOptionDTO, len(opts))
	for i, o := range opts {
		dtos[i] = YearOptionDTO{Year: o.Year, Available: o.Available, Label: o.Label()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GET /api/reports/branches
func (h *Handler) BranchReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.BranchBalances(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to build branch report", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

// GET /api/reports/register
func (h *Handler) RegisterReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.StockRegister(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to build stock register", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

// GET /api/reports/acquisitions
func (h *Handler) AcquisitionReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.AcquisitionHistory(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to build acquisition history", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

// GET /api/reports/transactions
func (h *Handler) TransactionReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.TransactionHistory(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to build transaction history", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

// GET /api/reports/disposals
func (h *Handler) DisposalReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.DisposalHistory(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to build disposal history", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger and catalog errors to a status code.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	var (
		insufficient *ledger.InsufficientStockError
		invalid      *ledger.ValidationError
	)
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:     message,
			Details:   err.Error(),
			Available: &insufficient.Available,
			Requested: &insufficient.Requested,
		})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: err.Error(), Field: invalid.Field})
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrInvalidMovement),
		errors.Is(err, ledger.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, ledger.ErrReferentialIntegrity),
		errors.Is(err, ledger.ErrStoreBranchProtected),
		errors.Is(err, ledger.ErrDuplicate):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// nonNil keeps empty lists as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
