/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates a small catalog, acquires lots at
	the Store and posts movements and disposals through the engine, so every
	row is produced by the same code paths as live requests.

AVAILABLE SCENARIOS:

	central-store:   Catalog plus a few lots held at the Store
	branch-rollout:  Issues spanning several lots (FIFO) to two branches
	condemnation:    Issue, return, then disposal of returned units
	legacy-import:   Lots without an acquisition year, issued as "Unknown"

HOW SCENARIOS WORK:
 1. Reset database (everything except the Store branch)
 2. Create categories, sub-categories, items and branches
 3. Acquire lots at the Store
 4. Post issues, returns and disposals

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "branch-rollout"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler wiring
  - ledger/engine.go: Acquire, Issue, Return, Dispose
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/asset-ledger/catalog"
	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "central-store",
		Name:        "Central Store",
		Description: "Furniture and IT lots acquired into the Store, nothing issued yet",
	},
	{
		ID:          "branch-rollout",
		Name:        "Branch Rollout",
		Description: "Issues drawn FIFO across 2022 and 2023 lots to two branches",
	},
	{
		ID:          "condemnation",
		Name:        "Condemnation",
		Description: "Chairs issued, partly returned, then condemned from the Store",
	},
	{
		ID:          "legacy-import",
		Name:        "Legacy Import",
		Description: "Lots imported without an acquisition year and issued as Unknown",
	},
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	load, ok := map[string]func(context.Context) error{
		"central-store":  h.loadCentralStoreScenario,
		"branch-rollout": h.loadBranchRolloutScenario,
		"condemnation":   h.loadCondemnationScenario,
		"legacy-import":  h.loadLegacyImportScenario,
	}[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		h.log.Error("scenario load failed", zap.String("scenario", req.ScenarioID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.log.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data except the Store branch.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SEEDING HELPERS
// =============================================================================

// seeder creates catalog rows and posts ledger events, stopping at the first
// error.
type seeder struct {
	ctx context.Context
	h   *Handler
	err error
}

func (h *Handler) seeder(ctx context.Context) *seeder {
	return &seeder{ctx: ctx, h: h}
}

func (s *seeder) category(name string) int64 {
	if s.err != nil {
		return 0
	}
	c, err := s.h.Catalog.CreateCategory(s.ctx, catalog.Category{Name: name})
	s.err = err
	return c.ID
}

func (s *seeder) subCategory(categoryID int64, name string) int64 {
	if s.err != nil {
		return 0
	}
	sc, err := s.h.Catalog.CreateSubCategory(s.ctx, catalog.SubCategory{CategoryID: categoryID, Name: name})
	s.err = err
	return sc.ID
}

func (s *seeder) item(categoryID, subCategoryID int64, name, code, spec string) ledger.ItemID {
	if s.err != nil {
		return 0
	}
	it, err := s.h.Catalog.CreateItem(s.ctx, ledger.Item{
		Name: name, CategoryID: categoryID, SubCategoryID: subCategoryID,
		GovtPropertyCode: code, Specification: spec,
	})
	s.err = err
	return it.ID
}

func (s *seeder) branch(name, address string) ledger.BranchID {
	if s.err != nil {
		return 0
	}
	b, err := s.h.Catalog.CreateBranch(s.ctx, ledger.Branch{Name: name, Address: address})
	s.err = err
	return b.ID
}

func (s *seeder) acquire(item ledger.ItemID, year string, qty int64, cost string, on ledger.Date) {
	if s.err != nil {
		return
	}
	_, s.err = s.h.Engine.Acquire(s.ctx, ledger.AcquisitionInput{
		ItemID:       item,
		Date:         on,
		Method:       "Purchase",
		Source:       "Central procurement",
		Quantity:     qty,
		Cost:         decimal.NewNullDecimal(decimal.RequireFromString(cost)),
		AuthorityRef: "PO-" + year,
		Year:         ledger.NewYear(year),
	})
}

func (s *seeder) issue(item ledger.ItemID, to ledger.BranchID, year ledger.Year, qty int64, on ledger.Date) {
	if s.err != nil {
		return
	}
	_, s.err = s.h.Engine.Issue(s.ctx, ledger.MovementInput{
		ItemID: item, To: to, Year: year, Quantity: qty, Date: on, AuthorityRef: "Office order",
	})
}

func (s *seeder) giveBack(item ledger.ItemID, from ledger.BranchID, year ledger.Year, qty int64, on ledger.Date) {
	if s.err != nil {
		return
	}
	_, s.err = s.h.Engine.Return(s.ctx, ledger.MovementInput{
		ItemID: item, From: from, Year: year, Quantity: qty, Date: on, Remarks: "Returned after refurbishment",
	})
}

func (s *seeder) dispose(item ledger.ItemID, year ledger.Year, qty int64, on ledger.Date) {
	if s.err != nil {
		return
	}
	_, s.err = s.h.Engine.Dispose(s.ctx, ledger.DisposalInput{
		ItemID: item, Year: year, Quantity: qty, Date: on, AuthorityRef: "Condemnation board",
	})
}

func day(y int, m time.Month, d int) ledger.Date { return ledger.NewDate(y, m, d) }

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadCentralStoreScenario(ctx context.Context) error {
	s := h.seeder(ctx)

	furniture := s.category("Furniture")
	chairs := s.subCategory(furniture, "Chairs")
	tables := s.subCategory(furniture, "Tables")
	it := s.category("IT Equipment")
	laptops := s.subCategory(it, "Laptops")

	chair := s.item(furniture, chairs, "Office Chair", "GP-FUR-001", "Ergonomic, mesh back")
	table := s.item(furniture, tables, "Meeting Table", "GP-FUR-002", "8 seater")
	laptop := s.item(it, laptops, "Laptop", "GP-IT-001", "14 inch, 16 GB")

	s.acquire(chair, "2023", 40, "120.00", day(2023, time.March, 10))
	s.acquire(table, "2023", 6, "850.00", day(2023, time.March, 10))
	s.acquire(laptop, "2024", 15, "1150.00", day(2024, time.January, 22))
	s.branch("North Office", "12 Hill Road")
	return s.err
}

func (h *Handler) loadBranchRolloutScenario(ctx context.Context) error {
	s := h.seeder(ctx)

	it := s.category("IT Equipment")
	laptops := s.subCategory(it, "Laptops")
	laptop := s.item(it, laptops, "Laptop", "GP-IT-001", "14 inch, 16 GB")

	north := s.branch("North Office", "12 Hill Road")
	south := s.branch("South Office", "4 Harbour Street")

	// Two 2023 lots; the first North issue drains lot one and dips into lot two.
	s.acquire(laptop, "2022", 5, "980.00", day(2022, time.August, 1))
	s.acquire(laptop, "2023", 4, "1100.00", day(2023, time.February, 14))
	s.acquire(laptop, "2023", 6, "1080.00", day(2023, time.June, 30))

	y2023 := ledger.NewYear("2023")
	s.issue(laptop, north, y2023, 7, day(2023, time.July, 5))
	s.issue(laptop, south, y2023, 2, day(2023, time.July, 20))
	s.issue(laptop, south, ledger.NewYear("2022"), 3, day(2023, time.August, 2))
	return s.err
}

func (h *Handler) loadCondemnationScenario(ctx context.Context) error {
	s := h.seeder(ctx)

	furniture := s.category("Furniture")
	chairs := s.subCategory(furniture, "Chairs")
	chair := s.item(furniture, chairs, "Office Chair", "GP-FUR-001", "Ergonomic, mesh back")
	north := s.branch("North Office", "12 Hill Road")

	y := ledger.NewYear("2021")
	s.acquire(chair, "2021", 20, "95.00", day(2021, time.May, 3))
	s.issue(chair, north, y, 15, day(2021, time.June, 1))
	s.giveBack(chair, north, y, 6, day(2024, time.February, 12))

	// 5 original units plus the 6 returned ones remain at the Store.
	s.dispose(chair, y, 8, day(2024, time.April, 30))
	return s.err
}

func (h *Handler) loadLegacyImportScenario(ctx context.Context) error {
	s := h.seeder(ctx)

	furniture := s.category("Furniture")
	cabinets := s.subCategory(furniture, "Cabinets")
	cabinet := s.item(furniture, cabinets, "Steel Cabinet", "GP-FUR-010", "4 drawer")
	east := s.branch("East Office", "77 Station Road")
	if s.err != nil {
		return s.err
	}

	// Imported lots predate year tracking and carry no acquisition year.
	for _, qty := range []int64{3, 5} {
		if _, err := h.Store.InsertBatch(ctx, ledger.Batch{
			ItemID:            cabinet,
			BranchID:          h.Engine.StoreBranch(),
			AcquisitionDate:   day(2015, time.January, 1),
			AcquisitionMethod: "Legacy import",
			Source:            "Opening balance",
			OriginalQuantity:  qty,
		}); err != nil {
			return err
		}
	}

	s.acquire(cabinet, "2024", 2, "310.00", day(2024, time.March, 1))
	s.issue(cabinet, east, ledger.UnspecifiedYear, 4, day(2024, time.March, 15))
	return s.err
}
