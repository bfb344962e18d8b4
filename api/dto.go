/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Catalog rows and ledger
  events already carry json tags and are returned as-is; the types here cover
  request bodies and the results that have no wire shape of their own.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO:     Response types returned to clients

VALIDATION:
  Request types carry go-playground/validator tags. Handlers run
  validate.Struct after decoding; failures become 400 with the JSON field
  name. Ledger rules (positive quantity, known branches, direction) are
  enforced again by the engine.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Batch, TransactionEvent, DisposalEvent
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// CATALOG REQUESTS
// =============================================================================

type CategoryRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Remarks string `json:"remarks"`
}

type SubCategoryRequest struct {
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,max=200"`
	Remarks    string `json:"remarks"`
}

type BranchRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address"`
	Remarks string `json:"remarks"`
}

type ItemRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	CategoryID       int64  `json:"category_id" validate:"required,gt=0"`
	SubCategoryID    int64  `json:"subcategory_id" validate:"required,gt=0"`
	Specification    string `json:"specification"`
	GovtPropertyCode string `json:"govt_property_code"`
	Remarks          string `json:"remarks"`
}

// =============================================================================
// LEDGER REQUESTS
// =============================================================================

// AcquisitionRequest records a new lot at the Store.
type AcquisitionRequest struct {
	ItemID       ledger.ItemID       `json:"item_id" validate:"required,gt=0"`
	Date         ledger.Date         `json:"acquisition_date"`
	Method       string              `json:"acquisition_method" validate:"required"`
	Source       string              `json:"source"`
	Quantity     int64               `json:"quantity" validate:"required,gt=0"`
	Cost         decimal.NullDecimal `json:"cost"`
	AuthorityRef string              `json:"authority_ref"`
	Remarks      string              `json:"remarks"`
	Year         ledger.Year         `json:"acquisition_year"`
}

// AllocationRequest asks for a FIFO plan without posting anything.
// BranchID 0 means the Store.
type AllocationRequest struct {
	ItemID   ledger.ItemID   `json:"item_id" validate:"required,gt=0"`
	BranchID ledger.BranchID `json:"branch_id" validate:"gte=0"`
	Year     ledger.Year     `json:"acquisition_year"`
	Quantity int64           `json:"quantity" validate:"required,gt=0"`
}

// MovementRequest posts an Issue (Store to branch) or a Return (branch to
// Store). The Store side may be omitted.
type MovementRequest struct {
	Type         ledger.TransactionType `json:"transaction_type" validate:"required"`
	ItemID       ledger.ItemID          `json:"item_id" validate:"required,gt=0"`
	From         ledger.BranchID        `json:"from_branch_id" validate:"gte=0"`
	To           ledger.BranchID        `json:"to_branch_id" validate:"gte=0"`
	Year         ledger.Year            `json:"acquisition_year"`
	Quantity     int64                  `json:"quantity" validate:"required,gt=0"`
	Date         ledger.Date            `json:"transaction_date"`
	AuthorityRef string                 `json:"authority_ref"`
	Remarks      string                 `json:"remarks"`
}

type DisposalRequest struct {
	ItemID       ledger.ItemID `json:"item_id" validate:"required,gt=0"`
	Year         ledger.Year   `json:"acquisition_year"`
	Quantity     int64         `json:"quantity" validate:"required,gt=0"`
	Date         ledger.Date   `json:"disposal_date"`
	Method       string        `json:"disposal_method"`
	AuthorityRef string        `json:"authority_ref"`
	Remarks      string        `json:"remarks"`
}

// =============================================================================
// LEDGER RESPONSES
// =============================================================================

type AllocationLineDTO struct {
	BatchID   ledger.BatchID `json:"batch_id"`
	Quantity  int64          `json:"quantity"`
	Available int64          `json:"available_before"`
}

type AllocationDTO struct {
	ItemID         ledger.ItemID       `json:"item_id"`
	BranchID       ledger.BranchID     `json:"branch_id"`
	Year           ledger.Year         `json:"acquisition_year"`
	Requested      int64               `json:"requested"`
	TotalAvailable int64               `json:"total_available"`
	Lines          []AllocationLineDTO `json:"lines"`
}

func toAllocationDTO(a ledger.Allocation) AllocationDTO {
	lines := make([]AllocationLineDTO, len(a.Lines))
	for i, l := range a.Lines {
		lines[i] = AllocationLineDTO{BatchID: l.BatchID, Quantity: l.Quantity, Available: l.Available}
	}
	return AllocationDTO{
		ItemID:         a.Request.ItemID,
		BranchID:       a.Request.BranchID,
		Year:           a.Request.Year,
		Requested:      a.Request.Quantity,
		TotalAvailable: a.TotalAvailable,
		Lines:          lines,
	}
}

type AcquisitionDTO struct {
	BatchID ledger.BatchID `json:"batch_id"`
}

type MovementDTO struct {
	Reference      string                 `json:"reference"`
	Type           ledger.TransactionType `json:"transaction_type"`
	Allocation     AllocationDTO          `json:"allocation"`
	TransactionIDs []ledger.TransactionID `json:"transaction_ids"`
	DerivedBatches []ledger.BatchID       `json:"derived_batch_ids"`
}

type DisposalDTO struct {
	Reference   string              `json:"reference"`
	Allocation  AllocationDTO       `json:"allocation"`
	DisposalIDs []ledger.DisposalID `json:"disposal_ids"`
}

// BatchDTO is a batch with its computed balance.
type BatchDTO struct {
	ledger.Batch
	Transferred int64             `json:"transferred"`
	Disposed    int64             `json:"disposed"`
	Available   int64             `json:"available"`
	State       ledger.BatchState `json:"state"`
}

// YearOptionDTO is one entry of the year picker.
type YearOptionDTO struct {
	Year      ledger.Year `json:"acquisition_year"`
	Available int64       `json:"available"`
	Label     string      `json:"label"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Field     string `json:"field,omitempty"`
	Available *int64 `json:"available,omitempty"`
	Requested *int64 `json:"requested,omitempty"`
}
