/*
Package ledger provides the batch-based asset accounting engine.

PURPOSE:
  Physical assets (furniture, equipment, ...) are acquired in discrete lots
  called batches. A batch lives at one branch, and units leave it through
  issues, returns and disposals. This package answers "how many units of this
  lot are still here?", decides which lots a request draws from, and records
  every movement as an immutable ledger event.

KEY CONCEPTS IN THIS FILE (types.go):
  - Batch: A lot of identical units at one branch, with provenance
  - TransactionEvent: A debit of a batch caused by Issue/Transfer/Return
  - DisposalEvent: A terminal debit of a Store batch
  - Year: Nullable acquisition-year grouping key
  - Branch/Item: The reference rows the core needs to resolve

DESIGN PRINCIPLES:
  1. Append-only: events are never updated or deleted
  2. Derived balance: available units are always recomputed from events
  3. Provenance: derived batches keep cost and acquisition year of their source
  4. Determinism: lots are consumed in creation order (ascending BatchID)

USAGE:
  engine, _ := ledger.NewEngine(ctx, store)
  ids, err := engine.Move(ctx, ledger.MovementInput{
      ItemID:   item,
      Type:     ledger.TxIssue,
      From:     engine.StoreBranch(),
      To:       branchB,
      Year:     ledger.NewYear("2022"),
      Quantity: 5,
  })

SEE ALSO:
  - balance.go: Available units per batch
  - allocator.go: FIFO allocation across batches
  - movement.go: Issue/Return posting and derived batches
  - disposal.go: Disposal posting
  - aggregate.go: Read-only rollups
*/
package ledger

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Identifiers are database row ids. Ascending BatchID is creation order,
// which is the FIFO tie-break.
type (
	BatchID       int64
	ItemID        int64
	BranchID      int64
	TransactionID int64
	DisposalID    int64
)

// StoreBranchName is the distinguished branch that receives acquisitions and
// returns and is the only origin for disposals.
const StoreBranchName = "Store"

// StoreBranchAddress is used when the Store branch is bootstrapped.
const StoreBranchAddress = "Central Store"

// =============================================================================
// YEAR - Nullable acquisition-year grouping key
// =============================================================================

// Year is the acquisition year of a batch. The zero value is "unspecified",
// which matches batches whose year IS NULL.
type Year struct {
	Text  string
	Valid bool
}

// NewYear returns a specified year, or the unspecified year for "".
func NewYear(s string) Year {
	if s == "" {
		return Year{}
	}
	return Year{Text: s, Valid: true}
}

// UnspecifiedYear matches batches without an acquisition year.
var UnspecifiedYear = Year{}

func (y Year) String() string {
	if !y.Valid {
		return "Unknown"
	}
	return y.Text
}

// Matches reports whether a batch year falls in this filter.
func (y Year) Matches(other Year) bool {
	if !y.Valid {
		return !other.Valid
	}
	return other.Valid && other.Text == y.Text
}

// Scan implements sql.Scanner.
func (y *Year) Scan(src any) error {
	var ns sql.NullString
	if err := ns.Scan(src); err != nil {
		return err
	}
	y.Text, y.Valid = ns.String, ns.Valid
	return nil
}

// Value implements driver.Valuer.
func (y Year) Value() (driver.Value, error) {
	if !y.Valid {
		return nil, nil
	}
	return y.Text, nil
}

func (y Year) MarshalJSON() ([]byte, error) {
	if !y.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(y.Text)
}

// UnmarshalJSON accepts a string, a whole number or null.
func (y *Year) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*y = Year{}
	case string:
		*y = NewYear(v)
	case float64:
		if v != math.Trunc(v) || v < 0 {
			return fmt.Errorf("invalid acquisition year %s", b)
		}
		*y = NewYear(strconv.FormatInt(int64(v), 10))
	default:
		return fmt.Errorf("invalid acquisition year %s", b)
	}
	return nil
}

// =============================================================================
// REFERENCE ROWS - What the core needs to know about items and branches
// =============================================================================

type Branch struct {
	ID      BranchID `db:"branch_id" json:"id"`
	Name    string   `db:"branch_name" json:"name"`
	Address string   `db:"address" json:"address"`
	Remarks string   `db:"remarks" json:"remarks"`
}

// IsStore reports whether this is the central Store branch.
func (b Branch) IsStore() bool { return b.Name == StoreBranchName }

type Item struct {
	ID               ItemID `db:"item_id" json:"id"`
	Name             string `db:"item_name" json:"name"`
	CategoryID       int64  `db:"category_id" json:"category_id"`
	SubCategoryID    int64  `db:"subcategory_id" json:"subcategory_id"`
	Specification    string `db:"specification" json:"specification"`
	GovtPropertyCode string `db:"govt_property_code" json:"govt_property_code,omitempty"`
	Remarks          string `db:"remarks" json:"remarks"`
}

// =============================================================================
// BATCH - A lot of identical units held at one branch
// =============================================================================

const (
	MethodIssue  = "Issue"
	MethodReturn = "Return"
)

type Batch struct {
	ID                BatchID             `db:"batch_id" json:"id"`
	ItemID            ItemID              `db:"item_id" json:"item_id"`
	BranchID          BranchID            `db:"branch_id" json:"branch_id"`
	AcquisitionDate   Date                `db:"acquisition_date" json:"acquisition_date"`
	AcquisitionMethod string              `db:"acquisition_method" json:"acquisition_method"`
	Source            string              `db:"source" json:"source"`
	OriginalQuantity  int64               `db:"quantity" json:"quantity"`
	Cost              decimal.NullDecimal `db:"cost" json:"cost"`
	AuthorityRef      string              `db:"authority_ref" json:"authority_ref"`
	Remarks           string              `db:"remarks" json:"remarks"`
	AcquisitionYear   Year                `db:"acquisition_year" json:"acquisition_year"`

	// DerivedFrom points back at the batch whose units were moved here.
	// Zero for original acquisitions. Never used for ownership.
	DerivedFrom BatchID `db:"derived_from" json:"derived_from"`
}

// IsDerived reports whether the batch was materialized by a movement.
func (b Batch) IsDerived() bool {
	return b.AcquisitionMethod == MethodIssue || b.AcquisitionMethod == MethodReturn
}

// BatchRef is a candidate batch as returned by FindCandidateBatches.
type BatchRef struct {
	ID               BatchID `db:"batch_id" json:"id"`
	OriginalQuantity int64   `db:"quantity" json:"quantity"`
}

// BatchFilter narrows ListBatches. Nil fields match everything.
type BatchFilter struct {
	ItemID   *ItemID
	BranchID *BranchID
	Year     *Year
}

// =============================================================================
// EVENTS - Immutable ledger entries
// =============================================================================

type TransactionType string

const (
	TxIssue    TransactionType = "Issue"    // Store -> branch, creates derived batch
	TxTransfer TransactionType = "Transfer" // debit only, legacy data
	TxReturn   TransactionType = "Return"   // branch -> Store, creates derived batch
)

// CreatesBatch reports whether posting this type materializes a batch at the
// destination.
func (t TransactionType) CreatesBatch() bool {
	return t == TxIssue || t == TxReturn
}

func (t TransactionType) IsValid() bool {
	switch t {
	case TxIssue, TxTransfer, TxReturn:
		return true
	}
	return false
}

type TransactionEvent struct {
	ID           TransactionID   `db:"transaction_id" json:"id"`
	BatchID      BatchID         `db:"batch_id" json:"batch_id"`
	Type         TransactionType `db:"transaction_type" json:"transaction_type"`
	FromBranch   BranchID        `db:"from_branch_id" json:"from_branch_id"`
	ToBranch     BranchID        `db:"to_branch_id" json:"to_branch_id"`
	Date         Date            `db:"transaction_date" json:"transaction_date"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	AuthorityRef string          `db:"authority_ref" json:"authority_ref"`
	Remarks      string          `db:"remarks" json:"remarks"`
	Reference    string          `db:"reference" json:"reference"` // shared by all events of one request
}

type DisposalEvent struct {
	ID           DisposalID `db:"disposal_id" json:"id"`
	BatchID      BatchID    `db:"batch_id" json:"batch_id"`
	Date         Date       `db:"disposal_date" json:"disposal_date"`
	Quantity     int64      `db:"quantity" json:"quantity"`
	Method       string     `db:"disposal_method" json:"disposal_method"`
	AuthorityRef string     `db:"authority_ref" json:"authority_ref"`
	Remarks      string     `db:"remarks" json:"remarks"`
	Reference    string     `db:"reference" json:"reference"`
}
