/*
errors.go - Centralized error types for the asset ledger

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every error below is caller-recoverable: the operation is aborted, nothing
  is posted, and the condition is reported verbatim to the API/CLI layer.

ERROR CATEGORIES:
  1. Lookup errors - NotFound for batches, items, branches, reference rows
  2. Stock errors - InsufficientStock with the real available total
  3. Movement errors - InvalidMovement for direction/branch mismatches
  4. Catalog errors - ReferentialIntegrity, duplicates, the protected Store

USAGE:
  _, err := engine.Move(ctx, input)
  var short *ledger.InsufficientStockError
  if errors.As(err, &short) {
      fmt.Printf("only %d available\n", short.Available)
  }

SEE ALSO:
  - allocator.go: Returns InsufficientStockError
  - movement.go: Returns InvalidMovementError
  - catalog/service.go: Returns ReferentialIntegrityError
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced batch, item or branch is missing.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned when matching batches hold fewer units
	// than requested.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidMovement is returned for direction/branch mismatches such as
	// issuing to the Store or returning from it.
	ErrInvalidMovement = errors.New("invalid movement")

	// ErrReferentialIntegrity is returned when deleting a row still in use.
	ErrReferentialIntegrity = errors.New("referential integrity violation")

	// ErrInvalidQuantity is returned for zero or negative quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrStoreBranchProtected is returned when deleting or renaming the Store.
	ErrStoreBranchProtected = errors.New("the Store branch cannot be deleted or renamed")

	// ErrDuplicate is returned when a unique name or code is already taken.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrValidation is returned when required fields are missing or malformed.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing row.
type NotFoundError struct {
	Entity string // "batch", "item", "branch", "category", "sub-category"
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError carries the actual available total so it can be
// shown to the end user.
type InsufficientStockError struct {
	ItemID    ItemID
	BranchID  BranchID
	Year      Year
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("quantity exceeds available (%d): requested %d of item %d at branch %d, year %s",
		e.Available, e.Requested, e.ItemID, e.BranchID, e.Year)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Shortfall is how many units are missing.
func (e *InsufficientStockError) Shortfall() int64 {
	return e.Requested - e.Available
}

// InvalidMovementError describes a rejected Issue/Return direction.
type InvalidMovementError struct {
	Type   TransactionType
	From   BranchID
	To     BranchID
	Reason string
}

func (e *InvalidMovementError) Error() string {
	return fmt.Sprintf("invalid %s movement from branch %d to branch %d: %s", e.Type, e.From, e.To, e.Reason)
}

func (e *InvalidMovementError) Unwrap() error { return ErrInvalidMovement }

// ReferentialIntegrityError reports which rows still reference the target.
type ReferentialIntegrityError struct {
	Entity       string
	ID           any
	ReferencedBy string
	Count        int64
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s %v: referenced by %d %s", e.Entity, e.ID, e.Count, e.ReferencedBy)
}

func (e *ReferentialIntegrityError) Unwrap() error { return ErrReferentialIntegrity }

// ValidationError lists the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the request, not the system.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidMovement) ||
		errors.Is(err, ErrReferentialIntegrity) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrStoreBranchProtected) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
