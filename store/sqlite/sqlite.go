/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements ledger.TxStore (batches and ledger events) and catalog.Store
  (categories, sub-categories, branches, items) over one SQLite database.

INTERFACES IMPLEMENTED:
  ledger.Store:   Batch/event queries and inserts
  ledger.TxStore: WithTx for one-operation-one-transaction
  catalog.Store:  Master data CRUD and reference counting

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on asset_batches, asset_transactions, asset_disposal
  - No DELETE statements on them outside Reset (demo/testing only)

KEY TABLES:
  asset_batches:      Lots, original and derived (derived_from set)
  asset_transactions: Issue/Transfer/Return debits
  asset_disposal:     Disposal debits
  categories, sub_categories, branches, items: Master data

INDEXES:
  - idx_batches_candidates: FIFO candidate lookup (hot path)
  - idx_transactions_batch / idx_disposal_batch: Per-batch sums

QUERY BUILDING:
  Statements are built with squirrel (Question placeholders) and scanned
  with scany's sqlscan into the db-tagged structs of ledger and catalog.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole callback; the *sql.Tx view it hands out does not lock again.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./assets_inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine, err := ledger.NewEngine(ctx, store)

MIGRATION:
  Schema is auto-migrated on New(). Existing databases created without the
  derived_from / reference columns are upgraded in place.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - catalog/catalog.go: Master data interface
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/asset-ledger/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	sqlscan.Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// ":memory:" databases exist per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		category_id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_name TEXT NOT NULL UNIQUE,
		remarks TEXT
	);

	CREATE TABLE IF NOT EXISTS sub_categories (
		subcategory_id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id INTEGER NOT NULL,
		subcategory_name TEXT NOT NULL,
		remarks TEXT,
		FOREIGN KEY (category_id) REFERENCES categories (category_id)
	);

	CREATE TABLE IF NOT EXISTS branches (
		branch_id INTEGER PRIMARY KEY AUTOINCREMENT,
		branch_name TEXT NOT NULL UNIQUE,
		address TEXT,
		remarks TEXT
	);

	CREATE TABLE IF NOT EXISTS items (
		item_id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_name TEXT NOT NULL,
		category_id INTEGER NOT NULL,
		subcategory_id INTEGER NOT NULL,
		specification TEXT,
		govt_property_code TEXT UNIQUE,
		remarks TEXT,
		FOREIGN KEY (category_id) REFERENCES categories (category_id),
		FOREIGN KEY (subcategory_id) REFERENCES sub_categories (subcategory_id)
	);

	-- Lots. Dates are TEXT (YYYY-MM-DD) so the driver hands back strings.
	CREATE TABLE IF NOT EXISTS asset_batches (
		batch_id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id INTEGER NOT NULL,
		branch_id INTEGER NOT NULL,
		acquisition_date TEXT NOT NULL,
		acquisition_method TEXT NOT NULL,
		source TEXT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		cost TEXT,
		authority_ref TEXT,
		remarks TEXT,
		acquisition_year TEXT,
		derived_from INTEGER,
		FOREIGN KEY (item_id) REFERENCES items (item_id),
		FOREIGN KEY (branch_id) REFERENCES branches (branch_id),
		FOREIGN KEY (derived_from) REFERENCES asset_batches (batch_id)
	);

	-- FIFO candidate lookup (hot path)
	CREATE INDEX IF NOT EXISTS idx_batches_candidates
		ON asset_batches(item_id, branch_id, acquisition_year, batch_id);

	CREATE TABLE IF NOT EXISTS asset_transactions (
		transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		from_branch_id INTEGER,
		to_branch_id INTEGER,
		transaction_date TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		authority_ref TEXT,
		remarks TEXT,
		reference TEXT,
		FOREIGN KEY (batch_id) REFERENCES asset_batches (batch_id),
		FOREIGN KEY (from_branch_id) REFERENCES branches (branch_id),
		FOREIGN KEY (to_branch_id) REFERENCES branches (branch_id)
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_batch
		ON asset_transactions(batch_id);

	CREATE TABLE IF NOT EXISTS asset_disposal (
		disposal_id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id INTEGER NOT NULL,
		disposal_date TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		disposal_method TEXT NOT NULL,
		authority_ref TEXT,
		remarks TEXT,
		reference TEXT,
		FOREIGN KEY (batch_id) REFERENCES asset_batches (batch_id)
	);

	CREATE INDEX IF NOT EXISTS idx_disposal_batch
		ON asset_disposal(batch_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	if err := s.upgrade(); err != nil {
		return err
	}

	_, err := s.db.Exec(`
	CREATE INDEX IF NOT EXISTS idx_transactions_reference
		ON asset_transactions(reference) WHERE reference IS NOT NULL;
	`)
	return err
}

// upgrade adds columns missing from databases created by older versions.
func (s *Store) upgrade() error {
	columns := []struct{ table, column, decl string }{
		{"asset_batches", "derived_from", "INTEGER REFERENCES asset_batches (batch_id)"},
		{"asset_transactions", "reference", "TEXT"},
		{"asset_disposal", "reference", "TEXT"},
	}
	for _, c := range columns {
		var names []string
		if err := sqlscan.Select(context.Background(), s.db, &names,
			"SELECT name FROM pragma_table_info(?)", c.table); err != nil {
			return err
		}
		if contains(names, c.column) {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, c.decl)); err != nil {
			return fmt.Errorf("add %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txStore := &txStore{q: sqlTx}
	if err := fn(txStore); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data except the Store branch (for demo/testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"asset_disposal", "asset_transactions", "asset_batches", "items", "sub_categories", "categories"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	query, args, err := builder.Delete("branches").Where(sq.NotEq{"branch_name": ledger.StoreBranchName}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(n int64) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func notFound(err error, entity string, id any) error {
	if sqlscan.NotFound(err) || errors.Is(err, sql.ErrNoRows) {
		return &ledger.NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("get %s %v: %w", entity, id, err)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// insert runs an INSERT built by squirrel and returns the new rowid.
func insert(ctx context.Context, q querier, b sq.InsertBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, fmt.Errorf("%w: %v", ledger.ErrDuplicate, err)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// exec runs an UPDATE/DELETE and reports the number of affected rows.
func exec(ctx context.Context, q querier, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, fmt.Errorf("%w: %v", ledger.ErrDuplicate, err)
		}
		if isForeignKeyError(err) {
			return 0, fmt.Errorf("%w: %v", ledger.ErrReferentialIntegrity, err)
		}
		return 0, err
	}
	return res.RowsAffected()
}

func get(ctx context.Context, q querier, dst any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return sqlscan.Get(ctx, q, dst, query, args...)
}

func selectAll(ctx context.Context, q querier, dst any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return sqlscan.Select(ctx, q, dst, query, args...)
}
