/*
aggregate.go - Read-only rollups over batches and ledger events

PURPOSE:
  Answers the reporting questions: how much of each item is where, per
  acquisition year; what was moved or disposed and when; how much of each
  item was ever acquired. Nothing here writes.

CONSISTENCY:
  Every rollup folds the same per-batch formula as balance.go:

    available(batch) = original - Σ transactions - Σ disposals

  so a stock row always equals Σ BalanceCalculator.Available over the
  batches it groups.

FOLDS, NOT QUERIES:
  The aggregator lists batches and events from the Store and folds them in
  memory. Store implementations only need the three List methods; grouping
  rules live in one place.

SEE ALSO:
  - balance.go: The per-batch formula
  - api/handlers.go: Serves these under /api/reports
*/
package ledger

import (
	"context"
	"sort"
	"strconv"
)

// =============================================================================
// REPORT ROWS
// =============================================================================

// StockFilter narrows StockByItemBranchYear. Nil fields match everything.
type StockFilter struct {
	ItemID   *ItemID
	BranchID *BranchID
	Year     *Year
}

// StockRow is the balance of one (item, branch, acquisition year) group.
type StockRow struct {
	ItemID        ItemID   `json:"item_id"`
	ItemName      string   `json:"item_name"`
	CategoryID    int64    `json:"category_id"`
	SubCategoryID int64    `json:"subcategory_id"`
	BranchID      BranchID `json:"branch_id"`
	BranchName    string   `json:"branch_name"`
	Year          Year     `json:"acquisition_year"`
	Available     int64    `json:"balance"`
	Batches       int      `json:"batches"`
}

// YearOption is one entry of the acquisition-year picker.
type YearOption struct {
	Year      Year  `json:"acquisition_year"`
	Available int64 `json:"available"`
}

// Label renders the picker text, e.g. "2022 (Available: 7)".
func (o YearOption) Label() string {
	return o.Year.String() + " (Available: " + strconv.FormatInt(o.Available, 10) + ")"
}

type BranchBalance struct {
	BranchID   BranchID `json:"branch_id"`
	BranchName string   `json:"branch_name"`
	ItemID     ItemID   `json:"item_id"`
	ItemName   string   `json:"item_name"`
	Available  int64    `json:"balance"`
}

type TransactionRecord struct {
	TransactionEvent
	ItemID         ItemID `json:"item_id"`
	ItemName       string `json:"item_name"`
	FromBranchName string `json:"from_branch_name"`
	ToBranchName   string `json:"to_branch_name"`
	Year           Year   `json:"acquisition_year"`
}

type DisposalRecord struct {
	DisposalEvent
	ItemID   ItemID `json:"item_id"`
	ItemName string `json:"item_name"`
	Year     Year   `json:"acquisition_year"`
}

type AcquisitionRecord struct {
	Batch
	ItemName string `json:"item_name"`
}

// RegisterRow summarizes one item over its original acquisitions.
type RegisterRow struct {
	ItemID    ItemID `json:"item_id"`
	ItemName  string `json:"item_name"`
	Acquired  int64  `json:"acquired"`
	Disposed  int64  `json:"disposed"`
	Remaining int64  `json:"remaining"`
}

// =============================================================================
// AGGREGATOR
// =============================================================================

type Aggregator struct {
	Store Store
}

// ledgerState is one consistent read of batches and per-batch debits.
type ledgerState struct {
	batches     []Batch
	byID        map[BatchID]Batch
	transferred map[BatchID]int64
	disposed    map[BatchID]int64
	txs         []TransactionEvent
	disposals   []DisposalEvent
}

func (s *ledgerState) available(b Batch) int64 {
	return b.OriginalQuantity - s.transferred[b.ID] - s.disposed[b.ID]
}

func (a *Aggregator) load(ctx context.Context, filter BatchFilter) (*ledgerState, error) {
	batches, err := a.Store.ListBatches(ctx, filter)
	if err != nil {
		return nil, err
	}
	txs, err := a.Store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	disposals, err := a.Store.ListDisposals(ctx)
	if err != nil {
		return nil, err
	}

	s := &ledgerState{
		batches:     batches,
		byID:        make(map[BatchID]Batch, len(batches)),
		transferred: make(map[BatchID]int64),
		disposed:    make(map[BatchID]int64),
		txs:         txs,
		disposals:   disposals,
	}
	for _, b := range batches {
		s.byID[b.ID] = b
	}
	for _, tx := range txs {
		s.transferred[tx.BatchID] += tx.Quantity
	}
	for _, d := range disposals {
		s.disposed[d.BatchID] += d.Quantity
	}
	return s, nil
}

// names resolves item and branch display names once per report.
type names struct {
	store    Store
	items    map[ItemID]Item
	branches map[BranchID]Branch
}

func newNames(store Store) *names {
	return &names{store: store, items: map[ItemID]Item{}, branches: map[BranchID]Branch{}}
}

func (n *names) item(ctx context.Context, id ItemID) (Item, error) {
	if it, ok := n.items[id]; ok {
		return it, nil
	}
	it, err := n.store.GetItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	n.items[id] = it
	return it, nil
}

func (n *names) branch(ctx context.Context, id BranchID) (Branch, error) {
	if b, ok := n.branches[id]; ok {
		return b, nil
	}
	b, err := n.store.GetBranch(ctx, id)
	if err != nil {
		return Branch{}, err
	}
	n.branches[id] = b
	return b, nil
}

// StockByItemBranchYear returns positive balances grouped by item, branch
// and acquisition year, ordered by item name, branch name, year.
func (a *Aggregator) StockByItemBranchYear(ctx context.Context, filter StockFilter) ([]StockRow, error) {
	s, err := a.load(ctx, BatchFilter(filter))
	if err != nil {
		return nil, err
	}

	type key struct {
		item   ItemID
		branch BranchID
		year   Year
	}
	groups := map[key]*StockRow{}
	var order []key

	for _, b := range s.batches {
		k := key{b.ItemID, b.BranchID, b.AcquisitionYear}
		row, ok := groups[k]
		if !ok {
			row = &StockRow{ItemID: b.ItemID, BranchID: b.BranchID, Year: b.AcquisitionYear}
			groups[k] = row
			order = append(order, k)
		}
		row.Available += s.available(b)
		row.Batches++
	}

	n := newNames(a.Store)
	var rows []StockRow
	for _, k := range order {
		row := groups[k]
		if row.Available <= 0 {
			continue
		}
		it, err := n.item(ctx, row.ItemID)
		if err != nil {
			return nil, err
		}
		br, err := n.branch(ctx, row.BranchID)
		if err != nil {
			return nil, err
		}
		row.ItemName, row.CategoryID, row.SubCategoryID = it.Name, it.CategoryID, it.SubCategoryID
		row.BranchName = br.Name
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemName != rows[j].ItemName {
			return rows[i].ItemName < rows[j].ItemName
		}
		if rows[i].BranchName != rows[j].BranchName {
			return rows[i].BranchName < rows[j].BranchName
		}
		return yearLess(rows[i].Year, rows[j].Year)
	})
	return rows, nil
}

// YearOptions lists the acquisition years of item that still hold stock at
// branch. Specified years come first in ascending order, unspecified last.
func (a *Aggregator) YearOptions(ctx context.Context, itemID ItemID, branchID BranchID) ([]YearOption, error) {
	s, err := a.load(ctx, BatchFilter{ItemID: &itemID, BranchID: &branchID})
	if err != nil {
		return nil, err
	}

	totals := map[Year]int64{}
	for _, b := range s.batches {
		totals[b.AcquisitionYear] += s.available(b)
	}

	var opts []YearOption
	for y, avail := range totals {
		if avail > 0 {
			opts = append(opts, YearOption{Year: y, Available: avail})
		}
	}
	sort.Slice(opts, func(i, j int) bool { return yearLess(opts[i].Year, opts[j].Year) })
	return opts, nil
}

// BranchBalances returns positive balances per (branch, item).
func (a *Aggregator) BranchBalances(ctx context.Context) ([]BranchBalance, error) {
	s, err := a.load(ctx, BatchFilter{})
	if err != nil {
		return nil, err
	}

	type key struct {
		branch BranchID
		item   ItemID
	}
	totals := map[key]int64{}
	for _, b := range s.batches {
		totals[key{b.BranchID, b.ItemID}] += s.available(b)
	}

	n := newNames(a.Store)
	var out []BranchBalance
	for k, avail := range totals {
		if avail <= 0 {
			continue
		}
		it, err := n.item(ctx, k.item)
		if err != nil {
			return nil, err
		}
		br, err := n.branch(ctx, k.branch)
		if err != nil {
			return nil, err
		}
		out = append(out, BranchBalance{
			BranchID: k.branch, BranchName: br.Name,
			ItemID: k.item, ItemName: it.Name,
			Available: avail,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BranchName != out[j].BranchName {
			return out[i].BranchName < out[j].BranchName
		}
		return out[i].ItemName < out[j].ItemName
	})
	return out, nil
}

// TransactionHistory lists every movement line, most recent first.
func (a *Aggregator) TransactionHistory(ctx context.Context) ([]TransactionRecord, error) {
	s, err := a.load(ctx, BatchFilter{})
	if err != nil {
		return nil, err
	}

	n := newNames(a.Store)
	out := make([]TransactionRecord, 0, len(s.txs))
	for _, tx := range s.txs {
		b, ok := s.byID[tx.BatchID]
		if !ok {
			return nil, &NotFoundError{Entity: "batch", ID: tx.BatchID}
		}
		it, err := n.item(ctx, b.ItemID)
		if err != nil {
			return nil, err
		}
		from, err := n.branch(ctx, tx.FromBranch)
		if err != nil {
			return nil, err
		}
		to, err := n.branch(ctx, tx.ToBranch)
		if err != nil {
			return nil, err
		}
		out = append(out, TransactionRecord{
			TransactionEvent: tx,
			ItemID:           b.ItemID,
			ItemName:         it.Name,
			FromBranchName:   from.Name,
			ToBranchName:     to.Name,
			Year:             b.AcquisitionYear,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// DisposalHistory lists every disposal line, most recent first.
func (a *Aggregator) DisposalHistory(ctx context.Context) ([]DisposalRecord, error) {
	s, err := a.load(ctx, BatchFilter{})
	if err != nil {
		return nil, err
	}

	n := newNames(a.Store)
	out := make([]DisposalRecord, 0, len(s.disposals))
	for _, d := range s.disposals {
		b, ok := s.byID[d.BatchID]
		if !ok {
			return nil, &NotFoundError{Entity: "batch", ID: d.BatchID}
		}
		it, err := n.item(ctx, b.ItemID)
		if err != nil {
			return nil, err
		}
		out = append(out, DisposalRecord{
			DisposalEvent: d,
			ItemID:        b.ItemID,
			ItemName:      it.Name,
			Year:          b.AcquisitionYear,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// AcquisitionHistory lists original lots (not derived by a movement),
// newest acquisition date first.
func (a *Aggregator) AcquisitionHistory(ctx context.Context) ([]AcquisitionRecord, error) {
	s, err := a.load(ctx, BatchFilter{})
	if err != nil {
		return nil, err
	}

	n := newNames(a.Store)
	var out []AcquisitionRecord
	for _, b := range s.batches {
		if b.IsDerived() {
			continue
		}
		it, err := n.item(ctx, b.ItemID)
		if err != nil {
			return nil, err
		}
		out = append(out, AcquisitionRecord{Batch: b, ItemName: it.Name})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AcquisitionDate.Equal(out[j].AcquisitionDate) {
			return out[i].AcquisitionDate.After(out[j].AcquisitionDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// StockRegister summarizes each item over its original lots: units acquired,
// units disposed directly from those lots, and the difference. Items with
// nothing remaining are omitted.
func (a *Aggregator) StockRegister(ctx context.Context) ([]RegisterRow, error) {
	s, err := a.load(ctx, BatchFilter{})
	if err != nil {
		return nil, err
	}

	rows := map[ItemID]*RegisterRow{}
	for _, b := range s.batches {
		if b.IsDerived() {
			continue
		}
		row, ok := rows[b.ItemID]
		if !ok {
			row = &RegisterRow{ItemID: b.ItemID}
			rows[b.ItemID] = row
		}
		row.Acquired += b.OriginalQuantity
		row.Disposed += s.disposed[b.ID]
	}

	n := newNames(a.Store)
	var out []RegisterRow
	for _, row := range rows {
		row.Remaining = row.Acquired - row.Disposed
		if row.Remaining <= 0 {
			continue
		}
		it, err := n.item(ctx, row.ItemID)
		if err != nil {
			return nil, err
		}
		row.ItemName = it.Name
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

// yearLess orders specified years ascending and puts the unspecified year last.
func yearLess(a, b Year) bool {
	if a.Valid != b.Valid {
		return a.Valid
	}
	return a.Text < b.Text
}
