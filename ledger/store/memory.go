// Package store provides in-memory ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/asset-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	st *state

	// OnInsert, when set, runs before every ledger insert with the kind
	// ("batch", "transaction", "disposal"). A non-nil error aborts the insert.
	OnInsert func(kind string) error
}

// state holds all rows. Ids are assigned from the counters, ascending.
type state struct {
	branches     map[ledger.BranchID]ledger.Branch
	items        map[ledger.ItemID]ledger.Item
	batches      []ledger.Batch
	transactions []ledger.TransactionEvent
	disposals    []ledger.DisposalEvent

	nextBranch int64
	nextItem   int64
	nextBatch  int64
	nextTx     int64
	nextDisp   int64
}

func newState() *state {
	return &state{
		branches: make(map[ledger.BranchID]ledger.Branch),
		items:    make(map[ledger.ItemID]ledger.Item),
	}
}

func NewMemory() *Memory {
	return &Memory{st: newState()}
}

// AddItem registers an item for lookups and returns its id.
func (m *Memory) AddItem(_ context.Context, it ledger.Item) ledger.ItemID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.nextItem++
	it.ID = ledger.ItemID(m.st.nextItem)
	m.st.items[it.ID] = it
	return it.ID
}

// AddBranch registers a branch and returns its id.
func (m *Memory) AddBranch(_ context.Context, name string) ledger.BranchID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, _ := m.st.insertBranch(ledger.Branch{Name: name})
	return id
}

func (m *Memory) GetBatch(_ context.Context, id ledger.BatchID) (ledger.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getBatch(id)
}

func (m *Memory) SumOutgoingTransactions(_ context.Context, id ledger.BatchID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.sumTransactions(id), nil
}

func (m *Memory) SumDisposals(_ context.Context, id ledger.BatchID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.sumDisposals(id), nil
}

func (m *Memory) FindCandidateBatches(_ context.Context, itemID ledger.ItemID, branchID ledger.BranchID, year ledger.Year) ([]ledger.BatchRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.candidates(itemID, branchID, year), nil
}

func (m *Memory) InsertTransaction(_ context.Context, ev ledger.TransactionEvent) (ledger.TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("transaction"); err != nil {
		return 0, err
	}
	return m.st.insertTransaction(ev)
}

func (m *Memory) InsertBatch(_ context.Context, b ledger.Batch) (ledger.BatchID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("batch"); err != nil {
		return 0, err
	}
	return m.st.insertBatch(b)
}

func (m *Memory) InsertDisposal(_ context.Context, ev ledger.DisposalEvent) (ledger.DisposalID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fault("disposal"); err != nil {
		return 0, err
	}
	return m.st.insertDisposal(ev)
}

func (m *Memory) GetItem(_ context.Context, id ledger.ItemID) (ledger.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getItem(id)
}

func (m *Memory) GetBranch(_ context.Context, id ledger.BranchID) (ledger.Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getBranch(id)
}

func (m *Memory) FindBranchByName(_ context.Context, name string) (ledger.Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.findBranch(name)
}

func (m *Memory) InsertBranch(_ context.Context, b ledger.Branch) (ledger.BranchID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertBranch(b)
}

func (m *Memory) ListBatches(_ context.Context, f ledger.BatchFilter) ([]ledger.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listBatches(f), nil
}

func (m *Memory) ListTransactions(_ context.Context) ([]ledger.TransactionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ledger.TransactionEvent(nil), m.st.transactions...), nil
}

func (m *Memory) ListDisposals(_ context.Context) ([]ledger.DisposalEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ledger.DisposalEvent(nil), m.st.disposals...), nil
}

func (m *Memory) fault(kind string) error {
	if m.OnInsert == nil {
		return nil
	}
	return m.OnInsert(kind)
}

// =============================================================================
// STATE - Unlocked operations shared by Memory and the transactional view
// =============================================================================

func (s *state) getBatch(id ledger.BatchID) (ledger.Batch, error) {
	// Ids are dense and ascending, so the slice index is id-1.
	i := int(id) - 1
	if i < 0 || i >= len(s.batches) {
		return ledger.Batch{}, &ledger.NotFoundError{Entity: "batch", ID: id}
	}
	return s.batches[i], nil
}

func (s *state) sumTransactions(id ledger.BatchID) int64 {
	var total int64
	for _, tx := range s.transactions {
		if tx.BatchID == id {
			total += tx.Quantity
		}
	}
	return total
}

func (s *state) sumDisposals(id ledger.BatchID) int64 {
	var total int64
	for _, d := range s.disposals {
		if d.BatchID == id {
			total += d.Quantity
		}
	}
	return total
}

func (s *state) candidates(itemID ledger.ItemID, branchID ledger.BranchID, year ledger.Year) []ledger.BatchRef {
	var refs []ledger.BatchRef
	for _, b := range s.batches {
		if b.ItemID == itemID && b.BranchID == branchID && year.Matches(b.AcquisitionYear) {
			refs = append(refs, ledger.BatchRef{ID: b.ID, OriginalQuantity: b.OriginalQuantity})
		}
	}
	return refs
}

func (s *state) insertTransaction(ev ledger.TransactionEvent) (ledger.TransactionID, error) {
	if _, err := s.getBatch(ev.BatchID); err != nil {
		return 0, err
	}
	s.nextTx++
	ev.ID = ledger.TransactionID(s.nextTx)
	s.transactions = append(s.transactions, ev)
	return ev.ID, nil
}

func (s *state) insertBatch(b ledger.Batch) (ledger.BatchID, error) {
	if _, err := s.getItem(b.ItemID); err != nil {
		return 0, err
	}
	if _, err := s.getBranch(b.BranchID); err != nil {
		return 0, err
	}
	if b.OriginalQuantity <= 0 {
		return 0, ledger.ErrInvalidQuantity
	}
	s.nextBatch++
	b.ID = ledger.BatchID(s.nextBatch)
	s.batches = append(s.batches, b)
	return b.ID, nil
}

func (s *state) insertDisposal(ev ledger.DisposalEvent) (ledger.DisposalID, error) {
	if _, err := s.getBatch(ev.BatchID); err != nil {
		return 0, err
	}
	s.nextDisp++
	ev.ID = ledger.DisposalID(s.nextDisp)
	s.disposals = append(s.disposals, ev)
	return ev.ID, nil
}

func (s *state) getItem(id ledger.ItemID) (ledger.Item, error) {
	it, ok := s.items[id]
	if !ok {
		return ledger.Item{}, &ledger.NotFoundError{Entity: "item", ID: id}
	}
	return it, nil
}

func (s *state) getBranch(id ledger.BranchID) (ledger.Branch, error) {
	b, ok := s.branches[id]
	if !ok {
		return ledger.Branch{}, &ledger.NotFoundError{Entity: "branch", ID: id}
	}
	return b, nil
}

func (s *state) findBranch(name string) (ledger.Branch, error) {
	for _, b := range s.branches {
		if b.Name == name {
			return b, nil
		}
	}
	return ledger.Branch{}, &ledger.NotFoundError{Entity: "branch", ID: name}
}

func (s *state) insertBranch(b ledger.Branch) (ledger.BranchID, error) {
	if _, err := s.findBranch(b.Name); err == nil {
		return 0, ledger.ErrDuplicate
	}
	s.nextBranch++
	b.ID = ledger.BranchID(s.nextBranch)
	s.branches[b.ID] = b
	return b.ID, nil
}

func (s *state) listBatches(f ledger.BatchFilter) []ledger.Batch {
	var out []ledger.Batch
	for _, b := range s.batches {
		if f.ItemID != nil && b.ItemID != *f.ItemID {
			continue
		}
		if f.BranchID != nil && b.BranchID != *f.BranchID {
			continue
		}
		if f.Year != nil && !f.Year.Matches(b.AcquisitionYear) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) clone() *state {
	c := &state{
		branches:     make(map[ledger.BranchID]ledger.Branch, len(s.branches)),
		items:        make(map[ledger.ItemID]ledger.Item, len(s.items)),
		batches:      append([]ledger.Batch(nil), s.batches...),
		transactions: append([]ledger.TransactionEvent(nil), s.transactions...),
		disposals:    append([]ledger.DisposalEvent(nil), s.disposals...),
		nextBranch:   s.nextBranch,
		nextItem:     s.nextItem,
		nextBatch:    s.nextBatch,
		nextTx:       s.nextTx,
		nextDisp:     s.nextDisp,
	}
	for k, v := range s.branches {
		c.branches[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.st.clone()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.st = snapshot
		return err
	}
	return nil
}

// txMemoryView runs against the parent's state while WithTx holds the lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) GetBatch(_ context.Context, id ledger.BatchID) (ledger.Batch, error) {
	return tv.parent.st.getBatch(id)
}

func (tv *txMemoryView) SumOutgoingTransactions(_ context.Context, id ledger.BatchID) (int64, error) {
	return tv.parent.st.sumTransactions(id), nil
}

func (tv *txMemoryView) SumDisposals(_ context.Context, id ledger.BatchID) (int64, error) {
	return tv.parent.st.sumDisposals(id), nil
}

func (tv *txMemoryView) FindCandidateBatches(_ context.Context, itemID ledger.ItemID, branchID ledger.BranchID, year ledger.Year) ([]ledger.BatchRef, error) {
	return tv.parent.st.candidates(itemID, branchID, year), nil
}

func (tv *txMemoryView) InsertTransaction(_ context.Context, ev ledger.TransactionEvent) (ledger.TransactionID, error) {
	if err := tv.parent.fault("transaction"); err != nil {
		return 0, err
	}
	return tv.parent.st.insertTransaction(ev)
}

func (tv *txMemoryView) InsertBatch(_ context.Context, b ledger.Batch) (ledger.BatchID, error) {
	if err := tv.parent.fault("batch"); err != nil {
		return 0, err
	}
	return tv.parent.st.insertBatch(b)
}

func (tv *txMemoryView) InsertDisposal(_ context.Context, ev ledger.DisposalEvent) (ledger.DisposalID, error) {
	if err := tv.parent.fault("disposal"); err != nil {
		return 0, err
	}
	return tv.parent.st.insertDisposal(ev)
}

func (tv *txMemoryView) GetItem(_ context.Context, id ledger.ItemID) (ledger.Item, error) {
	return tv.parent.st.getItem(id)
}

func (tv *txMemoryView) GetBranch(_ context.Context, id ledger.BranchID) (ledger.Branch, error) {
	return tv.parent.st.getBranch(id)
}

func (tv *txMemoryView) FindBranchByName(_ context.Context, name string) (ledger.Branch, error) {
	return tv.parent.st.findBranch(name)
}

func (tv *txMemoryView) InsertBranch(_ context.Context, b ledger.Branch) (ledger.BranchID, error) {
	return tv.parent.st.insertBranch(b)
}

func (tv *txMemoryView) ListBatches(_ context.Context, f ledger.BatchFilter) ([]ledger.Batch, error) {
	return tv.parent.st.listBatches(f), nil
}

func (tv *txMemoryView) ListTransactions(_ context.Context) ([]ledger.TransactionEvent, error) {
	return append([]ledger.TransactionEvent(nil), tv.parent.st.transactions...), nil
}

func (tv *txMemoryView) ListDisposals(_ context.Context) ([]ledger.DisposalEvent, error) {
	return append([]ledger.DisposalEvent(nil), tv.parent.st.disposals...), nil
}
