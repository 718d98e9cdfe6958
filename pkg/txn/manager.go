package txn

import (
	"sync"
	"sync/atomic"

	"github.com/cuemby/graphd/pkg/graph"
)

// Manager coordinates read and write transactions over one Stores
// bundle, implementing the specification's MVCC-by-epoch contract.
type Manager struct {
	stores   *Stores
	epoch    atomic.Uint64
	writerMu sync.Mutex
}

// NewManager returns a Manager positioned at epoch 0, owning stores.
func NewManager(stores *Stores) *Manager {
	return &Manager{stores: stores}
}

// Epoch returns the current committed epoch.
func (m *Manager) Epoch() uint64 { return m.epoch.Load() }

// Stores exposes the underlying bundle for read-only ambient callers
// (e.g. Engine.Stats) that don't need transactional semantics.
func (m *Manager) Stores() *Stores { return m.stores }

// ReadTx is a snapshot read transaction. It is never blocked by, and
// never blocks, a concurrent writer.
type ReadTx struct {
	mgr      *Manager
	snapshot uint64
	Stores   *Stores
}

// BeginRead captures the current epoch and returns a read transaction
// over it.
func (m *Manager) BeginRead() *ReadTx {
	return &ReadTx{mgr: m, snapshot: m.epoch.Load(), Stores: m.stores}
}

// Snapshot returns the epoch this read transaction observes.
func (tx *ReadTx) Snapshot() uint64 { return tx.snapshot }

// Close releases tx's epoch claim. It is always safe to call, including
// multiple times; dropping a ReadTx without calling Close is equivalent
// per the specification's cancellation contract.
func (tx *ReadTx) Close() {}

// BeginWrite acquires the exclusive writer role and opens a WAL
// transaction, blocking until any other open WriteTx commits or
// aborts.
func (m *Manager) BeginWrite() (*WriteTx, error) {
	m.writerMu.Lock()
	lsn, err := m.stores.WAL.WriteBegin()
	if err != nil {
		m.writerMu.Unlock()
		return nil, err
	}
	return &WriteTx{
		mgr:      m,
		Stores:   m.stores,
		beginLSN: lsn,
	}, nil
}

// Commit durably records every mutation tx staged: it fsyncs a Commit
// WAL record and advances the global epoch, then releases the writer
// role. Commit must only be called once per WriteTx.
func (m *Manager) Commit(tx *WriteTx) (uint64, error) {
	defer m.writerMu.Unlock()
	if tx.done {
		return 0, graph.New(graph.ErrTransaction, "commit called on an already-finished transaction")
	}
	if _, err := m.stores.WAL.WriteCommit(); err != nil {
		return 0, err
	}
	tx.done = true
	epoch := m.epoch.Add(1)
	return epoch, nil
}

// Abort discards tx's staged mutations by replaying their undo actions
// in reverse order, fsyncs an Abort WAL record, and releases the
// writer role without advancing the epoch.
func (m *Manager) Abort(tx *WriteTx) error {
	defer m.writerMu.Unlock()
	if tx.done {
		return nil
	}
	for i := len(tx.undo) - 1; i >= 0; i-- {
		if err := tx.undo[i](); err != nil {
			return graph.Wrap(graph.ErrTransaction, err, "undo action %d during abort", i)
		}
	}
	tx.done = true
	_, err := m.stores.WAL.WriteAbort()
	return err
}
