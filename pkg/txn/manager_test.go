package txn

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/graphd/pkg/adjacency"
	"github.com/cuemby/graphd/pkg/catalog"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/index"
	"github.com/cuemby/graphd/pkg/propstore"
	"github.com/cuemby/graphd/pkg/recordstore"
	"github.com/cuemby/graphd/pkg/wal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStores opens a fresh Stores bundle rooted at a temp directory,
// the same set of files pkg/engine.Open wires together, without the
// WAL redo or index rebuild step since the directory starts empty.
func newTestStores(t *testing.T) *Stores {
	t.Helper()
	dir := t.TempDir()

	cat, err := catalog.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	nodes, err := recordstore.OpenNodeStore(filepath.Join(dir, "nodes.store"), recordstore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { nodes.Close() })

	rels, err := recordstore.OpenRelationshipStore(filepath.Join(dir, "rels.store"), recordstore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { rels.Close() })

	props, err := propstore.Open(filepath.Join(dir, "props.store"), propstore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { props.Close() })

	adj, err := adjacency.Open(
		filepath.Join(dir, "adjacency.outgoing.store"),
		filepath.Join(dir, "adjacency.incoming.store"),
		adjacency.Options{},
	)
	require.NoError(t, err)
	t.Cleanup(func() { adj.Close() })

	w, err := wal.Open(filepath.Join(dir, "wal.log"))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	return &Stores{
		Catalog:    cat,
		Nodes:      nodes,
		Rels:       rels,
		Props:      props,
		Adjacency:  adj,
		Labels:     index.NewLabelIndex(),
		Properties: index.NewPropertyIndex(),
		Vectors:    make(map[graph.LabelId]index.VectorIndex),
		WAL:        w,
	}
}

func TestCommitAdvancesEpochAndPersistsCreatedNode(t *testing.T) {
	stores := newTestStores(t)
	mgr := NewManager(stores)

	require.Zero(t, mgr.Epoch())

	wtx, err := mgr.BeginWrite()
	require.NoError(t, err)
	id, err := wtx.CreateNode(nil, map[string]graph.PropertyValue{"name": graph.Str("alice")})
	require.NoError(t, err)

	epoch, err := mgr.Commit(wtx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)
	assert.Equal(t, uint64(1), mgr.Epoch())

	rtx := mgr.BeginRead()
	defer rtx.Close()
	rec, err := rtx.Stores.Nodes.GetNode(id)
	require.NoError(t, err)
	props, err := rtx.Stores.PropsAt(rec.PropPtr)
	require.NoError(t, err)
	assert.Equal(t, "alice", props["name"].Str)
}

func TestCommitOnAlreadyFinishedTransactionErrors(t *testing.T) {
	stores := newTestStores(t)
	mgr := NewManager(stores)

	wtx, err := mgr.BeginWrite()
	require.NoError(t, err)
	_, err = wtx.CreateNode(nil, nil)
	require.NoError(t, err)
	_, err = mgr.Commit(wtx)
	require.NoError(t, err)

	_, err = mgr.Commit(wtx)
	assert.Error(t, err)
}

func TestAbortRunsUndoStackInReverseAndLeavesEpochUnchanged(t *testing.T) {
	stores := newTestStores(t)
	mgr := NewManager(stores)

	wtx, err := mgr.BeginWrite()
	require.NoError(t, err)
	id, err := wtx.CreateNode([]graph.LabelId{1}, map[string]graph.PropertyValue{"k": graph.Str("v")})
	require.NoError(t, err)

	require.NoError(t, mgr.Abort(wtx))
	assert.Zero(t, mgr.Epoch())

	_, err = stores.Nodes.GetNode(id)
	assert.Error(t, err, "aborted CreateNode must leave no live node behind")
	assert.False(t, stores.Labels.Contains(1, id), "aborted CreateNode must leave no label index entry behind")
}

func TestAbortIsIdempotent(t *testing.T) {
	stores := newTestStores(t)
	mgr := NewManager(stores)

	wtx, err := mgr.BeginWrite()
	require.NoError(t, err)
	_, err = wtx.CreateNode(nil, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.Abort(wtx))
	require.NoError(t, mgr.Abort(wtx))
}

func TestAbortUndoesRelationshipCreationAndAdjacency(t *testing.T) {
	stores := newTestStores(t)
	mgr := NewManager(stores)

	wtx, err := mgr.BeginWrite()
	require.NoError(t, err)
	a, err := wtx.CreateNode(nil, nil)
	require.NoError(t, err)
	b, err := wtx.CreateNode(nil, nil)
	require.NoError(t, err)
	relID, err := wtx.CreateRelationship(1, a, b, nil)
	require.NoError(t, err)
	_, err = mgr.Commit(wtx)
	require.NoError(t, err)

	wtx2, err := mgr.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx2.DeleteRelationship(relID))
	require.NoError(t, mgr.Abort(wtx2))

	out, ok := stores.Adjacency.Get(a, 1, adjacency.Outgoing)
	require.True(t, ok)
	assert.Contains(t, out, relID, "aborted DeleteRelationship must restore the outgoing adjacency entry")
}

func TestWriterMutexSerializesWrites(t *testing.T) {
	stores := newTestStores(t)
	mgr := NewManager(stores)

	wtx1, err := mgr.BeginWrite()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		wtx2, err := mgr.BeginWrite()
		require.NoError(t, err)
		_, _ = mgr.Commit(wtx2)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second BeginWrite must block while the first transaction is open")
	default:
	}

	_, err = mgr.Commit(wtx1)
	require.NoError(t, err)
	<-done
}

func TestReadTxSnapshotUnaffectedByLaterCommit(t *testing.T) {
	stores := newTestStores(t)
	mgr := NewManager(stores)

	wtx, err := mgr.BeginWrite()
	require.NoError(t, err)
	_, err = wtx.CreateNode(nil, nil)
	require.NoError(t, err)
	_, err = mgr.Commit(wtx)
	require.NoError(t, err)

	rtx := mgr.BeginRead()
	defer rtx.Close()
	assert.Equal(t, uint64(1), rtx.Snapshot())

	wtx2, err := mgr.BeginWrite()
	require.NoError(t, err)
	_, err = wtx2.CreateNode(nil, nil)
	require.NoError(t, err)
	_, err = mgr.Commit(wtx2)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), rtx.Snapshot(), "a ReadTx's snapshot must never change after BeginRead")
	assert.Equal(t, uint64(2), mgr.Epoch())
}
