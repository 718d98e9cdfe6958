package recordstore

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdZeroIsReservedAndNeverAllocated(t *testing.T) {
	ns, err := OpenNodeStore(filepath.Join(t.TempDir(), "nodes.db"), Options{})
	require.NoError(t, err)
	defer ns.Close()

	id, err := ns.CreateNode(nil)
	require.NoError(t, err)
	assert.NotEqual(t, graph.InvalidNodeId, id)
	assert.Equal(t, graph.NodeId(1), id)
}

func TestNodeCreateGetSetRoundTrip(t *testing.T) {
	ns, err := OpenNodeStore(filepath.Join(t.TempDir(), "nodes.db"), Options{})
	require.NoError(t, err)
	defer ns.Close()

	id, err := ns.CreateNode([]graph.LabelId{1, 2})
	require.NoError(t, err)

	rec, err := ns.GetNode(id)
	require.NoError(t, err)
	assert.Equal(t, []graph.LabelId{1, 2}, rec.Labels)
	assert.Equal(t, graph.InvalidRelId, rec.FirstRel)
	assert.Equal(t, graph.NoPropPtr, rec.PropPtr)
	assert.False(t, rec.Deleted)

	require.NoError(t, ns.SetFirstRel(id, 7))
	require.NoError(t, ns.SetPropPtr(id, 128))
	require.NoError(t, ns.SetLabels(id, []graph.LabelId{3}))

	rec, err = ns.GetNode(id)
	require.NoError(t, err)
	assert.Equal(t, graph.RelId(7), rec.FirstRel)
	assert.Equal(t, uint64(128), rec.PropPtr)
	assert.Equal(t, []graph.LabelId{3}, rec.Labels)
}

func TestNodeDeleteTombstonesWithoutRecyclingId(t *testing.T) {
	ns, err := OpenNodeStore(filepath.Join(t.TempDir(), "nodes.db"), Options{})
	require.NoError(t, err)
	defer ns.Close()

	id, err := ns.CreateNode(nil)
	require.NoError(t, err)
	require.NoError(t, ns.DeleteNode(id))

	assert.True(t, ns.IsDeleted(uint64(id)))

	next, err := ns.CreateNode(nil)
	require.NoError(t, err)
	assert.NotEqual(t, id, next)

	_, live := ns.Count()
	assert.Equal(t, uint64(1), live)
}

func TestRelationshipCreateAndChainPointers(t *testing.T) {
	rs, err := OpenRelationshipStore(filepath.Join(t.TempDir(), "rels.db"), Options{})
	require.NoError(t, err)
	defer rs.Close()

	id, err := rs.CreateRelationship(5, 1, 2)
	require.NoError(t, err)

	rec, err := rs.GetRelationship(id)
	require.NoError(t, err)
	assert.Equal(t, graph.TypeId(5), rec.Type)
	assert.Equal(t, graph.NodeId(1), rec.Start)
	assert.Equal(t, graph.NodeId(2), rec.End)
	assert.Equal(t, graph.InvalidRelId, rec.NextOut)

	rec.NextOut = 42
	rec.PrevIn = 7
	require.NoError(t, rs.PutRelationship(rec))

	got, err := rs.GetRelationship(id)
	require.NoError(t, err)
	assert.Equal(t, graph.RelId(42), got.NextOut)
	assert.Equal(t, graph.RelId(7), got.PrevIn)
}

func TestRecordStoreGrowsAcrossInitialCapacity(t *testing.T) {
	ns, err := OpenNodeStore(filepath.Join(t.TempDir(), "nodes.db"), Options{MinGrowthBytes: 4096})
	require.NoError(t, err)
	defer ns.Close()

	var last graph.NodeId
	for i := 0; i < 2000; i++ {
		id, err := ns.CreateNode(nil)
		require.NoError(t, err)
		last = id
	}
	rec, err := ns.GetNode(last)
	require.NoError(t, err)
	assert.Equal(t, last, rec.ID)
}

func TestRecordStorePersistsTombstonesAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.db")

	ns1, err := OpenNodeStore(path, Options{})
	require.NoError(t, err)
	id, err := ns1.CreateNode([]graph.LabelId{9})
	require.NoError(t, err)
	require.NoError(t, ns1.DeleteNode(id))
	require.NoError(t, ns1.Sync())
	require.NoError(t, ns1.Close())

	ns2, err := OpenNodeStore(path, Options{})
	require.NoError(t, err)
	defer ns2.Close()

	assert.True(t, ns2.IsDeleted(uint64(id)))
	_, live := ns2.Count()
	assert.Equal(t, uint64(0), live)
}
