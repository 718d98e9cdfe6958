package adjacency

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildNodeRecoversBlocksFromRelationshipChain(t *testing.T) {
	dir := t.TempDir()
	nodes, err := recordstore.OpenNodeStore(filepath.Join(dir, "nodes.db"), recordstore.Options{})
	require.NoError(t, err)
	defer nodes.Close()
	rels, err := recordstore.OpenRelationshipStore(filepath.Join(dir, "rels.db"), recordstore.Options{})
	require.NoError(t, err)
	defer rels.Close()
	adj, err := Open(filepath.Join(dir, "adj.outgoing.db"), filepath.Join(dir, "adj.incoming.db"), Options{})
	require.NoError(t, err)
	defer adj.Close()

	a, err := nodes.CreateNode([]graph.LabelId{1})
	require.NoError(t, err)
	b, err := nodes.CreateNode([]graph.LabelId{1})
	require.NoError(t, err)

	r1, err := rels.CreateRelationship(9, a, b)
	require.NoError(t, err)
	r2, err := rels.CreateRelationship(9, a, b)
	require.NoError(t, err)

	// Splice r1, r2 into a's outgoing chain and b's incoming chain by
	// hand, the way pkg/txn's write path will.
	rec1, err := rels.GetRelationship(r1)
	require.NoError(t, err)
	rec1.NextOut = r2
	require.NoError(t, rels.PutRelationship(rec1))
	require.NoError(t, nodes.SetFirstRel(a, r1))
	require.NoError(t, nodes.SetFirstRel(b, r1))

	rec2, err := rels.GetRelationship(r2)
	require.NoError(t, err)
	rec2.NextIn = graph.InvalidRelId
	require.NoError(t, rels.PutRelationship(rec2))
	recB1, err := rels.GetRelationship(r1)
	require.NoError(t, err)
	recB1.NextIn = r2
	require.NoError(t, rels.PutRelationship(recB1))

	require.NoError(t, RebuildNode(adj, nodes, rels, a))
	require.NoError(t, RebuildNode(adj, nodes, rels, b))

	outA, ok := adj.Get(a, 9, Outgoing)
	require.True(t, ok)
	assert.ElementsMatch(t, []graph.RelId{r1, r2}, outA)

	inB, ok := adj.Get(b, 9, Incoming)
	require.True(t, ok)
	assert.ElementsMatch(t, []graph.RelId{r1, r2}, inB)
}

func TestRebuildNodeSkipsDeletedNode(t *testing.T) {
	dir := t.TempDir()
	nodes, err := recordstore.OpenNodeStore(filepath.Join(dir, "nodes.db"), recordstore.Options{})
	require.NoError(t, err)
	defer nodes.Close()
	rels, err := recordstore.OpenRelationshipStore(filepath.Join(dir, "rels.db"), recordstore.Options{})
	require.NoError(t, err)
	defer rels.Close()
	adj, err := Open(filepath.Join(dir, "adj.outgoing.db"), filepath.Join(dir, "adj.incoming.db"), Options{})
	require.NoError(t, err)
	defer adj.Close()

	a, err := nodes.CreateNode(nil)
	require.NoError(t, err)
	require.NoError(t, nodes.DeleteNode(a))

	require.NoError(t, RebuildNode(adj, nodes, rels, a))
	_, ok := adj.Get(a, 0, Outgoing)
	assert.False(t, ok)
}
