package index

import (
	"testing"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelIndexAddRemoveAndIntersect(t *testing.T) {
	idx := NewLabelIndex()
	idx.Add(1, 10)
	idx.Add(1, 11)
	idx.Add(2, 11)
	idx.Add(2, 12)

	assert.ElementsMatch(t, []graph.NodeId{10, 11}, idx.Nodes(1))
	assert.True(t, idx.Contains(1, 10))
	assert.False(t, idx.Contains(1, 12))
	assert.Equal(t, uint64(2), idx.Cardinality(1))

	assert.ElementsMatch(t, []graph.NodeId{11}, idx.Intersect([]graph.LabelId{1, 2}))

	idx.Remove(1, 11)
	assert.ElementsMatch(t, []graph.NodeId{10}, idx.Nodes(1))
}

func TestLabelIndexIntersectWithUnknownLabelIsEmpty(t *testing.T) {
	idx := NewLabelIndex()
	idx.Add(1, 10)
	assert.Empty(t, idx.Intersect([]graph.LabelId{1, 99}))
}

func TestPropertyIndexEquals(t *testing.T) {
	idx := NewPropertyIndex()
	idx.Insert(1, 1, graph.I64(30), 100)
	idx.Insert(1, 1, graph.I64(25), 101)
	idx.Insert(1, 1, graph.I64(30), 102)

	got := idx.Equals(1, 1, graph.I64(30))
	assert.ElementsMatch(t, []graph.NodeId{100, 102}, got)

	assert.Empty(t, idx.Equals(1, 1, graph.I64(999)))
}

func TestPropertyIndexRangeInclusiveAndExclusive(t *testing.T) {
	idx := NewPropertyIndex()
	for i, age := range []int64{18, 21, 25, 30, 40} {
		idx.Insert(1, 1, graph.I64(age), graph.NodeId(100+i))
	}

	inclusive := idx.Range(1, 1, graph.I64(21), graph.I64(30), true, true)
	assert.Len(t, inclusive, 3)

	exclusive := idx.Range(1, 1, graph.I64(21), graph.I64(30), false, false)
	assert.Len(t, exclusive, 1)

	unboundedAbove := idx.Range(1, 1, graph.I64(30), graph.Null(), true, true)
	assert.Len(t, unboundedAbove, 2)
}

func TestPropertyIndexDeleteRemovesExactEntry(t *testing.T) {
	idx := NewPropertyIndex()
	idx.Insert(1, 1, graph.Str("alice"), 100)
	idx.Insert(1, 1, graph.Str("alice"), 101)

	idx.Delete(1, 1, graph.Str("alice"), 100)
	got := idx.Equals(1, 1, graph.Str("alice"))
	assert.Equal(t, []graph.NodeId{101}, got)
}

func TestBruteForceVectorSearchReturnsNearestAscending(t *testing.T) {
	idx := NewBruteForce(2)
	require.NoError(t, idx.Add(1, []float32{0, 0}))
	require.NoError(t, idx.Add(2, []float32{1, 0}))
	require.NoError(t, idx.Add(3, []float32{5, 5}))

	nodes, dists, err := idx.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, graph.NodeId(1), nodes[0])
	assert.Equal(t, graph.NodeId(2), nodes[1])
	assert.Less(t, dists[0], dists[1])
}

func TestBruteForceVectorRejectsDimensionMismatch(t *testing.T) {
	idx := NewBruteForce(3)
	err := idx.Add(1, []float32{1, 2})
	assert.Error(t, err)
	assert.Equal(t, graph.ErrTypeMismatch, graph.KindOf(err))
}

func TestBruteForceRemove(t *testing.T) {
	idx := NewBruteForce(1)
	require.NoError(t, idx.Add(1, []float32{0}))
	idx.Remove(1)
	nodes, _, err := idx.Search([]float32{0}, 5)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
