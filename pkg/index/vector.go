package index

import (
	"math"
	"sort"
	"sync"

	"github.com/cuemby/graphd/pkg/graph"
)

// VectorIndex is the per-label nearest-neighbour interface pkg/txn's
// Stores holds and keeps up to date on writes; the planner has no KNN
// operator that searches it. BruteForce is the only implementation
// today; an HNSW or IVF index can be swapped in behind this interface,
// provided it preserves the "k nearest by ascending distance" contract.
type VectorIndex interface {
	Add(node graph.NodeId, vector []float32) error
	Remove(node graph.NodeId)
	Search(query []float32, k int) ([]graph.NodeId, []float32, error)
}

// BruteForce is a linear-scan VectorIndex: every Search walks every
// stored vector. Proportionate to the specification's scope, which
// specifies vector search as a feature but not a sublinear performance
// requirement.
type BruteForce struct {
	mu      sync.RWMutex
	vectors map[graph.NodeId][]float32
	dim     int
}

// NewBruteForce returns an empty vector index expecting vectors of dim
// dimensions; Add rejects vectors of any other length.
func NewBruteForce(dim int) *BruteForce {
	return &BruteForce{vectors: make(map[graph.NodeId][]float32), dim: dim}
}

// Add stores vector for node, replacing any previous vector for it.
func (b *BruteForce) Add(node graph.NodeId, vector []float32) error {
	if len(vector) != b.dim {
		return graph.New(graph.ErrTypeMismatch, "vector dimension %d does not match index dimension %d", len(vector), b.dim)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vectors[node] = vector
	return nil
}

// Remove drops node's vector from the index.
func (b *BruteForce) Remove(node graph.NodeId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.vectors, node)
}

type scored struct {
	node graph.NodeId
	dist float32
}

// Search returns up to k nodes with the smallest Euclidean distance to
// query, ascending.
func (b *BruteForce) Search(query []float32, k int) ([]graph.NodeId, []float32, error) {
	if len(query) != b.dim {
		return nil, nil, graph.New(graph.ErrTypeMismatch, "query vector dimension %d does not match index dimension %d", len(query), b.dim)
	}
	if k <= 0 {
		return nil, nil, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	results := make([]scored, 0, len(b.vectors))
	for node, vec := range b.vectors {
		results = append(results, scored{node: node, dist: euclidean(query, vec)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].dist < results[j].dist })

	if k > len(results) {
		k = len(results)
	}
	nodes := make([]graph.NodeId, k)
	dists := make([]float32, k)
	for i := 0; i < k; i++ {
		nodes[i] = results[i].node
		dists[i] = results[i].dist
	}
	return nodes, dists, nil
}

func euclidean(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
