package index

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/cuemby/graphd/pkg/graph"
)

// LabelIndex maps each interned label to the set of nodes currently
// carrying it.
type LabelIndex struct {
	mu      sync.RWMutex
	bitmaps map[graph.LabelId]*roaring64.Bitmap
}

// NewLabelIndex returns an empty label index.
func NewLabelIndex() *LabelIndex {
	return &LabelIndex{bitmaps: make(map[graph.LabelId]*roaring64.Bitmap)}
}

func (idx *LabelIndex) bitmapFor(label graph.LabelId) *roaring64.Bitmap {
	b, ok := idx.bitmaps[label]
	if !ok {
		b = roaring64.New()
		idx.bitmaps[label] = b
	}
	return b
}

// Add records that node carries label.
func (idx *LabelIndex) Add(label graph.LabelId, node graph.NodeId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.bitmapFor(label).Add(uint64(node))
}

// Remove records that node no longer carries label.
func (idx *LabelIndex) Remove(label graph.LabelId, node graph.NodeId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if b, ok := idx.bitmaps[label]; ok {
		b.Remove(uint64(node))
	}
}

// Nodes returns every node currently carrying label, in ascending id
// order.
func (idx *LabelIndex) Nodes(label graph.LabelId) []graph.NodeId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.bitmaps[label]
	if !ok {
		return nil
	}
	raw := b.ToArray()
	out := make([]graph.NodeId, len(raw))
	for i, v := range raw {
		out[i] = graph.NodeId(v)
	}
	return out
}

// Contains reports whether node carries label.
func (idx *LabelIndex) Contains(label graph.LabelId, node graph.NodeId) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.bitmaps[label]
	if !ok {
		return false
	}
	return b.Contains(uint64(node))
}

// Cardinality returns the number of nodes carrying label.
func (idx *LabelIndex) Cardinality(label graph.LabelId) uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.bitmaps[label]
	if !ok {
		return 0
	}
	return b.GetCardinality()
}

// Intersect returns the nodes carrying every label in labels, as a
// multi-label pattern like (n:Person:Employee) needs. The planner does
// not call it; it lowers extra labels to hasLabel filters instead.
func (idx *LabelIndex) Intersect(labels []graph.LabelId) []graph.NodeId {
	if len(labels) == 0 {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	first, ok := idx.bitmaps[labels[0]]
	if !ok {
		return nil
	}
	result := first.Clone()
	for _, l := range labels[1:] {
		b, ok := idx.bitmaps[l]
		if !ok {
			return nil
		}
		result.And(b)
	}
	raw := result.ToArray()
	out := make([]graph.NodeId, len(raw))
	for i, v := range raw {
		out[i] = graph.NodeId(v)
	}
	return out
}
