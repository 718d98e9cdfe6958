package index

import (
	"sort"
	"sync"

	"github.com/cuemby/graphd/pkg/graph"
)

// entry is one (value, node) pair held by a PropertyIndex bucket,
// kept sorted by value so equality is a binary search and range scans
// are a contiguous slice.
type entry struct {
	value graph.PropertyValue
	node  graph.NodeId
}

type bucketKey struct {
	label graph.LabelId
	key   graph.KeyId
}

// PropertyIndex answers equality and range lookups for one (label, key)
// pair at a time, across Integer, Float and String property values.
type PropertyIndex struct {
	mu      sync.RWMutex
	buckets map[bucketKey][]entry
}

// NewPropertyIndex returns an empty property index.
func NewPropertyIndex() *PropertyIndex {
	return &PropertyIndex{buckets: make(map[bucketKey][]entry)}
}

func less(a, b graph.PropertyValue) bool {
	if c, ok := graph.Compare(a, b); ok {
		return c < 0
	}
	return false
}

// Insert adds (value, node) to the (label, key) bucket, maintaining
// sort order.
func (idx *PropertyIndex) Insert(label graph.LabelId, key graph.KeyId, value graph.PropertyValue, node graph.NodeId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	bk := bucketKey{label, key}
	bucket := idx.buckets[bk]
	pos := sort.Search(len(bucket), func(i int) bool { return !less(bucket[i].value, value) })
	bucket = append(bucket, entry{})
	copy(bucket[pos+1:], bucket[pos:])
	bucket[pos] = entry{value: value, node: node}
	idx.buckets[bk] = bucket
}

// Delete removes (value, node) from the (label, key) bucket.
func (idx *PropertyIndex) Delete(label graph.LabelId, key graph.KeyId, value graph.PropertyValue, node graph.NodeId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	bk := bucketKey{label, key}
	bucket := idx.buckets[bk]
	for i, e := range bucket {
		if e.node == node && graph.Equal(e.value, value).Truthy() {
			idx.buckets[bk] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// Equals returns every node in (label, key)'s bucket whose value equals
// target.
func (idx *PropertyIndex) Equals(label graph.LabelId, key graph.KeyId, target graph.PropertyValue) []graph.NodeId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bucket := idx.buckets[bucketKey{label, key}]
	lo := sort.Search(len(bucket), func(i int) bool { return !less(bucket[i].value, target) })
	var out []graph.NodeId
	for i := lo; i < len(bucket) && graph.Equal(bucket[i].value, target).Truthy(); i++ {
		out = append(out, bucket[i].node)
	}
	return out
}

// Range returns every node in (label, key)'s bucket whose value falls
// within [lo, hi]; either bound may be the zero PropertyValue (Null) to
// mean unbounded on that side.
func (idx *PropertyIndex) Range(label graph.LabelId, key graph.KeyId, lo, hi graph.PropertyValue, loInclusive, hiInclusive bool) []graph.NodeId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bucket := idx.buckets[bucketKey{label, key}]
	start := 0
	if !lo.IsNull() {
		start = sort.Search(len(bucket), func(i int) bool {
			if loInclusive {
				return !less(bucket[i].value, lo)
			}
			c, _ := graph.Compare(bucket[i].value, lo)
			return c > 0
		})
	}

	var out []graph.NodeId
	for i := start; i < len(bucket); i++ {
		if !hi.IsNull() {
			c, ok := graph.Compare(bucket[i].value, hi)
			if !ok {
				continue
			}
			if hiInclusive && c > 0 {
				break
			}
			if !hiInclusive && c >= 0 {
				break
			}
		}
		out = append(out, bucket[i].node)
	}
	return out
}
