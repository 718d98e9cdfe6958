package txn

import (
	"github.com/cuemby/graphd/pkg/adjacency"
	"github.com/cuemby/graphd/pkg/catalog"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/index"
	"github.com/cuemby/graphd/pkg/propstore"
	"github.com/cuemby/graphd/pkg/recordstore"
	"github.com/cuemby/graphd/pkg/wal"
)

// Stores bundles every storage subsystem a transaction reads or
// mutates. Exactly one Stores value exists per open Engine; ReadTx and
// WriteTx both reference it rather than owning private copies.
type Stores struct {
	Catalog    *catalog.Catalog
	Nodes      *recordstore.NodeStore
	Rels       *recordstore.RelationshipStore
	Props      *propstore.Store
	Adjacency  *adjacency.Store
	Labels     *index.LabelIndex
	Properties *index.PropertyIndex
	Vectors    map[graph.LabelId]index.VectorIndex
	WAL        *wal.WAL
}

// PropsAt decodes the property map stored at ptr, returning an empty
// (non-nil) map for graph.NoPropPtr rather than erroring, since "no
// properties" is a valid and common state for both nodes and rels.
func (s *Stores) PropsAt(ptr uint64) (map[string]graph.PropertyValue, error) {
	if ptr == graph.NoPropPtr {
		return map[string]graph.PropertyValue{}, nil
	}
	v, err := s.Props.Get(ptr)
	if err != nil {
		return nil, err
	}
	if v.Kind != graph.KindMap {
		return nil, graph.New(graph.ErrInternal, "property pointer %d does not decode to a map", ptr)
	}
	return v.Map, nil
}

// VectorIndexFor returns the vector index for label, creating a
// brute-force one lazily the first time a vector property is indexed
// for it.
func (s *Stores) VectorIndexFor(label graph.LabelId, dimension int) index.VectorIndex {
	if s.Vectors == nil {
		s.Vectors = make(map[graph.LabelId]index.VectorIndex)
	}
	vi, ok := s.Vectors[label]
	if !ok {
		vi = index.NewBruteForce(dimension)
		s.Vectors[label] = vi
	}
	return vi
}
