package executor

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/recordstore"
	"github.com/cuemby/graphd/pkg/txn"
)

// loadNode materializes a NodeRef from a live node record, resolving
// its label bits to names through the catalog. Deleted nodes are
// reported as graph.ErrNotFound, the same way a stale adjacency or
// chain pointer into a tombstoned record should surface.
func loadNode(stores *txn.Stores, id graph.NodeId) (graph.NodeRef, error) {
	rec, err := stores.Nodes.GetNode(id)
	if err != nil {
		return graph.NodeRef{}, err
	}
	if rec.Deleted {
		return graph.NodeRef{}, graph.New(graph.ErrNotFound, "node %d not found", id)
	}
	return nodeRefFromRecord(stores, rec)
}

func nodeRefFromRecord(stores *txn.Stores, rec recordstore.NodeRecord) (graph.NodeRef, error) {
	labels := make([]string, 0, len(rec.Labels))
	for _, lid := range rec.Labels {
		if name, ok := stores.Catalog.LabelName(lid); ok {
			labels = append(labels, name)
		}
	}
	props, err := stores.PropsAt(rec.PropPtr)
	if err != nil {
		return graph.NodeRef{}, err
	}
	return graph.NodeRef{ID: rec.ID, Labels: labels, Properties: props}, nil
}

// loadRel materializes a RelRef from a live relationship record.
func loadRel(stores *txn.Stores, id graph.RelId) (graph.RelRef, error) {
	rec, err := stores.Rels.GetRelationship(id)
	if err != nil {
		return graph.RelRef{}, err
	}
	if rec.Deleted {
		return graph.RelRef{}, graph.New(graph.ErrNotFound, "relationship %d not found", id)
	}
	return relRefFromRecord(stores, rec)
}

func relRefFromRecord(stores *txn.Stores, rec recordstore.RelRecord) (graph.RelRef, error) {
	typeName, _ := stores.Catalog.TypeName(rec.Type)
	props, err := stores.PropsAt(rec.PropPtr)
	if err != nil {
		return graph.RelRef{}, err
	}
	return graph.RelRef{ID: rec.ID, Type: typeName, StartNode: rec.Start, EndNode: rec.End, Properties: props}, nil
}

// resolveLabels interns (via the catalog) every label name in names,
// used by Create/Merge/Set which only ever see label names from the
// AST, never pre-resolved ids.
func resolveLabels(stores *txn.Stores, names []string) ([]graph.LabelId, error) {
	out := make([]graph.LabelId, 0, len(names))
	for _, n := range names {
		id, err := stores.Catalog.Label(n)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
