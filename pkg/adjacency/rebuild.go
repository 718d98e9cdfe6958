package adjacency

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/recordstore"
)

// RebuildNode walks node's authoritative relationship chain in the
// given record stores and rewrites every (type, direction) block this
// store has, or should have, for it: blocks for types the chain no
// longer holds are dropped. cmd/graphd-reindex calls it for every live
// node when rebuilding from scratch.
func RebuildNode(adj *Store, nodes *recordstore.NodeStore, rels *recordstore.RelationshipStore, node graph.NodeId) error {
	rec, err := nodes.GetNode(node)
	if err != nil {
		return err
	}
	if rec.Deleted {
		return nil
	}

	out := make(map[graph.TypeId][]graph.RelId)
	in := make(map[graph.TypeId][]graph.RelId)

	for relID := rec.FirstRel; relID != graph.InvalidRelId; {
		rel, err := rels.GetRelationship(relID)
		if err != nil {
			return err
		}
		if rel.Deleted {
			break
		}
		switch {
		case rel.Start == node && rel.End == node:
			// Self-loop: appears in both the outgoing and incoming chain
			// position for this node; record it in both directions.
			out[rel.Type] = append(out[rel.Type], relID)
			in[rel.Type] = append(in[rel.Type], relID)
			relID = rel.NextOut
		case rel.Start == node:
			out[rel.Type] = append(out[rel.Type], relID)
			relID = rel.NextOut
		case rel.End == node:
			in[rel.Type] = append(in[rel.Type], relID)
			relID = rel.NextIn
		default:
			return graph.New(graph.ErrStorage, "relationship %d in node %d's chain names neither endpoint", relID, node)
		}
	}

	for _, dir := range []Direction{Outgoing, Incoming} {
		for _, typ := range adj.Types(node, dir) {
			adj.Delete(node, typ, dir)
		}
	}
	for typ, relIDs := range out {
		if err := adj.Put(node, typ, Outgoing, relIDs); err != nil {
			return err
		}
	}
	for typ, relIDs := range in {
		if err := adj.Put(node, typ, Incoming, relIDs); err != nil {
			return err
		}
	}
	return nil
}
