package txn

import (
	"github.com/cuemby/graphd/pkg/adjacency"
	"github.com/cuemby/graphd/pkg/graph"
)

// RebuildAdjacency walks every live node's relationship chain in Stores
// and rewrites the adjacency store's (node, type, direction) buckets
// from scratch, dropping every bucket a live node already had before
// writing the new ones. Unlike the label/property/vector indexes, which
// are pure derived state rebuilt on every Engine.Open, adjacency is
// itself durable and normally only needs the WAL redo's incremental
// chain splicing. This whole-store pass has no caller in the
// repository: cmd/graphd-reindex rebuilds node by node with
// adjacency.RebuildNode instead.
func RebuildAdjacency(stores *Stores) error {
	type bucketKey struct {
		node graph.NodeId
		typ  graph.TypeId
		dir  adjacency.Direction
	}
	buckets := make(map[bucketKey][]graph.RelId)

	for _, rawID := range stores.Nodes.LiveIDs() {
		node := graph.NodeId(rawID)
		for _, dir := range []adjacency.Direction{adjacency.Outgoing, adjacency.Incoming} {
			for _, typ := range stores.Adjacency.Types(node, dir) {
				stores.Adjacency.Delete(node, typ, dir)
			}
		}
		rels, err := incidentRelIDs(stores.Nodes, stores.Rels, node)
		if err != nil {
			return err
		}
		for _, relID := range rels {
			rrec, err := stores.Rels.GetRelationship(relID)
			if err != nil {
				return err
			}
			dir := adjacency.Outgoing
			if rrec.Start != node {
				dir = adjacency.Incoming
			}
			k := bucketKey{node: node, typ: rrec.Type, dir: dir}
			buckets[k] = append(buckets[k], relID)
		}
	}

	for k, ids := range buckets {
		if err := stores.Adjacency.Put(k.node, k.typ, k.dir, ids); err != nil {
			return err
		}
	}
	return nil
}
