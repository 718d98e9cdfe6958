package engine

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/txn"
)

// rebuildInMemoryIndexes reconstructs the label bitmap index, the
// property index and the vector/KNN index from the live node records.
// None of the three is ever persisted — they are pure derived state —
// so Open rebuilds them unconditionally on every start rather than
// trying to detect whether the previous shutdown was clean. This is
// cheap relative to WAL redo and sidesteps having to reason about
// double-counting a partially-applied incremental rebuild.
//
// The adjacency store is not rebuilt here: unlike the indexes it is
// itself durable and already covered by txn.Redo's chain splicing, so
// a full walk of every node's relationship chain is reserved for
// cmd/graphd-reindex's explicit recovery path rather than paid on
// every Open.
func rebuildInMemoryIndexes(stores *txn.Stores) error {
	for _, rawID := range stores.Nodes.LiveIDs() {
		nodeID := graph.NodeId(rawID)
		rec, err := stores.Nodes.GetNode(nodeID)
		if err != nil {
			return err
		}
		if rec.Deleted {
			continue
		}
		for _, lbl := range rec.Labels {
			stores.Labels.Add(lbl, nodeID)
		}

		props, err := stores.PropsAt(rec.PropPtr)
		if err != nil {
			return err
		}
		if len(props) == 0 {
			continue
		}

		for _, lbl := range rec.Labels {
			labelName, ok := stores.Catalog.LabelName(lbl)
			if !ok {
				continue
			}
			for keyName, v := range props {
				if v.IsNull() {
					continue
				}
				has, err := stores.Catalog.HasIndexDDL(labelName, keyName)
				if err != nil {
					return err
				}
				if !has {
					continue
				}
				keyID, err := stores.Catalog.Key(keyName)
				if err != nil {
					return err
				}
				stores.Properties.Insert(lbl, keyID, v, nodeID)
			}
		}

		for _, v := range props {
			if v.Kind != graph.KindVector {
				continue
			}
			for _, lbl := range rec.Labels {
				_ = stores.VectorIndexFor(lbl, len(v.Vector)).Add(nodeID, v.Vector)
			}
		}
	}
	return nil
}

// Stats summarizes one open engine for db.stats()-style reporting and
// for cmd/graphd's status output.
type Stats struct {
	Epoch               uint64
	AllocatedNodes      uint64
	LiveNodes           uint64
	AllocatedRels       uint64
	LiveRels            uint64
	PropertyOrphanBytes uint64
	PropertyStoreBytes  int64
	PlanCache           CacheStats
}

// CacheStats mirrors planner.Stats in the façade's own vocabulary so
// callers outside pkg/planner never need to import it just to print a
// status line.
type CacheStats struct {
	Lookups     uint64
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
	CachedPlans int
}

// Stats snapshots the engine's current counters. It takes no lock
// beyond what each underlying store already uses internally, so it may
// observe a mix of counters from slightly different instants under
// concurrent writes — acceptable for a monitoring signal.
func (e *Engine) Stats() Stats {
	allocNodes, liveNodes := e.stores.Nodes.Count()
	allocRels, liveRels := e.stores.Rels.Count()
	cs := e.planner.Cache.Stats()
	return Stats{
		Epoch:               e.mgr.Epoch(),
		AllocatedNodes:      allocNodes,
		LiveNodes:           liveNodes,
		AllocatedRels:       allocRels,
		LiveRels:            liveRels,
		PropertyOrphanBytes: e.stores.Props.OrphanedBytes(),
		PropertyStoreBytes:  e.stores.Props.Size(),
		PlanCache: CacheStats{
			Lookups:     cs.Lookups,
			Hits:        cs.Hits,
			Misses:      cs.Misses,
			Evictions:   cs.Evictions,
			Expirations: cs.Expirations,
			CachedPlans: cs.CachedPlans,
		},
	}
}
