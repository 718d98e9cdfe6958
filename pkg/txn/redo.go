package txn

import (
	"encoding/json"

	"github.com/cuemby/graphd/pkg/adjacency"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/recordstore"
	"github.com/cuemby/graphd/pkg/wal"
)

// Redo replays every committed command in the WAL at path against
// stores, recreating whatever a crash lost from the page cache before
// it reached the record/property/adjacency files. It is called once by
// pkg/engine's Open, before any ReadTx or WriteTx is handed out.
//
// Recovery is logical: each command is reapplied by id, gated on
// whether that id already has a slot in the target store (Allocated).
// A clean shutdown's mutations are already durable in the mmap'd
// files, so in the common case every gate is true and Redo is a no-op;
// it only does real work for the tail of commands a mid-write crash
// dropped. The label, property and vector indexes are deliberately left
// alone here — they are pure in-memory/derived structures rebuilt
// wholesale by pkg/engine's rebuildInMemoryIndexes right after Redo
// returns, which is simpler and strictly more thorough than threading
// incremental index maintenance through redo as well. Catalog live
// counters are not touched by Redo or by that rebuild.
func Redo(stores *Stores, path string) error {
	return wal.ReplayCommitted(path, func(rec wal.Record) error {
		return applyRedo(stores, rec)
	})
}

func applyRedo(stores *Stores, rec wal.Record) error {
	var cmd wal.Command
	if err := json.Unmarshal(rec.Payload, &cmd); err != nil {
		return graph.Wrap(graph.ErrWal, err, "decode wal command at lsn=%d", rec.LSN)
	}
	switch cmd.Op {
	case wal.OpCreateNode:
		var d wal.CreateNodeData
		if err := json.Unmarshal(cmd.Data, &d); err != nil {
			return graph.Wrap(graph.ErrWal, err, "decode create_node payload")
		}
		return redoCreateNode(stores, d)
	case wal.OpDeleteNode:
		var d wal.DeleteNodeData
		if err := json.Unmarshal(cmd.Data, &d); err != nil {
			return graph.Wrap(graph.ErrWal, err, "decode delete_node payload")
		}
		return redoDeleteNode(stores, d)
	case wal.OpSetNodeLabels:
		var d wal.SetNodeLabelsData
		if err := json.Unmarshal(cmd.Data, &d); err != nil {
			return graph.Wrap(graph.ErrWal, err, "decode set_node_labels payload")
		}
		if d.NodeID > graph.NodeId(stores.Nodes.Allocated()) {
			return nil
		}
		return stores.Nodes.SetLabels(d.NodeID, d.Labels)
	case wal.OpSetNodeProps:
		var d wal.SetNodePropsData
		if err := json.Unmarshal(cmd.Data, &d); err != nil {
			return graph.Wrap(graph.ErrWal, err, "decode set_node_props payload")
		}
		if d.NodeID > graph.NodeId(stores.Nodes.Allocated()) {
			return nil
		}
		return redoSetProps(stores, func(ptr uint64) error { return stores.Nodes.SetPropPtr(d.NodeID, ptr) }, d.Props)
	case wal.OpCreateRelationship:
		var d wal.CreateRelationshipData
		if err := json.Unmarshal(cmd.Data, &d); err != nil {
			return graph.Wrap(graph.ErrWal, err, "decode create_relationship payload")
		}
		return redoCreateRelationship(stores, d)
	case wal.OpDeleteRelationship:
		var d wal.DeleteRelationshipData
		if err := json.Unmarshal(cmd.Data, &d); err != nil {
			return graph.Wrap(graph.ErrWal, err, "decode delete_relationship payload")
		}
		return redoDeleteRelationship(stores, d)
	case wal.OpSetRelProps:
		var d wal.SetRelPropsData
		if err := json.Unmarshal(cmd.Data, &d); err != nil {
			return graph.Wrap(graph.ErrWal, err, "decode set_rel_props payload")
		}
		if d.RelID > graph.RelId(stores.Rels.Allocated()) {
			return nil
		}
		return redoSetProps(stores, func(ptr uint64) error { return stores.Rels.SetPropPtr(d.RelID, ptr) }, d.Props)
	default:
		return graph.New(graph.ErrWal, "unknown wal command op %q", cmd.Op)
	}
}

func redoSetProps(stores *Stores, setPtr func(uint64) error, props map[string]graph.PropertyValue) error {
	var ptr uint64
	if len(props) > 0 {
		p, err := stores.Props.Put(graph.Map(props))
		if err != nil {
			return err
		}
		ptr = p
	}
	return setPtr(ptr)
}

func redoCreateNode(stores *Stores, d wal.CreateNodeData) error {
	if d.NodeID <= graph.NodeId(stores.Nodes.Allocated()) {
		return nil
	}
	rec := recordstore.NodeRecord{ID: d.NodeID, Labels: d.Labels, FirstRel: graph.InvalidRelId, PropPtr: graph.NoPropPtr}
	if len(d.Props) > 0 {
		ptr, err := stores.Props.Put(graph.Map(d.Props))
		if err != nil {
			return err
		}
		rec.PropPtr = ptr
	}
	if err := stores.Nodes.PutNode(rec); err != nil {
		return err
	}
	stores.Nodes.BumpNextID(uint64(d.NodeID) + 1)
	return nil
}

func redoDeleteNode(stores *Stores, d wal.DeleteNodeData) error {
	if d.NodeID > graph.NodeId(stores.Nodes.Allocated()) {
		return nil
	}
	rec, err := stores.Nodes.GetNode(d.NodeID)
	if err != nil || rec.Deleted {
		return nil
	}
	return stores.Nodes.DeleteNode(d.NodeID)
}

func redoCreateRelationship(stores *Stores, d wal.CreateRelationshipData) error {
	if d.RelID <= graph.RelId(stores.Rels.Allocated()) {
		return nil
	}
	rec := recordstore.RelRecord{
		ID: d.RelID, Type: d.Type, Start: d.Start, End: d.End,
		PropPtr: graph.NoPropPtr,
		NextOut: graph.InvalidRelId, PrevOut: graph.InvalidRelId,
		NextIn: graph.InvalidRelId, PrevIn: graph.InvalidRelId,
	}
	if len(d.Props) > 0 {
		ptr, err := stores.Props.Put(graph.Map(d.Props))
		if err != nil {
			return err
		}
		rec.PropPtr = ptr
	}
	if err := stores.Rels.PutRelationship(rec); err != nil {
		return err
	}
	stores.Rels.BumpNextID(uint64(d.RelID) + 1)

	if err := spliceIntoChain(stores.Nodes, stores.Rels, d.Start, d.RelID); err != nil {
		return err
	}
	if d.End != d.Start {
		if err := spliceIntoChain(stores.Nodes, stores.Rels, d.End, d.RelID); err != nil {
			return err
		}
	}
	if err := addAdjacencyRedo(stores.Adjacency, d.Start, d.Type, adjacency.Outgoing, d.RelID); err != nil {
		return err
	}
	return addAdjacencyRedo(stores.Adjacency, d.End, d.Type, adjacency.Incoming, d.RelID)
}

func redoDeleteRelationship(stores *Stores, d wal.DeleteRelationshipData) error {
	if d.RelID > graph.RelId(stores.Rels.Allocated()) {
		return nil
	}
	rec, err := stores.Rels.GetRelationship(d.RelID)
	if err != nil || rec.Deleted {
		return nil
	}
	if err := unspliceFromChain(stores.Nodes, stores.Rels, rec.Start, d.RelID); err != nil {
		return err
	}
	if rec.End != rec.Start {
		if err := unspliceFromChain(stores.Nodes, stores.Rels, rec.End, d.RelID); err != nil {
			return err
		}
	}
	if err := removeAdjacencyRedo(stores.Adjacency, rec.Start, rec.Type, adjacency.Outgoing, d.RelID); err != nil {
		return err
	}
	if err := removeAdjacencyRedo(stores.Adjacency, rec.End, rec.Type, adjacency.Incoming, d.RelID); err != nil {
		return err
	}
	return stores.Rels.DeleteRelationship(d.RelID)
}

func addAdjacencyRedo(adj *adjacency.Store, node graph.NodeId, typ graph.TypeId, dir adjacency.Direction, relID graph.RelId) error {
	existing, _ := adj.Get(node, typ, dir)
	for _, r := range existing {
		if r == relID {
			return nil
		}
	}
	return adj.Put(node, typ, dir, append(existing, relID))
}

func removeAdjacencyRedo(adj *adjacency.Store, node graph.NodeId, typ graph.TypeId, dir adjacency.Direction, relID graph.RelId) error {
	existing, ok := adj.Get(node, typ, dir)
	if !ok {
		return nil
	}
	out := make([]graph.RelId, 0, len(existing))
	for _, r := range existing {
		if r != relID {
			out = append(out, r)
		}
	}
	return adj.Put(node, typ, dir, out)
}
