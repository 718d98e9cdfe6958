package txn

import (
	"github.com/cuemby/graphd/pkg/adjacency"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/recordstore"
	"github.com/cuemby/graphd/pkg/wal"
)

// WriteTx is the single in-flight write transaction. Its mutation
// methods apply eagerly to the stores (see package doc) and append an
// undo closure so Abort can compensate.
type WriteTx struct {
	mgr      *Manager
	Stores   *Stores
	beginLSN uint64
	done     bool
	undo     []func() error
}

func (tx *WriteTx) writeCommand(op wal.Op, data any) error {
	payload, err := wal.Marshal(op, data)
	if err != nil {
		return err
	}
	_, err = tx.Stores.WAL.WriteCommand(payload)
	return err
}

// CreateNode allocates a node carrying labels and props, updating the
// label index, catalog counters and property index in the same step.
func (tx *WriteTx) CreateNode(labels []graph.LabelId, props map[string]graph.PropertyValue) (graph.NodeId, error) {
	id, err := tx.Stores.Nodes.CreateNode(labels)
	if err != nil {
		return 0, err
	}

	if len(props) > 0 {
		ptr, err := tx.Stores.Props.Put(graph.Map(props))
		if err != nil {
			return 0, err
		}
		if err := tx.Stores.Nodes.SetPropPtr(id, ptr); err != nil {
			return 0, err
		}
	}

	for _, lbl := range labels {
		tx.Stores.Labels.Add(lbl, id)
		if err := tx.Stores.Catalog.IncrLabelLive(lbl, 1); err != nil {
			return 0, err
		}
	}
	if err := tx.maintainPropertyIndex(id, labels, nil, props); err != nil {
		return 0, err
	}
	tx.maintainVectorIndex(id, labels, props)

	if err := tx.writeCommand(wal.OpCreateNode, wal.CreateNodeData{NodeID: id, Labels: labels, Props: props}); err != nil {
		return 0, err
	}

	tx.undo = append(tx.undo, func() error {
		for _, lbl := range labels {
			tx.Stores.Labels.Remove(lbl, id)
			tx.Stores.Catalog.IncrLabelLive(lbl, -1)
		}
		tx.maintainPropertyIndex(id, labels, props, nil)
		return tx.Stores.Nodes.DeleteNode(id)
	})
	return id, nil
}

// DeleteNode tombstones a node with no remaining relationships. Use
// DetachDeleteNode when relationships must be removed first.
func (tx *WriteTx) DeleteNode(id graph.NodeId) error {
	rec, err := tx.Stores.Nodes.GetNode(id)
	if err != nil {
		return err
	}
	if rec.FirstRel != graph.InvalidRelId {
		return graph.New(graph.ErrCypherExecution, "node %d still has relationships; use DETACH DELETE", id)
	}
	return tx.deleteNodeRecord(id, rec)
}

// DetachDeleteNode deletes every relationship incident to id, then id
// itself, as a single staged operation so a crash mid-way never leaves
// a dangling adjacency entry observable after recovery (see
// DESIGN.md's DetachDelete Open Question resolution).
func (tx *WriteTx) DetachDeleteNode(id graph.NodeId) error {
	relIDs, err := incidentRelIDs(tx.Stores.Nodes, tx.Stores.Rels, id)
	if err != nil {
		return err
	}
	for _, relID := range relIDs {
		if err := tx.DeleteRelationship(relID); err != nil {
			return err
		}
	}
	rec, err := tx.Stores.Nodes.GetNode(id)
	if err != nil {
		return err
	}
	return tx.deleteNodeRecord(id, rec)
}

func (tx *WriteTx) deleteNodeRecord(id graph.NodeId, rec recordstore.NodeRecord) error {
	labels := rec.Labels
	props, err := tx.Stores.PropsAt(rec.PropPtr)
	if err != nil {
		return err
	}

	for _, lbl := range labels {
		tx.Stores.Labels.Remove(lbl, id)
		if err := tx.Stores.Catalog.IncrLabelLive(lbl, -1); err != nil {
			return err
		}
	}
	if err := tx.maintainPropertyIndex(id, labels, props, nil); err != nil {
		return err
	}
	if rec.PropPtr != graph.NoPropPtr {
		if err := tx.Stores.Props.Free(rec.PropPtr); err != nil {
			return err
		}
	}
	if err := tx.Stores.Nodes.DeleteNode(id); err != nil {
		return err
	}
	if err := tx.writeCommand(wal.OpDeleteNode, wal.DeleteNodeData{NodeID: id}); err != nil {
		return err
	}

	tx.undo = append(tx.undo, func() error {
		for _, lbl := range labels {
			tx.Stores.Labels.Add(lbl, id)
			tx.Stores.Catalog.IncrLabelLive(lbl, 1)
		}
		tx.maintainPropertyIndex(id, labels, nil, props)
		return tx.Stores.Nodes.ClearDeleted(uint64(id))
	})
	return nil
}

// SetNodeLabels overwrites id's label set and keeps the label index,
// per-label counters and property index consistent with the change.
func (tx *WriteTx) SetNodeLabels(id graph.NodeId, newLabels []graph.LabelId) error {
	rec, err := tx.Stores.Nodes.GetNode(id)
	if err != nil {
		return err
	}
	oldLabels := rec.Labels
	props, err := tx.Stores.PropsAt(rec.PropPtr)
	if err != nil {
		return err
	}

	oldSet := labelSet(oldLabels)
	newSet := labelSet(newLabels)
	for lbl := range oldSet {
		if !newSet[lbl] {
			tx.Stores.Labels.Remove(lbl, id)
			tx.Stores.Catalog.IncrLabelLive(lbl, -1)
			tx.maintainPropertyIndex(id, []graph.LabelId{lbl}, props, nil)
		}
	}
	for lbl := range newSet {
		if !oldSet[lbl] {
			tx.Stores.Labels.Add(lbl, id)
			tx.Stores.Catalog.IncrLabelLive(lbl, 1)
			tx.maintainPropertyIndex(id, []graph.LabelId{lbl}, nil, props)
		}
	}
	if err := tx.Stores.Nodes.SetLabels(id, newLabels); err != nil {
		return err
	}
	if err := tx.writeCommand(wal.OpSetNodeLabels, wal.SetNodeLabelsData{NodeID: id, Labels: newLabels}); err != nil {
		return err
	}

	tx.undo = append(tx.undo, func() error {
		return tx.Stores.Nodes.SetLabels(id, oldLabels)
	})
	return nil
}

// SetNodeProps replaces id's entire property map with newProps.
func (tx *WriteTx) SetNodeProps(id graph.NodeId, newProps map[string]graph.PropertyValue) error {
	rec, err := tx.Stores.Nodes.GetNode(id)
	if err != nil {
		return err
	}
	oldProps, err := tx.Stores.PropsAt(rec.PropPtr)
	if err != nil {
		return err
	}
	oldPtr := rec.PropPtr

	var newPtr uint64
	if len(newProps) > 0 {
		newPtr, err = tx.Stores.Props.Put(graph.Map(newProps))
		if err != nil {
			return err
		}
	}
	if err := tx.Stores.Nodes.SetPropPtr(id, newPtr); err != nil {
		return err
	}
	if oldPtr != graph.NoPropPtr {
		tx.Stores.Props.Free(oldPtr)
	}
	if err := tx.maintainPropertyIndex(id, rec.Labels, oldProps, newProps); err != nil {
		return err
	}
	tx.maintainVectorIndex(id, rec.Labels, newProps)
	if err := tx.writeCommand(wal.OpSetNodeProps, wal.SetNodePropsData{NodeID: id, Props: newProps}); err != nil {
		return err
	}

	tx.undo = append(tx.undo, func() error {
		tx.maintainPropertyIndex(id, rec.Labels, newProps, oldProps)
		return tx.Stores.Nodes.SetPropPtr(id, oldPtr)
	})
	return nil
}

// CreateRelationship allocates a relationship, splices it into both
// endpoints' authoritative chains, and appends its id to both
// endpoints' adjacency blocks.
func (tx *WriteTx) CreateRelationship(typ graph.TypeId, start, end graph.NodeId, props map[string]graph.PropertyValue) (graph.RelId, error) {
	if _, err := tx.Stores.Nodes.GetNode(start); err != nil {
		return 0, err
	}
	if _, err := tx.Stores.Nodes.GetNode(end); err != nil {
		return 0, err
	}

	id, err := tx.Stores.Rels.CreateRelationship(typ, start, end)
	if err != nil {
		return 0, err
	}

	if err := spliceIntoChain(tx.Stores.Nodes, tx.Stores.Rels, start, id); err != nil {
		return 0, err
	}
	if end != start {
		if err := spliceIntoChain(tx.Stores.Nodes, tx.Stores.Rels, end, id); err != nil {
			return 0, err
		}
	}

	if err := tx.addAdjacency(start, typ, adjacency.Outgoing, id); err != nil {
		return 0, err
	}
	if err := tx.addAdjacency(end, typ, adjacency.Incoming, id); err != nil {
		return 0, err
	}

	if err := tx.Stores.Catalog.IncrTypeLive(typ, 1); err != nil {
		return 0, err
	}

	if len(props) > 0 {
		ptr, err := tx.Stores.Props.Put(graph.Map(props))
		if err != nil {
			return 0, err
		}
		if err := tx.Stores.Rels.SetPropPtr(id, ptr); err != nil {
			return 0, err
		}
	}

	if err := tx.writeCommand(wal.OpCreateRelationship, wal.CreateRelationshipData{RelID: id, Type: typ, Start: start, End: end, Props: props}); err != nil {
		return 0, err
	}

	tx.undo = append(tx.undo, func() error {
		unspliceFromChain(tx.Stores.Nodes, tx.Stores.Rels, start, id)
		if end != start {
			unspliceFromChain(tx.Stores.Nodes, tx.Stores.Rels, end, id)
		}
		tx.removeAdjacency(start, typ, adjacency.Outgoing, id)
		tx.removeAdjacency(end, typ, adjacency.Incoming, id)
		tx.Stores.Catalog.IncrTypeLive(typ, -1)
		return tx.Stores.Rels.DeleteRelationship(id)
	})
	return id, nil
}

// DeleteRelationship tombstones id, unsplicing it from both endpoints'
// chains and adjacency blocks.
func (tx *WriteTx) DeleteRelationship(id graph.RelId) error {
	rec, err := tx.Stores.Rels.GetRelationship(id)
	if err != nil {
		return err
	}
	props, err := tx.Stores.PropsAt(rec.PropPtr)
	if err != nil {
		return err
	}

	if err := unspliceFromChain(tx.Stores.Nodes, tx.Stores.Rels, rec.Start, id); err != nil {
		return err
	}
	if rec.End != rec.Start {
		if err := unspliceFromChain(tx.Stores.Nodes, tx.Stores.Rels, rec.End, id); err != nil {
			return err
		}
	}
	if err := tx.removeAdjacency(rec.Start, rec.Type, adjacency.Outgoing, id); err != nil {
		return err
	}
	if err := tx.removeAdjacency(rec.End, rec.Type, adjacency.Incoming, id); err != nil {
		return err
	}

	if err := tx.Stores.Catalog.IncrTypeLive(rec.Type, -1); err != nil {
		return err
	}
	if rec.PropPtr != graph.NoPropPtr {
		if err := tx.Stores.Props.Free(rec.PropPtr); err != nil {
			return err
		}
	}
	if err := tx.Stores.Rels.DeleteRelationship(id); err != nil {
		return err
	}
	if err := tx.writeCommand(wal.OpDeleteRelationship, wal.DeleteRelationshipData{RelID: id}); err != nil {
		return err
	}

	tx.undo = append(tx.undo, func() error {
		tx.Stores.Rels.ClearDeleted(uint64(id))
		tx.Stores.Catalog.IncrTypeLive(rec.Type, 1)
		spliceIntoChain(tx.Stores.Nodes, tx.Stores.Rels, rec.Start, id)
		if rec.End != rec.Start {
			spliceIntoChain(tx.Stores.Nodes, tx.Stores.Rels, rec.End, id)
		}
		tx.addAdjacency(rec.Start, rec.Type, adjacency.Outgoing, id)
		tx.addAdjacency(rec.End, rec.Type, adjacency.Incoming, id)
		_ = props
		return nil
	})
	return nil
}

// SetRelProps replaces id's entire property map with newProps. The
// property index covers node properties only (spec §4.4), so this has
// no index side effects.
func (tx *WriteTx) SetRelProps(id graph.RelId, newProps map[string]graph.PropertyValue) error {
	rec, err := tx.Stores.Rels.GetRelationship(id)
	if err != nil {
		return err
	}
	oldPtr := rec.PropPtr

	var newPtr uint64
	if len(newProps) > 0 {
		newPtr, err = tx.Stores.Props.Put(graph.Map(newProps))
		if err != nil {
			return err
		}
	}
	if err := tx.Stores.Rels.SetPropPtr(id, newPtr); err != nil {
		return err
	}
	if oldPtr != graph.NoPropPtr {
		tx.Stores.Props.Free(oldPtr)
	}
	if err := tx.writeCommand(wal.OpSetRelProps, wal.SetRelPropsData{RelID: id, Props: newProps}); err != nil {
		return err
	}

	tx.undo = append(tx.undo, func() error {
		return tx.Stores.Rels.SetPropPtr(id, oldPtr)
	})
	return nil
}

func (tx *WriteTx) addAdjacency(node graph.NodeId, typ graph.TypeId, dir adjacency.Direction, relID graph.RelId) error {
	existing, _ := tx.Stores.Adjacency.Get(node, typ, dir)
	return tx.Stores.Adjacency.Put(node, typ, dir, append(existing, relID))
}

func (tx *WriteTx) removeAdjacency(node graph.NodeId, typ graph.TypeId, dir adjacency.Direction, relID graph.RelId) error {
	existing, ok := tx.Stores.Adjacency.Get(node, typ, dir)
	if !ok {
		return nil
	}
	out := make([]graph.RelId, 0, len(existing))
	for _, r := range existing {
		if r != relID {
			out = append(out, r)
		}
	}
	return tx.Stores.Adjacency.Put(node, typ, dir, out)
}

// maintainPropertyIndex updates every indexed (label, key) bucket
// affected by a node's property map changing from oldProps to
// newProps. Either map may be nil (treated as empty).
func (tx *WriteTx) maintainPropertyIndex(node graph.NodeId, labels []graph.LabelId, oldProps, newProps map[string]graph.PropertyValue) error {
	keys := make(map[string]bool)
	for k := range oldProps {
		keys[k] = true
	}
	for k := range newProps {
		keys[k] = true
	}
	for _, lbl := range labels {
		labelName, ok := tx.Stores.Catalog.LabelName(lbl)
		if !ok {
			continue
		}
		for keyName := range keys {
			has, err := tx.Stores.Catalog.HasIndexDDL(labelName, keyName)
			if err != nil {
				return err
			}
			if !has {
				continue
			}
			keyID, err := tx.Stores.Catalog.Key(keyName)
			if err != nil {
				return err
			}
			if old, ok := oldProps[keyName]; ok {
				tx.Stores.Properties.Delete(lbl, keyID, old, node)
			}
			if nv, ok := newProps[keyName]; ok {
				tx.Stores.Properties.Insert(lbl, keyID, nv, node)
			}
		}
	}
	return nil
}

// maintainVectorIndex adds any Vector-kind property values to the
// per-label vector index, best-effort (a dimension mismatch against an
// index already seeded by a different vector length is silently
// skipped rather than failing the write — the KNN index is optional
// per spec §4.4).
func (tx *WriteTx) maintainVectorIndex(node graph.NodeId, labels []graph.LabelId, props map[string]graph.PropertyValue) {
	for _, v := range props {
		if v.Kind != graph.KindVector {
			continue
		}
		for _, lbl := range labels {
			_ = tx.Stores.VectorIndexFor(lbl, len(v.Vector)).Add(node, v.Vector)
		}
	}
}

func labelSet(labels []graph.LabelId) map[graph.LabelId]bool {
	out := make(map[graph.LabelId]bool, len(labels))
	for _, l := range labels {
		out[l] = true
	}
	return out
}
