package engine

import "github.com/cuemby/graphd/pkg/graph"

// CreateNode creates a single node with the given labels and
// properties in its own write transaction, interning label names as
// needed. It is a convenience wrapper over pkg/txn for callers that
// don't need a full Cypher round-trip (e.g. bulk loaders).
func (e *Engine) CreateNode(labels []string, props map[string]graph.PropertyValue) (graph.NodeId, error) {
	labelIDs, err := e.internLabels(labels)
	if err != nil {
		return 0, err
	}

	wtx, err := e.mgr.BeginWrite()
	if err != nil {
		return 0, err
	}
	id, err := wtx.CreateNode(labelIDs, props)
	if err != nil {
		_ = e.mgr.Abort(wtx)
		return 0, err
	}
	if _, err := e.mgr.Commit(wtx); err != nil {
		return 0, err
	}
	return id, nil
}

// GetNode returns a node's labels and properties, or graph.ErrNotFound
// if it doesn't exist or has been deleted.
func (e *Engine) GetNode(id graph.NodeId) (labels []string, props map[string]graph.PropertyValue, err error) {
	rtx := e.mgr.BeginRead()
	defer rtx.Close()

	rec, err := rtx.Stores.Nodes.GetNode(id)
	if err != nil {
		return nil, nil, err
	}
	if rec.Deleted {
		return nil, nil, graph.New(graph.ErrNotFound, "node %d not found", id)
	}
	names := make([]string, 0, len(rec.Labels))
	for _, l := range rec.Labels {
		if name, ok := rtx.Stores.Catalog.LabelName(l); ok {
			names = append(names, name)
		}
	}
	props, err = rtx.Stores.PropsAt(rec.PropPtr)
	if err != nil {
		return nil, nil, err
	}
	return names, props, nil
}

// DeleteNode removes a node with no incident relationships. Use
// ExecuteCypher's DETACH DELETE for a node that still has edges.
func (e *Engine) DeleteNode(id graph.NodeId) error {
	wtx, err := e.mgr.BeginWrite()
	if err != nil {
		return err
	}
	if err := wtx.DeleteNode(id); err != nil {
		_ = e.mgr.Abort(wtx)
		return err
	}
	_, err = e.mgr.Commit(wtx)
	return err
}

// CreateRelationship creates a relationship of the given type between
// two existing nodes in its own write transaction.
func (e *Engine) CreateRelationship(typ string, start, end graph.NodeId, props map[string]graph.PropertyValue) (graph.RelId, error) {
	typeID, err := e.catalog.Type(typ)
	if err != nil {
		return 0, err
	}

	wtx, err := e.mgr.BeginWrite()
	if err != nil {
		return 0, err
	}
	id, err := wtx.CreateRelationship(typeID, start, end, props)
	if err != nil {
		_ = e.mgr.Abort(wtx)
		return 0, err
	}
	if _, err := e.mgr.Commit(wtx); err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteRelationship removes a relationship by id.
func (e *Engine) DeleteRelationship(id graph.RelId) error {
	wtx, err := e.mgr.BeginWrite()
	if err != nil {
		return err
	}
	if err := wtx.DeleteRelationship(id); err != nil {
		_ = e.mgr.Abort(wtx)
		return err
	}
	_, err = e.mgr.Commit(wtx)
	return err
}

func (e *Engine) internLabels(names []string) ([]graph.LabelId, error) {
	ids := make([]graph.LabelId, len(names))
	for i, n := range names {
		id, err := e.catalog.Label(n)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
