package executor

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// buildCreateIndex registers op.Label/op.Property in the catalog and
// synchronously backfills the in-memory property index from every
// currently live node carrying the label, so the index is immediately
// usable by subsequent queries in the same session.
func (e *Executor) buildCreateIndex(op planner.CreateIndex, upstream Iterator) (Iterator, error) {
	if err := e.requireWrite("CREATE INDEX"); err != nil {
		return nil, err
	}
	if err := e.Stores.Catalog.CreateIndexDDL(op.Label, op.Property); err != nil {
		return nil, err
	}
	labelID, err := e.Stores.Catalog.Label(op.Label)
	if err != nil {
		return nil, err
	}
	keyID, err := e.Stores.Catalog.Key(op.Property)
	if err != nil {
		return nil, err
	}
	for _, nodeID := range e.Stores.Labels.Nodes(labelID) {
		rec, err := e.Stores.Nodes.GetNode(nodeID)
		if err != nil || rec.Deleted {
			continue
		}
		props, err := e.Stores.PropsAt(rec.PropPtr)
		if err != nil {
			continue
		}
		if v, ok := props[op.Property]; ok && !v.IsNull() {
			e.Stores.Properties.Insert(labelID, keyID, v, nodeID)
		}
	}
	return newSliceIterator([]graph.Row{}), nil
}

// buildDropIndex removes the DDL entry and evicts every indexed entry
// for the label/property pair.
func (e *Executor) buildDropIndex(op planner.DropIndex, upstream Iterator) (Iterator, error) {
	if err := e.requireWrite("DROP INDEX"); err != nil {
		return nil, err
	}
	if err := e.Stores.Catalog.DropIndexDDL(op.Label, op.Property); err != nil {
		return nil, err
	}
	labelID, ok := e.Stores.Catalog.LookupLabel(op.Label)
	if !ok {
		return newSliceIterator([]graph.Row{}), nil
	}
	keyID, ok := e.Stores.Catalog.LookupKey(op.Property)
	if !ok {
		return newSliceIterator([]graph.Row{}), nil
	}
	for _, nodeID := range e.Stores.Labels.Nodes(labelID) {
		rec, err := e.Stores.Nodes.GetNode(nodeID)
		if err != nil || rec.Deleted {
			continue
		}
		props, err := e.Stores.PropsAt(rec.PropPtr)
		if err != nil {
			continue
		}
		if v, ok := props[op.Property]; ok && !v.IsNull() {
			e.Stores.Properties.Delete(labelID, keyID, v, nodeID)
		}
	}
	return newSliceIterator([]graph.Row{}), nil
}
