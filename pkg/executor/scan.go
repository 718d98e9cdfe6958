package executor

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
	"github.com/cuemby/graphd/pkg/txn"
)

// buildAllNodesScan streams every live node, binding op.Variable.
// Grounded on pkg/recordstore.NodeStore.LiveIDs's own doc comment,
// which names this as its purpose.
func buildAllNodesScan(stores *txn.Stores, op planner.AllNodesScan, upstream Iterator) Iterator {
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		ids := stores.Nodes.LiveIDs()
		rows := make([]graph.Row, 0, len(ids))
		for _, id := range ids {
			node, err := loadNode(stores, graph.NodeId(id))
			if err != nil {
				continue
			}
			rows = append(rows, row.Clone().Set(op.Variable, graph.FromNode(node)))
		}
		return newSliceIterator(rows), nil
	})
}

// buildNodeByLabel streams every node carrying op.Label via the label
// bitmap index.
func buildNodeByLabel(stores *txn.Stores, op planner.NodeByLabel, upstream Iterator) Iterator {
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		ids := stores.Labels.Nodes(op.Label)
		rows := make([]graph.Row, 0, len(ids))
		for _, id := range ids {
			node, err := loadNode(stores, id)
			if err != nil {
				continue
			}
			rows = append(rows, row.Clone().Set(op.Variable, graph.FromNode(node)))
		}
		return newSliceIterator(rows), nil
	})
}
