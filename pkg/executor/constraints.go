package executor

import (
	"github.com/cuemby/graphd/pkg/catalog"
	"github.com/cuemby/graphd/pkg/graph"
)

// enforceConstraintsOnCreate checks every UNIQUE/EXISTS constraint
// declared on labels against props, before the node they'll belong to
// exists. pkg/txn's write path performs no constraint checks itself
// (see pkg/txn/write.go), so CREATE/MERGE must check here.
func (e *Executor) enforceConstraintsOnCreate(labels []graph.LabelId, props map[string]graph.PropertyValue) error {
	for _, labelID := range labels {
		name, ok := e.Stores.Catalog.LabelName(labelID)
		if !ok {
			continue
		}
		cons, err := e.Stores.Catalog.ConstraintsFor(name)
		if err != nil {
			return err
		}
		for _, con := range cons {
			if err := e.checkConstraint(con, labelID, 0, props, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// enforceConstraintsOnSet re-checks constraints for a node being given
// a new property map via SET, excluding the node itself from the
// uniqueness scan so re-setting a node's own value isn't a self-conflict.
func (e *Executor) enforceConstraintsOnSet(nodeID graph.NodeId, props map[string]graph.PropertyValue) error {
	rec, err := e.Stores.Nodes.GetNode(nodeID)
	if err != nil {
		return err
	}
	for _, labelID := range rec.Labels {
		name, ok := e.Stores.Catalog.LabelName(labelID)
		if !ok {
			continue
		}
		cons, err := e.Stores.Catalog.ConstraintsFor(name)
		if err != nil {
			return err
		}
		for _, con := range cons {
			if err := e.checkConstraint(con, labelID, nodeID, props, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Executor) checkConstraint(con catalog.Constraint, labelID graph.LabelId, excludeNode graph.NodeId, props map[string]graph.PropertyValue, hasExclude bool) error {
	value, present := props[con.Key]
	switch con.Kind {
	case catalog.ConstraintExists:
		if !present || value.IsNull() {
			return graph.New(graph.ErrConstraintViolation, "node missing required property %q.%q", con.Label, con.Key)
		}
	case catalog.ConstraintUnique:
		if !present || value.IsNull() {
			return nil
		}
		keyID, err := e.Stores.Catalog.Key(con.Key)
		if err != nil {
			return err
		}
		for _, existing := range e.Stores.Properties.Equals(labelID, keyID, value) {
			if hasExclude && existing == excludeNode {
				continue
			}
			return graph.New(graph.ErrConstraintViolation, "uniqueness constraint violated for %q.%q", con.Label, con.Key)
		}
	}
	return nil
}
