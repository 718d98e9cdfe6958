package executor

import (
	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// buildCreate materializes op.Pattern once per input row, creating any
// pattern element not already bound as a variable and splicing new
// relationships between consecutive pattern nodes.
func (e *Executor) buildCreate(c *evalCtx, op planner.Create, upstream Iterator) (Iterator, error) {
	if err := e.requireWrite("CREATE"); err != nil {
		return nil, err
	}
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		out, err := e.createPattern(c, op.Pattern, row)
		if err != nil {
			return nil, err
		}
		return newSliceIterator([]graph.Row{out}), nil
	}), nil
}

// createPattern is shared by CREATE and the create-branch of MERGE.
func (e *Executor) createPattern(c *evalCtx, pattern ast.Pattern, row graph.Row) (graph.Row, error) {
	out := row.Clone()
	var prevNode graph.NodeId
	havePrev := false

	for i := 0; i < len(pattern.Elements); i += 2 {
		np, ok := pattern.Elements[i].(ast.NodePattern)
		if !ok {
			return graph.Row{}, graph.New(graph.ErrInternal, "pattern element %d is not a node", i)
		}
		var nodeID graph.NodeId
		if np.Variable != "" {
			if existing, ok := out.Get(np.Variable); ok && existing.Kind == graph.KindNode {
				nodeID = existing.Node.ID
			} else {
				id, err := e.createNode(c, np, out)
				if err != nil {
					return graph.Row{}, err
				}
				nodeID = id
				node, err := loadNode(e.Stores, id)
				if err != nil {
					return graph.Row{}, err
				}
				out = out.Set(np.Variable, graph.FromNode(node))
			}
		} else {
			id, err := e.createNode(c, np, out)
			if err != nil {
				return graph.Row{}, err
			}
			nodeID = id
		}

		if i > 0 {
			rp, ok := pattern.Elements[i-1].(ast.RelPattern)
			if !ok {
				return graph.Row{}, graph.New(graph.ErrInternal, "pattern element %d is not a relationship", i-1)
			}
			if len(rp.Types) != 1 {
				return graph.Row{}, graph.New(graph.ErrCypherExecution, "CREATE requires exactly one relationship type, got %d", len(rp.Types))
			}
			typeID, err := e.Stores.Catalog.Type(rp.Types[0])
			if err != nil {
				return graph.Row{}, err
			}
			props, err := evalPropsMap(c, rp.Properties, out)
			if err != nil {
				return graph.Row{}, err
			}
			start, end := prevNode, nodeID
			if rp.Direction == ast.DirIncoming {
				start, end = end, start
			}
			relID, err := e.WTx.CreateRelationship(typeID, start, end, props)
			if err != nil {
				return graph.Row{}, err
			}
			if rp.Variable != "" {
				rel, err := loadRel(e.Stores, relID)
				if err != nil {
					return graph.Row{}, err
				}
				out = out.Set(rp.Variable, graph.FromRel(rel))
			}
		}

		prevNode = nodeID
		havePrev = true
	}
	_ = havePrev
	return out, nil
}

func (e *Executor) createNode(c *evalCtx, np ast.NodePattern, row graph.Row) (graph.NodeId, error) {
	labels, err := resolveLabels(e.Stores, np.Labels)
	if err != nil {
		return 0, err
	}
	props, err := evalPropsMap(c, np.Properties, row)
	if err != nil {
		return 0, err
	}
	if err := e.enforceConstraintsOnCreate(labels, props); err != nil {
		return 0, err
	}
	return e.WTx.CreateNode(labels, props)
}

// buildDelete evaluates op.Variables against every row and deletes the
// resulting nodes/relationships, tracking already-deleted ids across
// rows so a Cartesian product that revisits the same entity multiple
// times doesn't double-delete it.
func (e *Executor) buildDelete(c *evalCtx, op planner.Delete, upstream Iterator) (Iterator, error) {
	if err := e.requireWrite("DELETE"); err != nil {
		return nil, err
	}
	deletedNodes := make(map[graph.NodeId]bool)
	deletedRels := make(map[graph.RelId]bool)
	return newFilterMap(upstream, func(row graph.Row) (graph.Row, bool, error) {
		for _, varExpr := range op.Variables {
			v, err := c.eval(varExpr, row)
			if err != nil {
				return graph.Row{}, false, err
			}
			switch v.Kind {
			case graph.KindNode:
				if deletedNodes[v.Node.ID] {
					continue
				}
				deletedNodes[v.Node.ID] = true
				if op.Detach {
					if err := e.WTx.DetachDeleteNode(v.Node.ID); err != nil {
						return graph.Row{}, false, err
					}
				} else {
					if err := e.WTx.DeleteNode(v.Node.ID); err != nil {
						return graph.Row{}, false, err
					}
				}
			case graph.KindRelationship:
				if deletedRels[v.Rel.ID] {
					continue
				}
				deletedRels[v.Rel.ID] = true
				if err := e.WTx.DeleteRelationship(v.Rel.ID); err != nil {
					return graph.Row{}, false, err
				}
			case graph.KindNull:
				// DELETE of an unmatched OPTIONAL MATCH variable is a no-op.
			default:
				return graph.Row{}, false, graph.TypeMismatch("Node or Relationship", v.TypeName())
			}
		}
		return row, true, nil
	}), nil
}

// buildSet applies every op.Items assignment to the matching row's
// entity, re-binding the row's variable to the refreshed entity value
// so later clauses in the same query see the update.
func (e *Executor) buildSet(c *evalCtx, op planner.Set, upstream Iterator) (Iterator, error) {
	if err := e.requireWrite("SET"); err != nil {
		return nil, err
	}
	return newFilterMap(upstream, func(row graph.Row) (graph.Row, bool, error) {
		out, err := e.applySetItems(c, op.Items, row)
		if err != nil {
			return graph.Row{}, false, err
		}
		return out, true, nil
	}), nil
}

func (e *Executor) applySetItems(c *evalCtx, items []ast.SetItem, row graph.Row) (graph.Row, error) {
	out := row
	for _, item := range items {
		next, err := e.applySetItem(c, item, out)
		if err != nil {
			return graph.Row{}, err
		}
		out = next
	}
	return out, nil
}

func (e *Executor) applySetItem(c *evalCtx, item ast.SetItem, row graph.Row) (graph.Row, error) {
	if item.AddLabel != "" {
		varExpr, ok := item.Target.(ast.VariableExpr)
		if !ok {
			return graph.Row{}, graph.New(graph.ErrInternal, "SET label target is not a variable")
		}
		v, ok := row.Get(varExpr.Name)
		if !ok || v.Kind != graph.KindNode {
			return graph.Row{}, graph.TypeMismatch("Node", "unbound variable")
		}
		labelID, err := e.Stores.Catalog.Label(item.AddLabel)
		if err != nil {
			return graph.Row{}, err
		}
		ids, err := resolveLabels(e.Stores, v.Node.Labels)
		if err != nil {
			return graph.Row{}, err
		}
		already := false
		for _, id := range ids {
			if id == labelID {
				already = true
			}
		}
		if !already {
			ids = append(ids, labelID)
		}
		if err := e.WTx.SetNodeLabels(v.Node.ID, ids); err != nil {
			return graph.Row{}, err
		}
		node, err := loadNode(e.Stores, v.Node.ID)
		if err != nil {
			return graph.Row{}, err
		}
		return row.Clone().Set(varExpr.Name, graph.FromNode(node)), nil
	}

	switch t := item.Target.(type) {
	case ast.PropertyExpr:
		entity, err := c.eval(t.Target, row)
		if err != nil {
			return graph.Row{}, err
		}
		value, err := c.eval(item.Value, row)
		if err != nil {
			return graph.Row{}, err
		}
		varExpr, ok := t.Target.(ast.VariableExpr)
		if !ok {
			return graph.Row{}, graph.New(graph.ErrCypherExecution, "SET target must be a bound variable's property")
		}
		return e.setSingleProperty(varExpr.Name, entity, t.Key, value, row)
	case ast.VariableExpr:
		entity, ok := row.Get(t.Name)
		if !ok {
			return graph.Row{}, graph.TypeMismatch("Node or Relationship", "unbound variable")
		}
		value, err := c.eval(item.Value, row)
		if err != nil {
			return graph.Row{}, err
		}
		if value.Kind != graph.KindMap {
			return graph.Row{}, graph.TypeMismatch("Map", value.TypeName())
		}
		return e.setWholeEntity(t.Name, entity, value.Map, item.Additive, row)
	default:
		return graph.Row{}, graph.New(graph.ErrInternal, "unsupported SET target %T", item.Target)
	}
}

func (e *Executor) setSingleProperty(varName string, entity graph.PropertyValue, key string, value graph.PropertyValue, row graph.Row) (graph.Row, error) {
	switch entity.Kind {
	case graph.KindNode:
		props := cloneProps(entity.Node.Properties)
		if value.IsNull() {
			delete(props, key)
		} else {
			props[key] = value
		}
		if err := e.enforceConstraintsOnSet(entity.Node.ID, props); err != nil {
			return graph.Row{}, err
		}
		if err := e.WTx.SetNodeProps(entity.Node.ID, props); err != nil {
			return graph.Row{}, err
		}
		node, err := loadNode(e.Stores, entity.Node.ID)
		if err != nil {
			return graph.Row{}, err
		}
		return row.Clone().Set(varName, graph.FromNode(node)), nil
	case graph.KindRelationship:
		props := cloneProps(entity.Rel.Properties)
		if value.IsNull() {
			delete(props, key)
		} else {
			props[key] = value
		}
		if err := e.WTx.SetRelProps(entity.Rel.ID, props); err != nil {
			return graph.Row{}, err
		}
		rel, err := loadRel(e.Stores, entity.Rel.ID)
		if err != nil {
			return graph.Row{}, err
		}
		return row.Clone().Set(varName, graph.FromRel(rel)), nil
	default:
		return graph.Row{}, graph.TypeMismatch("Node or Relationship", entity.TypeName())
	}
}

func (e *Executor) setWholeEntity(varName string, entity graph.PropertyValue, newProps map[string]graph.PropertyValue, additive bool, row graph.Row) (graph.Row, error) {
	switch entity.Kind {
	case graph.KindNode:
		props := newProps
		if additive {
			props = cloneProps(entity.Node.Properties)
			for k, v := range newProps {
				props[k] = v
			}
		}
		if err := e.enforceConstraintsOnSet(entity.Node.ID, props); err != nil {
			return graph.Row{}, err
		}
		if err := e.WTx.SetNodeProps(entity.Node.ID, props); err != nil {
			return graph.Row{}, err
		}
		node, err := loadNode(e.Stores, entity.Node.ID)
		if err != nil {
			return graph.Row{}, err
		}
		return row.Clone().Set(varName, graph.FromNode(node)), nil
	case graph.KindRelationship:
		props := newProps
		if additive {
			props = cloneProps(entity.Rel.Properties)
			for k, v := range newProps {
				props[k] = v
			}
		}
		if err := e.WTx.SetRelProps(entity.Rel.ID, props); err != nil {
			return graph.Row{}, err
		}
		rel, err := loadRel(e.Stores, entity.Rel.ID)
		if err != nil {
			return graph.Row{}, err
		}
		return row.Clone().Set(varName, graph.FromRel(rel)), nil
	default:
		return graph.Row{}, graph.TypeMismatch("Node or Relationship", entity.TypeName())
	}
}

func cloneProps(props map[string]graph.PropertyValue) map[string]graph.PropertyValue {
	out := make(map[string]graph.PropertyValue, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// buildRemove applies op.Items (label or property removal) to each row.
func (e *Executor) buildRemove(c *evalCtx, op planner.Remove, upstream Iterator) (Iterator, error) {
	if err := e.requireWrite("REMOVE"); err != nil {
		return nil, err
	}
	return newFilterMap(upstream, func(row graph.Row) (graph.Row, bool, error) {
		out := row
		for _, item := range op.Items {
			next, err := e.applyRemoveItem(item, out)
			if err != nil {
				return graph.Row{}, false, err
			}
			out = next
		}
		return out, true, nil
	}), nil
}

func (e *Executor) applyRemoveItem(item ast.RemoveItem, row graph.Row) (graph.Row, error) {
	if item.RemoveLabel != "" {
		pe, ok := item.Target.(ast.PropertyExpr)
		var varName string
		if ok {
			ve, ok := pe.Target.(ast.VariableExpr)
			if !ok {
				return graph.Row{}, graph.New(graph.ErrInternal, "REMOVE label target is not a variable")
			}
			varName = ve.Name
		} else if ve, ok := item.Target.(ast.VariableExpr); ok {
			varName = ve.Name
		} else {
			return graph.Row{}, graph.New(graph.ErrInternal, "REMOVE label target is not a variable")
		}
		v, ok := row.Get(varName)
		if !ok || v.Kind != graph.KindNode {
			return graph.Row{}, graph.TypeMismatch("Node", "unbound variable")
		}
		labelID, ok := e.Stores.Catalog.LookupLabel(item.RemoveLabel)
		if !ok {
			return row, nil
		}
		ids, err := resolveLabels(e.Stores, v.Node.Labels)
		if err != nil {
			return graph.Row{}, err
		}
		kept := ids[:0]
		for _, id := range ids {
			if id != labelID {
				kept = append(kept, id)
			}
		}
		if err := e.WTx.SetNodeLabels(v.Node.ID, kept); err != nil {
			return graph.Row{}, err
		}
		node, err := loadNode(e.Stores, v.Node.ID)
		if err != nil {
			return graph.Row{}, err
		}
		return row.Clone().Set(varName, graph.FromNode(node)), nil
	}

	pe, ok := item.Target.(ast.PropertyExpr)
	if !ok {
		return graph.Row{}, graph.New(graph.ErrInternal, "REMOVE property target is not a property access")
	}
	ve, ok := pe.Target.(ast.VariableExpr)
	if !ok {
		return graph.Row{}, graph.New(graph.ErrCypherExecution, "REMOVE target must be a bound variable's property")
	}
	entity, ok := row.Get(ve.Name)
	if !ok {
		return graph.Row{}, graph.TypeMismatch("Node or Relationship", "unbound variable")
	}
	return e.setSingleProperty(ve.Name, entity, pe.Key, graph.Null(), row)
}

// buildMerge runs op.MatchPipeline against each input row; rows it
// produces get OnMatch applied, and if it produces none, the pattern
// is created and OnCreate applied instead.
func (e *Executor) buildMerge(c *evalCtx, op planner.Merge, upstream Iterator) (Iterator, error) {
	if err := e.requireWrite("MERGE"); err != nil {
		return nil, err
	}
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		matchIt, err := e.build(c, op.MatchPipeline, newSliceIterator([]graph.Row{row}))
		if err != nil {
			return nil, err
		}
		matched, err := drain(matchIt)
		if err != nil {
			return nil, err
		}
		if len(matched) > 0 {
			out := make([]graph.Row, len(matched))
			for i, mr := range matched {
				applied, err := e.applySetItems(c, op.OnMatch, mr)
				if err != nil {
					return nil, err
				}
				out[i] = applied
			}
			return newSliceIterator(out), nil
		}
		created, err := e.createPattern(c, op.Pattern, row)
		if err != nil {
			return nil, err
		}
		applied, err := e.applySetItems(c, op.OnCreate, created)
		if err != nil {
			return nil, err
		}
		return newSliceIterator([]graph.Row{applied}), nil
	}), nil
}

// buildForeach applies op.Body once per element of op.Expr, discarding
// the body's output rows: FOREACH exists purely for write side
// effects (spec §4.6).
func (e *Executor) buildForeach(c *evalCtx, op planner.Foreach, upstream Iterator) (Iterator, error) {
	if err := e.requireWrite("FOREACH"); err != nil {
		return nil, err
	}
	return newFilterMap(upstream, func(row graph.Row) (graph.Row, bool, error) {
		listVal, err := c.eval(op.Expr, row)
		if err != nil {
			return graph.Row{}, false, err
		}
		if listVal.Kind != graph.KindList {
			if listVal.IsNull() {
				return row, true, nil
			}
			return graph.Row{}, false, graph.TypeMismatch("List", listVal.TypeName())
		}
		for _, elem := range listVal.List {
			iterRow := row.Clone().Set(op.Variable, elem)
			it, err := e.build(c, op.Body, newSliceIterator([]graph.Row{iterRow}))
			if err != nil {
				return graph.Row{}, false, err
			}
			if _, err := drain(it); err != nil {
				return graph.Row{}, false, err
			}
		}
		return row, true, nil
	}), nil
}

// buildUnwind expands op.Expr's list value into one row per element.
// Unwinding Null produces zero rows; unwinding a non-list, non-null
// value is a type error (spec §4.2).
func buildUnwind(c *evalCtx, op planner.Unwind, upstream Iterator) Iterator {
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		v, err := c.eval(op.Expr, row)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			return newSliceIterator(nil), nil
		}
		if v.Kind != graph.KindList {
			return nil, graph.TypeMismatch("List", v.TypeName())
		}
		rows := make([]graph.Row, len(v.List))
		for i, elem := range v.List {
			rows[i] = row.Clone().Set(op.Variable, elem)
		}
		return newSliceIterator(rows), nil
	})
}
