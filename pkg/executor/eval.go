package executor

import (
	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/txn"
)

// evalCtx is the small bundle the expression evaluator needs: storage
// to resolve property lookups against materialized Node/Relationship
// values, and the query's bound parameters. The current Row is passed
// explicitly to eval rather than stored here so the same evalCtx can
// be reused across every row a pipeline stage touches.
type evalCtx struct {
	stores *txn.Stores
	params map[string]graph.PropertyValue
}

// eval walks expr against row using three-valued logic throughout:
// comparisons and arithmetic involving Null propagate Null rather than
// erroring (spec §4.7, §8).
func (c *evalCtx) eval(expr ast.Expr, row graph.Row) (graph.PropertyValue, error) {
	switch e := expr.(type) {
	case ast.LiteralExpr:
		return e.Value, nil
	case ast.VariableExpr:
		v, ok := row.Get(e.Name)
		if !ok {
			return graph.Null(), nil
		}
		return v, nil
	case ast.ParameterExpr:
		v, ok := c.params[e.Name]
		if !ok {
			return graph.Null(), nil
		}
		return v, nil
	case ast.PropertyExpr:
		return c.evalProperty(e, row)
	case ast.IndexExpr:
		return c.evalIndex(e, row)
	case ast.SliceExpr:
		return c.evalSlice(e, row)
	case ast.BinaryExpr:
		return c.evalBinary(e, row)
	case ast.UnaryExpr:
		return c.evalUnary(e, row)
	case ast.IsNullExpr:
		v, err := c.eval(e.Operand, row)
		if err != nil {
			return graph.Null(), err
		}
		result := v.IsNull()
		if e.Negated {
			result = !result
		}
		return graph.Bool(result), nil
	case ast.ListExpr:
		out := make([]graph.PropertyValue, len(e.Elements))
		for i, el := range e.Elements {
			v, err := c.eval(el, row)
			if err != nil {
				return graph.Null(), err
			}
			out[i] = v
		}
		return graph.List(out), nil
	case ast.MapExpr:
		out := make(map[string]graph.PropertyValue, len(e.Entries))
		for k, el := range e.Entries {
			v, err := c.eval(el, row)
			if err != nil {
				return graph.Null(), err
			}
			out[k] = v
		}
		return graph.Map(out), nil
	case ast.FunctionCallExpr:
		return c.evalFunction(e, row)
	case ast.CaseExpr:
		return c.evalCase(e, row)
	case ast.PatternExpr:
		return c.evalPatternExists(e, row)
	default:
		return graph.Null(), graph.New(graph.ErrCypherExecution, "unsupported expression %T", expr)
	}
}

func (c *evalCtx) evalProperty(e ast.PropertyExpr, row graph.Row) (graph.PropertyValue, error) {
	target, err := c.eval(e.Target, row)
	if err != nil {
		return graph.Null(), err
	}
	switch target.Kind {
	case graph.KindNull:
		return graph.Null(), nil
	case graph.KindNode:
		if v, ok := target.Node.Properties[e.Key]; ok {
			return v, nil
		}
		return graph.Null(), nil
	case graph.KindRelationship:
		if v, ok := target.Rel.Properties[e.Key]; ok {
			return v, nil
		}
		return graph.Null(), nil
	case graph.KindMap:
		if v, ok := target.Map[e.Key]; ok {
			return v, nil
		}
		return graph.Null(), nil
	default:
		return graph.Null(), graph.TypeMismatch("Node, Relationship or Map", target.TypeName())
	}
}

func (c *evalCtx) evalIndex(e ast.IndexExpr, row graph.Row) (graph.PropertyValue, error) {
	target, err := c.eval(e.Target, row)
	if err != nil {
		return graph.Null(), err
	}
	idx, err := c.eval(e.Index, row)
	if err != nil {
		return graph.Null(), err
	}
	if target.IsNull() || idx.IsNull() {
		return graph.Null(), nil
	}
	switch target.Kind {
	case graph.KindList:
		i := int(idx.I64)
		if i < 0 {
			i += len(target.List)
		}
		if i < 0 || i >= len(target.List) {
			return graph.Null(), nil
		}
		return target.List[i], nil
	case graph.KindMap:
		if v, ok := target.Map[idx.Str]; ok {
			return v, nil
		}
		return graph.Null(), nil
	default:
		return graph.Null(), graph.TypeMismatch("List or Map", target.TypeName())
	}
}

func (c *evalCtx) evalSlice(e ast.SliceExpr, row graph.Row) (graph.PropertyValue, error) {
	target, err := c.eval(e.Target, row)
	if err != nil {
		return graph.Null(), err
	}
	if target.Kind != graph.KindList {
		if target.IsNull() {
			return graph.Null(), nil
		}
		return graph.Null(), graph.TypeMismatch("List", target.TypeName())
	}
	from, to := 0, len(target.List)
	if e.From != nil {
		v, err := c.eval(e.From, row)
		if err != nil {
			return graph.Null(), err
		}
		if !v.IsNull() {
			from = clampIndex(int(v.I64), len(target.List))
		}
	}
	if e.To != nil {
		v, err := c.eval(e.To, row)
		if err != nil {
			return graph.Null(), err
		}
		if !v.IsNull() {
			to = clampIndex(int(v.I64), len(target.List))
		}
	}
	if from > to {
		from = to
	}
	return graph.List(append([]graph.PropertyValue{}, target.List[from:to]...)), nil
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func (c *evalCtx) evalUnary(e ast.UnaryExpr, row graph.Row) (graph.PropertyValue, error) {
	v, err := c.eval(e.Operand, row)
	if err != nil {
		return graph.Null(), err
	}
	switch e.Op {
	case ast.OpNot:
		if v.IsNull() {
			return graph.Null(), nil
		}
		if v.Kind != graph.KindBool {
			return graph.Null(), graph.TypeMismatch("Boolean", v.TypeName())
		}
		return graph.Bool(!v.Bool), nil
	case ast.OpNeg:
		if v.IsNull() {
			return graph.Null(), nil
		}
		switch v.Kind {
		case graph.KindI64:
			return graph.I64(-v.I64), nil
		case graph.KindF64:
			return graph.F64(-v.F64), nil
		default:
			return graph.Null(), graph.TypeMismatch("Integer or Float", v.TypeName())
		}
	case ast.OpPos:
		return v, nil
	default:
		return graph.Null(), graph.New(graph.ErrInternal, "unknown unary operator %d", e.Op)
	}
}

func (c *evalCtx) evalCase(e ast.CaseExpr, row graph.Row) (graph.PropertyValue, error) {
	var subject graph.PropertyValue
	hasSubject := e.Subject != nil
	if hasSubject {
		v, err := c.eval(e.Subject, row)
		if err != nil {
			return graph.Null(), err
		}
		subject = v
	}
	for _, when := range e.Whens {
		condVal, err := c.eval(when.Condition, row)
		if err != nil {
			return graph.Null(), err
		}
		var matched bool
		if hasSubject {
			matched = graph.Equal(subject, condVal).Truthy()
		} else {
			matched = condVal.Truthy()
		}
		if matched {
			return c.eval(when.Result, row)
		}
	}
	if e.Else != nil {
		return c.eval(e.Else, row)
	}
	return graph.Null(), nil
}

// evalPatternExists answers a WHERE-clause pattern-existence check
// (e.g. `WHERE (a)-[:KNOWS]->(b)`) by walking the adjacency store from
// the pattern's already-bound anchor node. Only the common single-hop
// case is supported; longer chains fall back to false rather than
// running a nested planner, since full subquery planning is out of
// scope for the core (spec §1 excludes full Cypher compliance).
func (c *evalCtx) evalPatternExists(e ast.PatternExpr, row graph.Row) (graph.PropertyValue, error) {
	if len(e.Pattern.Elements) != 3 {
		return graph.Bool(false), nil
	}
	anchor, ok := e.Pattern.Elements[0].(ast.NodePattern)
	if !ok || anchor.Variable == "" {
		return graph.Bool(false), nil
	}
	anchorVal, ok := row.Get(anchor.Variable)
	if !ok || anchorVal.Kind != graph.KindNode {
		return graph.Bool(false), nil
	}
	rel, ok := e.Pattern.Elements[1].(ast.RelPattern)
	if !ok {
		return graph.Bool(false), nil
	}
	dirs := directionsFor(rel.Direction)
	typeIDs := make([]graph.TypeId, 0, len(rel.Types))
	for _, name := range rel.Types {
		if id, ok := c.stores.Catalog.LookupType(name); ok {
			typeIDs = append(typeIDs, id)
		}
	}
	for _, dir := range dirs {
		types := typeIDs
		if len(types) == 0 {
			types = c.stores.Adjacency.Types(anchorVal.Node.ID, dir)
		}
		for _, typ := range types {
			rels, ok := c.stores.Adjacency.Get(anchorVal.Node.ID, typ, dir)
			if ok && len(rels) > 0 {
				return graph.Bool(true), nil
			}
		}
	}
	return graph.Bool(false), nil
}
