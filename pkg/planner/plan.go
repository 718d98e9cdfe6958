package planner

import (
	"github.com/cuemby/graphd/pkg/catalog"
	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
)

// Planner translates parsed queries into operator pipelines, backed
// by a catalog for label/type id resolution and a plan Cache for
// reuse across identical query shapes.
type Planner struct {
	catalog *catalog.Catalog
	Cache   *Cache
}

// New creates a Planner over cat with a cache of the given bounds.
func New(cat *catalog.Catalog, maxEntries int, ttlSeconds int64) *Planner {
	return &Planner{catalog: cat, Cache: NewCache(maxEntries, ttlSeconds)}
}

// PlanQuery is the pkg/planner contract: translate q into a flat
// operator pipeline, consulting and populating the plan cache.
func (p *Planner) PlanQuery(q *ast.CypherQuery) ([]Operator, error) {
	key := structuralKey(q)
	if ops, ok := p.Cache.Get(key); ok {
		return ops, nil
	}
	ops, err := p.planClauses(q.Clauses)
	if err != nil {
		return nil, err
	}
	p.Cache.Put(key, ops)
	return ops, nil
}

func (p *Planner) planClauses(clauses []ast.Clause) ([]Operator, error) {
	if len(clauses) == 0 {
		return nil, graph.New(graph.ErrCypherExecution, "query has no clauses")
	}

	var unionGroups [][]ast.Clause
	var cur []ast.Clause
	var distinctFlags []bool
	for _, c := range clauses {
		if uc, ok := c.(ast.UnionClause); ok {
			unionGroups = append(unionGroups, cur)
			distinctFlags = append(distinctFlags, uc.Distinct)
			cur = nil
			continue
		}
		cur = append(cur, c)
	}
	unionGroups = append(unionGroups, cur)

	if len(unionGroups) > 1 {
		left, err := p.planClauses(unionGroups[0])
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(unionGroups); i++ {
			right, err := p.planClauses(unionGroups[i])
			if err != nil {
				return nil, err
			}
			left = []Operator{Union{Left: left, Right: right, Distinct: distinctFlags[i-1]}}
		}
		return left, nil
	}

	return p.planLinear(clauses)
}

func (p *Planner) planLinear(clauses []ast.Clause) ([]Operator, error) {
	var ops []Operator
	for _, c := range clauses {
		switch cc := c.(type) {
		case ast.MatchClause:
			for _, pat := range cc.Patterns {
				patOps, err := p.planPattern(pat, false)
				if err != nil {
					return nil, err
				}
				ops = append(ops, patOps...)
			}
		case ast.OptionalMatchClause:
			for _, pat := range cc.Patterns {
				patOps, err := p.planPattern(pat, true)
				if err != nil {
					return nil, err
				}
				ops = append(ops, patOps...)
			}
		case ast.WhereClause:
			ops = append(ops, Filter{Predicate: cc.Predicate})
		case ast.WithClause:
			ops = append(ops, p.planProjection(cc.Items, cc.Distinct)...)
			if cc.Where != nil {
				ops = append(ops, Filter{Predicate: cc.Where})
			}
			ops = append(ops, p.planOrderSkipLimit(cc.OrderBy, cc.Skip, cc.Limit)...)
		case ast.ReturnClause:
			ops = append(ops, p.planProjection(cc.Items, cc.Distinct)...)
			ops = append(ops, p.planOrderSkipLimit(cc.OrderBy, cc.Skip, cc.Limit)...)
		case ast.UnwindClause:
			ops = append(ops, Unwind{Expr: cc.Expr, Variable: cc.Variable})
		case ast.CreateClause:
			for _, pat := range cc.Patterns {
				ops = append(ops, Create{Pattern: pat})
			}
		case ast.MergeClause:
			matchOps, err := p.planPattern(cc.Pattern, false)
			if err != nil {
				return nil, err
			}
			ops = append(ops, Merge{MatchPipeline: matchOps, Pattern: cc.Pattern, OnCreate: cc.OnCreate, OnMatch: cc.OnMatch})
		case ast.DeleteClause:
			ops = append(ops, Delete{Variables: cc.Variables, Detach: cc.Detach})
		case ast.SetClause:
			ops = append(ops, Set{Items: cc.Items})
		case ast.RemoveClause:
			ops = append(ops, Remove{Items: cc.Items})
		case ast.ForeachClause:
			inner, err := p.planClauses(cc.Clauses)
			if err != nil {
				return nil, err
			}
			ops = append(ops, Foreach{Variable: cc.Variable, Expr: cc.Expr, Body: inner})
		case ast.CallProcedureClause:
			ops = append(ops, CallProcedure{Name: cc.Name, Arguments: cc.Arguments, Yield: cc.Yield})
		case ast.LoadCsvClause:
			ops = append(ops, LoadCsv{URL: cc.URL, Variable: cc.Variable, WithHeaders: cc.WithHeaders, FieldTerminator: cc.FieldTerminator})
		case ast.CreateIndexClause:
			ops = append(ops, CreateIndex{Label: cc.Label, Property: cc.Property})
		case ast.DropIndexClause:
			ops = append(ops, DropIndex{Label: cc.Label, Property: cc.Property})
		case ast.CreateConstraintClause, ast.DropConstraintClause,
			ast.ExplainClause, ast.ProfileClause, ast.TransactionMarkerClause,
			ast.UseDatabaseClause, ast.CreateDatabaseClause, ast.DropDatabaseClause,
			ast.CreateUserClause, ast.DropUserClause:
			// Constraint DDL and transaction/database markers are handled
			// by pkg/engine directly and never reach the operator pipeline.
		default:
			return nil, graph.New(graph.ErrCypherExecution, "unplannable clause %T", c)
		}
	}
	return ops, nil
}

// planPattern lowers one MATCH/OPTIONAL MATCH pattern: a driving
// NodeByLabel/AllNodesScan plus inline-property Filters, followed by
// an Expand or VariableLengthPath per relationship.
func (p *Planner) planPattern(pat ast.Pattern, optional bool) ([]Operator, error) {
	var ops []Operator
	if len(pat.Elements) == 0 {
		return ops, nil
	}

	first := pat.Elements[0].(ast.NodePattern)
	driverOps, err := p.planDrivingNode(first)
	if err != nil {
		return nil, err
	}
	ops = append(ops, driverOps...)

	sourceVar := first.Variable
	for i := 1; i < len(pat.Elements); i += 2 {
		rel := pat.Elements[i].(ast.RelPattern)
		target := pat.Elements[i+1].(ast.NodePattern)

		typeIDs, err := p.resolveTypes(rel.Types)
		if err != nil {
			return nil, err
		}

		if rel.Quantifier != nil {
			ops = append(ops, VariableLengthPath{
				TypeIDs:   typeIDs,
				Direction: rel.Direction,
				SourceVar: sourceVar,
				TargetVar: target.Variable,
				RelVar:    rel.Variable,
				PathVar:   "",
				MinHops:   effectiveMinHops(rel.Quantifier.Min),
				MaxHops:   rel.Quantifier.Max,
				Optional:  optional,
			})
		} else {
			ops = append(ops, Expand{
				TypeIDs:   typeIDs,
				SourceVar: sourceVar,
				TargetVar: target.Variable,
				RelVar:    rel.Variable,
				Direction: rel.Direction,
				Optional:  optional,
			})
		}

		if len(target.Labels) > 0 || len(target.Properties) > 0 {
			filters, err := p.planInlineFilters(target)
			if err != nil {
				return nil, err
			}
			ops = append(ops, filters...)
		}
		sourceVar = target.Variable
	}
	return ops, nil
}

func (p *Planner) planDrivingNode(np ast.NodePattern) ([]Operator, error) {
	var ops []Operator
	if len(np.Labels) == 0 {
		ops = append(ops, AllNodesScan{Variable: np.Variable})
	} else {
		label, err := p.catalog.Label(np.Labels[0])
		if err != nil {
			return nil, err
		}
		ops = append(ops, NodeByLabel{Label: label, Variable: np.Variable})
		if len(np.Labels) > 1 {
			for _, extra := range np.Labels[1:] {
				ops = append(ops, Filter{Predicate: hasLabelPredicate(np.Variable, extra)})
			}
		}
	}
	filters, err := p.planInlineFilters(np)
	if err != nil {
		return nil, err
	}
	return append(ops, filters...), nil
}

func (p *Planner) planInlineFilters(np ast.NodePattern) ([]Operator, error) {
	var ops []Operator
	for key, val := range np.Properties {
		ops = append(ops, Filter{Predicate: ast.BinaryExpr{
			Op:    ast.OpEq,
			Left:  ast.PropertyExpr{Target: ast.VariableExpr{Name: np.Variable}, Key: key},
			Right: val,
		}})
	}
	return ops, nil
}

// hasLabelPredicate is a synthetic function-call predicate the
// executor's built-in function table resolves to a label membership
// check, used for multi-label pattern restriction.
func hasLabelPredicate(variable, label string) ast.Expr {
	return ast.FunctionCallExpr{
		Name:      "hasLabel",
		Arguments: []ast.Expr{ast.VariableExpr{Name: variable}, ast.LiteralExpr{Value: graph.Str(label)}},
	}
}

func (p *Planner) resolveTypes(names []string) ([]graph.TypeId, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]graph.TypeId, 0, len(names))
	for _, n := range names {
		id, err := p.catalog.Type(n)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (p *Planner) planProjection(items []ast.WithItem, distinct bool) []Operator {
	var ops []Operator
	aggItems, plain, isAgg := splitAggregations(items)
	if isAgg {
		ops = append(ops, Aggregate{Aggregations: aggItems, ProjectionItems: plain})
	} else {
		proj := make([]ProjectItem, len(items))
		cols := make([]string, len(items))
		for i, it := range items {
			proj[i] = ProjectItem{Expr: it.Expr, Alias: it.Alias}
			cols[i] = it.Alias
		}
		ops = append(ops, Project{Items: proj})
		if distinct {
			ops = append(ops, Distinct{Columns: cols})
		}
	}
	return ops
}

// splitAggregations detects whether any projection item contains an
// aggregate function call and, if so, separates aggregate
// accumulators from plain pass-through projection items.
func splitAggregations(items []ast.WithItem) ([]Aggregation, []ProjectItem, bool) {
	var aggs []Aggregation
	var plain []ProjectItem
	found := false
	for _, it := range items {
		if fc, ok := it.Expr.(ast.FunctionCallExpr); ok && isAggregateFunc(fc.Name) {
			found = true
			var arg ast.Expr
			if len(fc.Arguments) > 0 {
				arg = fc.Arguments[0]
			}
			aggs = append(aggs, Aggregation{Function: fc.Name, Argument: arg, Distinct: fc.Distinct, Alias: it.Alias})
			continue
		}
		plain = append(plain, ProjectItem{Expr: it.Expr, Alias: it.Alias})
	}
	return aggs, plain, found
}

func isAggregateFunc(name string) bool {
	switch name {
	case "count", "sum", "avg", "min", "max", "collect":
		return true
	default:
		return false
	}
}

func (p *Planner) planOrderSkipLimit(order []ast.OrderItem, skip, limit ast.Expr) []Operator {
	var ops []Operator
	if len(order) > 0 {
		cols := make([]SortColumn, len(order))
		for i, o := range order {
			cols[i] = SortColumn{Expr: o.Expr, Descending: o.Descending}
		}
		ops = append(ops, Sort{Columns: cols})
	}
	if skip != nil {
		ops = append(ops, Skip{Count: skip})
	}
	if limit != nil {
		ops = append(ops, Limit{Count: limit})
	}
	return ops
}

// effectiveMinHops maps the parser's "-1 means unbounded" sentinel to
// Cypher's documented default lower bound of 1 for a bare `*`.
func effectiveMinHops(min int) int {
	if min < 0 {
		return 1
	}
	return min
}
