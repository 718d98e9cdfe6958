package executor

import (
	"strings"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// buildAggregate drains upstream, groups rows by the non-aggregated
// projection expressions (op.GroupBy when the planner populates it
// explicitly, otherwise op.ProjectionItems' expressions — the planner
// currently always takes the latter path: every plain expression
// alongside an aggregate function acts as an implicit GROUP BY key,
// matching openCypher semantics), and folds each group's rows through
// every accumulator in op.Aggregations.
func buildAggregate(c *evalCtx, op planner.Aggregate, upstream Iterator) (Iterator, error) {
	rows, err := drain(upstream)
	if err != nil {
		return nil, err
	}

	groupExprs := op.GroupBy
	if len(groupExprs) == 0 {
		for _, item := range op.ProjectionItems {
			groupExprs = append(groupExprs, item.Expr)
		}
	}

	type group struct {
		key    []graph.PropertyValue
		accums []accumulator
	}
	order := make([]string, 0)
	groups := make(map[string]*group)

	for _, row := range rows {
		key := make([]graph.PropertyValue, len(groupExprs))
		for i, e := range groupExprs {
			v, err := c.eval(e, row)
			if err != nil {
				return nil, err
			}
			key[i] = v
		}
		keyStr := groupKeyString(key)
		g, ok := groups[keyStr]
		if !ok {
			g = &group{key: key, accums: make([]accumulator, len(op.Aggregations))}
			for i, agg := range op.Aggregations {
				g.accums[i] = newAccumulator(agg)
			}
			groups[keyStr] = g
			order = append(order, keyStr)
		}
		for i, agg := range op.Aggregations {
			var v graph.PropertyValue
			if agg.Argument != nil {
				v, err = c.eval(agg.Argument, row)
				if err != nil {
					return nil, err
				}
			}
			g.accums[i].add(v)
		}
	}

	if len(groups) == 0 && len(groupExprs) == 0 {
		// No input rows and no group-by keys: a bare aggregate like
		// `RETURN count(*)` still reports one row of zero-valued
		// accumulators, matching Cypher's semantics over an empty match.
		g := &group{accums: make([]accumulator, len(op.Aggregations))}
		for i, agg := range op.Aggregations {
			g.accums[i] = newAccumulator(agg)
		}
		groups[""] = g
		order = append(order, "")
	}

	out := make([]graph.Row, 0, len(order))
	for _, k := range order {
		g := groups[k]
		row := graph.NewRow()
		for i, item := range op.ProjectionItems {
			row = row.Set(item.Alias, g.key[i])
		}
		for i, agg := range op.Aggregations {
			row = row.Set(agg.Alias, g.accums[i].result())
		}
		out = append(out, row)
	}
	return newSliceIterator(out), nil
}

func groupKeyString(key []graph.PropertyValue) string {
	var sb strings.Builder
	for _, v := range key {
		sb.WriteString(v.TypeName())
		sb.WriteByte(':')
		sb.WriteString(v.String())
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

// accumulator folds a stream of values into one aggregate function's
// result, per the spec's count/sum/avg/min/max/collect function set.
type accumulator interface {
	add(v graph.PropertyValue)
	result() graph.PropertyValue
}

func newAccumulator(agg planner.Aggregation) accumulator {
	switch strings.ToLower(agg.Function) {
	case "count":
		return &countAcc{star: agg.Argument == nil, distinct: agg.Distinct, seen: map[string]bool{}}
	case "sum":
		return &sumAcc{}
	case "avg":
		return &avgAcc{}
	case "min":
		return &minMaxAcc{wantMin: true}
	case "max":
		return &minMaxAcc{wantMin: false}
	case "collect":
		return &collectAcc{distinct: agg.Distinct, seen: map[string]bool{}}
	default:
		return &noopAcc{}
	}
}

type noopAcc struct{}

func (*noopAcc) add(graph.PropertyValue)         {}
func (*noopAcc) result() graph.PropertyValue     { return graph.Null() }

type countAcc struct {
	star     bool
	distinct bool
	seen     map[string]bool
	n        int64
}

func (a *countAcc) add(v graph.PropertyValue) {
	if !a.star && v.IsNull() {
		return
	}
	if a.distinct {
		key := v.TypeName() + ":" + v.String()
		if a.seen[key] {
			return
		}
		a.seen[key] = true
	}
	a.n++
}
func (a *countAcc) result() graph.PropertyValue { return graph.I64(a.n) }

type sumAcc struct {
	intSum   int64
	floatSum float64
	isFloat  bool
	any      bool
}

func (a *sumAcc) add(v graph.PropertyValue) {
	switch v.Kind {
	case graph.KindI64:
		a.any = true
		a.intSum += v.I64
	case graph.KindF64:
		a.any = true
		a.isFloat = true
		a.floatSum += v.F64
	}
}
func (a *sumAcc) result() graph.PropertyValue {
	if !a.any {
		return graph.I64(0)
	}
	if a.isFloat {
		return graph.F64(a.floatSum + float64(a.intSum))
	}
	return graph.I64(a.intSum)
}

type avgAcc struct {
	sum   float64
	count int64
}

func (a *avgAcc) add(v graph.PropertyValue) {
	switch v.Kind {
	case graph.KindI64:
		a.sum += float64(v.I64)
		a.count++
	case graph.KindF64:
		a.sum += v.F64
		a.count++
	}
}
func (a *avgAcc) result() graph.PropertyValue {
	if a.count == 0 {
		return graph.Null()
	}
	return graph.F64(a.sum / float64(a.count))
}

type minMaxAcc struct {
	wantMin bool
	has     bool
	best    graph.PropertyValue
}

func (a *minMaxAcc) add(v graph.PropertyValue) {
	if v.IsNull() {
		return
	}
	if !a.has {
		a.best = v
		a.has = true
		return
	}
	cmp := compareOrderable(v, a.best)
	if (a.wantMin && cmp < 0) || (!a.wantMin && cmp > 0) {
		a.best = v
	}
}
func (a *minMaxAcc) result() graph.PropertyValue {
	if !a.has {
		return graph.Null()
	}
	return a.best
}

type collectAcc struct {
	distinct bool
	seen     map[string]bool
	items    []graph.PropertyValue
}

func (a *collectAcc) add(v graph.PropertyValue) {
	if v.IsNull() {
		return
	}
	if a.distinct {
		key := v.TypeName() + ":" + v.String()
		if a.seen[key] {
			return
		}
		a.seen[key] = true
	}
	a.items = append(a.items, v)
}
func (a *collectAcc) result() graph.PropertyValue { return graph.List(a.items) }
