package executor

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// procedure is a built-in CALL target. It receives the evaluated call
// arguments and returns its result rows, independent of op.Yield — the
// caller projects down to the yielded columns.
type procedure func(e *Executor, args []graph.PropertyValue) ([]graph.Row, error)

var procedureRegistry = map[string]procedure{
	"db.labels":             procDbLabels,
	"db.relationshipTypes":  procDbRelationshipTypes,
	"db.propertyKeys":       procDbPropertyKeys,
	"db.stats":              procDbStats,
}

// buildCallProcedure looks up op.Name in the built-in registry, runs
// it once per input row (procedures are independent of row state, but
// CALL can still appear mid-pipeline), and merges its yielded columns
// into the row.
func (e *Executor) buildCallProcedure(c *evalCtx, op planner.CallProcedure, upstream Iterator) (Iterator, error) {
	proc, ok := procedureRegistry[op.Name]
	if !ok {
		return nil, graph.New(graph.ErrCypherExecution, "unknown procedure %q", op.Name)
	}
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		args := make([]graph.PropertyValue, len(op.Arguments))
		for i, argExpr := range op.Arguments {
			v, err := c.eval(argExpr, row)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		results, err := proc(e, args)
		if err != nil {
			return nil, err
		}
		out := make([]graph.Row, len(results))
		for i, r := range results {
			merged := row.Clone()
			for k, v := range r.Values {
				if len(op.Yield) == 0 || containsStr(op.Yield, k) {
					merged = merged.Set(k, v)
				}
			}
			out[i] = merged
		}
		return newSliceIterator(out), nil
	}), nil
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func procDbLabels(e *Executor, _ []graph.PropertyValue) ([]graph.Row, error) {
	names := e.Stores.Catalog.Labels()
	out := make([]graph.Row, len(names))
	for i, n := range names {
		out[i] = graph.NewRow().Set("label", graph.Str(n))
	}
	return out, nil
}

func procDbRelationshipTypes(e *Executor, _ []graph.PropertyValue) ([]graph.Row, error) {
	names := e.Stores.Catalog.RelationshipTypes()
	out := make([]graph.Row, len(names))
	for i, n := range names {
		out[i] = graph.NewRow().Set("relationshipType", graph.Str(n))
	}
	return out, nil
}

func procDbPropertyKeys(e *Executor, _ []graph.PropertyValue) ([]graph.Row, error) {
	names := e.Stores.Catalog.PropertyKeys()
	out := make([]graph.Row, len(names))
	for i, n := range names {
		out[i] = graph.NewRow().Set("propertyKey", graph.Str(n))
	}
	return out, nil
}

// procDbStats yields one row per label with its live node count and
// one row per relationship type with its live relationship count,
// distinguished by the "kind" column.
func procDbStats(e *Executor, _ []graph.PropertyValue) ([]graph.Row, error) {
	var out []graph.Row
	for _, name := range e.Stores.Catalog.Labels() {
		id, ok := e.Stores.Catalog.LookupLabel(name)
		if !ok {
			continue
		}
		count, err := e.Stores.Catalog.LabelLiveCount(id)
		if err != nil {
			return nil, err
		}
		out = append(out, graph.NewRow().
			Set("kind", graph.Str("label")).
			Set("name", graph.Str(name)).
			Set("count", graph.I64(int64(count))))
	}
	for _, name := range e.Stores.Catalog.RelationshipTypes() {
		id, ok := e.Stores.Catalog.LookupType(name)
		if !ok {
			continue
		}
		count, err := e.Stores.Catalog.TypeLiveCount(id)
		if err != nil {
			return nil, err
		}
		out = append(out, graph.NewRow().
			Set("kind", graph.Str("relationshipType")).
			Set("name", graph.Str(name)).
			Set("count", graph.I64(int64(count))))
	}
	return out, nil
}
