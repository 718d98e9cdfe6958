package executor

import (
	"sort"
	"strings"

	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// buildFilter keeps only rows for which op.Predicate evaluates truthy,
// per Cypher's three-valued logic (Null and false are both dropped).
func buildFilter(c *evalCtx, op planner.Filter, upstream Iterator) Iterator {
	return newFilterMap(upstream, func(row graph.Row) (graph.Row, bool, error) {
		v, err := c.eval(op.Predicate, row)
		if err != nil {
			return graph.Row{}, false, err
		}
		return row, v.Truthy(), nil
	})
}

// buildProject replaces each row's bindings with the named output
// columns of op.Items, evaluated against the row being replaced.
func buildProject(c *evalCtx, op planner.Project, upstream Iterator) Iterator {
	return newFilterMap(upstream, func(row graph.Row) (graph.Row, bool, error) {
		out := graph.NewRow()
		for _, item := range op.Items {
			v, err := c.eval(item.Expr, row)
			if err != nil {
				return graph.Row{}, false, err
			}
			out = out.Set(item.Alias, v)
		}
		return out, true, nil
	})
}

// buildDistinct drains upstream and re-emits only the first row seen
// for each distinct combination of op.Columns (every bound variable if
// Columns is empty), preserving first-seen order. Draining is
// unavoidable: distinctness is a whole-stream property, matching
// Sort/Aggregate's need to see everything at once.
func buildDistinct(op planner.Distinct, upstream Iterator) (Iterator, error) {
	rows, err := drain(upstream)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []graph.Row
	for _, row := range rows {
		key := distinctKey(row, op.Columns)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return newSliceIterator(out), nil
}

func distinctKey(row graph.Row, columns []string) string {
	if len(columns) == 0 {
		columns = make([]string, 0, len(row.Values))
		for k := range row.Values {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}
	var sb strings.Builder
	for _, col := range columns {
		v, _ := row.Get(col)
		sb.WriteString(col)
		sb.WriteByte('=')
		sb.WriteString(v.String())
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

// buildLimit caps upstream at the first n rows, where n is evaluated
// once against an empty row since LIMIT's argument is a constant or
// parameter, never a per-row expression (spec §4.2).
func buildLimit(c *evalCtx, op planner.Limit, upstream Iterator) (Iterator, error) {
	n, err := evalCount(c, op.Count)
	if err != nil {
		return nil, err
	}
	return &limitIterator{upstream: upstream, remaining: n}, nil
}

type limitIterator struct {
	upstream  Iterator
	remaining int64
}

func (l *limitIterator) Next() (graph.Row, bool, error) {
	if l.remaining <= 0 {
		return graph.Row{}, false, nil
	}
	row, ok, err := l.upstream.Next()
	if err != nil || !ok {
		return graph.Row{}, false, err
	}
	l.remaining--
	return row, true, nil
}

// buildSkip discards the first n rows of upstream.
func buildSkip(c *evalCtx, op planner.Skip, upstream Iterator) (Iterator, error) {
	n, err := evalCount(c, op.Count)
	if err != nil {
		return nil, err
	}
	return &skipIterator{upstream: upstream, remaining: n}, nil
}

type skipIterator struct {
	upstream  Iterator
	remaining int64
}

func (s *skipIterator) Next() (graph.Row, bool, error) {
	for s.remaining > 0 {
		_, ok, err := s.upstream.Next()
		if err != nil || !ok {
			return graph.Row{}, false, err
		}
		s.remaining--
	}
	return s.upstream.Next()
}

// evalCount evaluates a LIMIT/SKIP count expression against an empty
// row and coerces it to an int64, defaulting to 0 for Null (an absent
// LIMIT/SKIP clause never reaches here; the planner only emits the
// operator when one was parsed).
func evalCount(c *evalCtx, expr ast.Expr) (int64, error) {
	v, err := c.eval(expr, graph.NewRow())
	if err != nil {
		return 0, err
	}
	switch v.Kind {
	case graph.KindI64:
		return v.I64, nil
	case graph.KindNull:
		return 0, nil
	default:
		return 0, graph.TypeMismatch("Integer", v.TypeName())
	}
}
