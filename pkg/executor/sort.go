package executor

import (
	"sort"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// buildSort drains upstream and returns a slice iterator over the
// stably-sorted result. ORDER BY is inherently whole-stream, so unlike
// Filter/Project this can't stay purely pull-based internally.
func buildSort(c *evalCtx, op planner.Sort, upstream Iterator) (Iterator, error) {
	rows, err := drain(upstream)
	if err != nil {
		return nil, err
	}

	keys := make([][]graph.PropertyValue, len(rows))
	for i, row := range rows {
		cols := make([]graph.PropertyValue, len(op.Columns))
		for j, col := range op.Columns {
			v, err := c.eval(col.Expr, row)
			if err != nil {
				return nil, err
			}
			cols[j] = v
		}
		keys[i] = cols
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ai, bi := idx[a], idx[b]
		for col := range op.Columns {
			cmp := compareOrderable(keys[ai][col], keys[bi][col])
			if cmp == 0 {
				continue
			}
			if op.Columns[col].Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	out := make([]graph.Row, len(rows))
	for i, pos := range idx {
		out[i] = rows[pos]
	}
	return newSliceIterator(out), nil
}

// compareOrderable orders values for ORDER BY: Null sorts after every
// non-null value in ascending order, and since a DESC column inverts
// this comparison, Null sorts first there. Values that Compare can't
// order fall back to
// comparing their type names so the sort stays total and stable.
func compareOrderable(a, b graph.PropertyValue) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}
	if cmp, ok := graph.Compare(a, b); ok {
		return cmp
	}
	switch {
	case a.TypeName() < b.TypeName():
		return -1
	case a.TypeName() > b.TypeName():
		return 1
	default:
		return 0
	}
}
