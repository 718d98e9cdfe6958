package executor

import "github.com/cuemby/graphd/pkg/graph"

// Iterator is the pull-based cursor every operator implementation
// satisfies. Next returns (row, true, nil) for each produced row and
// (zero, false, nil) once exhausted; a non-nil error aborts the whole
// pipeline.
type Iterator interface {
	Next() (graph.Row, bool, error)
}

// singleRow seeds a pipeline with exactly one empty row, the Cartesian
// identity every MATCH/CREATE/UNWIND pipeline starts folding from.
type singleRow struct {
	done bool
}

func newSingleRow() Iterator { return &singleRow{} }

func (s *singleRow) Next() (graph.Row, bool, error) {
	if s.done {
		return graph.Row{}, false, nil
	}
	s.done = true
	return graph.NewRow(), true, nil
}

// sliceIterator replays a pre-materialized slice of rows.
type sliceIterator struct {
	rows []graph.Row
	pos  int
}

func newSliceIterator(rows []graph.Row) Iterator {
	return &sliceIterator{rows: rows}
}

func (s *sliceIterator) Next() (graph.Row, bool, error) {
	if s.pos >= len(s.rows) {
		return graph.Row{}, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

// flatMap drives upstream one row at a time and, for each, drains a
// per-row sub-iterator produced by expand before pulling the next
// upstream row. This is the workhorse behind NodeByLabel, AllNodesScan,
// Expand, VariableLengthPath, Unwind and Create: each turns one input
// row into zero or more output rows without needing to see the whole
// stream at once.
type flatMap struct {
	upstream Iterator
	cur      Iterator
	expand   func(graph.Row) (Iterator, error)
}

func newFlatMap(upstream Iterator, expand func(graph.Row) (Iterator, error)) Iterator {
	return &flatMap{upstream: upstream, expand: expand}
}

func (f *flatMap) Next() (graph.Row, bool, error) {
	for {
		if f.cur != nil {
			row, ok, err := f.cur.Next()
			if err != nil {
				return graph.Row{}, false, err
			}
			if ok {
				return row, true, nil
			}
			f.cur = nil
		}
		row, ok, err := f.upstream.Next()
		if err != nil {
			return graph.Row{}, false, err
		}
		if !ok {
			return graph.Row{}, false, nil
		}
		cur, err := f.expand(row)
		if err != nil {
			return graph.Row{}, false, err
		}
		f.cur = cur
	}
}

// filterMap applies fn to every upstream row, passing through rows for
// which fn reports keep=true. Used by Filter (fn never changes the
// row) and Project (fn always keeps, replacing the row's bindings).
type filterMap struct {
	upstream Iterator
	fn       func(graph.Row) (graph.Row, bool, error)
}

func newFilterMap(upstream Iterator, fn func(graph.Row) (graph.Row, bool, error)) Iterator {
	return &filterMap{upstream: upstream, fn: fn}
}

func (m *filterMap) Next() (graph.Row, bool, error) {
	for {
		row, ok, err := m.upstream.Next()
		if err != nil {
			return graph.Row{}, false, err
		}
		if !ok {
			return graph.Row{}, false, nil
		}
		out, keep, err := m.fn(row)
		if err != nil {
			return graph.Row{}, false, err
		}
		if keep {
			return out, true, nil
		}
	}
}

// drain exhausts it, collecting every row. Used by operators that need
// the whole input at once: Sort, Aggregate, Distinct, Union(distinct).
func drain(it Iterator) ([]graph.Row, error) {
	var out []graph.Row
	for {
		row, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, row)
	}
}
