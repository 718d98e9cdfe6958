package executor

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// buildUnion concatenates the Left and Right sub-pipelines' rows,
// de-duplicating across both when op.Distinct (UNION without ALL).
func (e *Executor) buildUnion(c *evalCtx, op planner.Union) (Iterator, error) {
	left, err := e.build(c, op.Left, newSingleRow())
	if err != nil {
		return nil, err
	}
	leftRows, err := drain(left)
	if err != nil {
		return nil, err
	}
	right, err := e.build(c, op.Right, newSingleRow())
	if err != nil {
		return nil, err
	}
	rightRows, err := drain(right)
	if err != nil {
		return nil, err
	}

	all := append(leftRows, rightRows...)
	if !op.Distinct {
		return newSliceIterator(all), nil
	}
	seen := make(map[string]bool)
	var out []graph.Row
	for _, row := range all {
		key := distinctKey(row, nil)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return newSliceIterator(out), nil
}
