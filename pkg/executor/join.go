package executor

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// buildJoin evaluates op.Condition over the cross product of the left
// and right sub-pipelines' materialized rows. The planner does not
// currently emit Join (every pattern the parser produces lowers to a
// chain of Expand operators instead), but the operator is implemented
// for completeness since pkg/planner.Join is part of the operator sum
// type a conforming executor must interpret, and a future planner
// change (e.g. joining two independently-matched patterns sharing a
// variable) can lower directly to it without an executor change.
func (e *Executor) buildJoin(c *evalCtx, op planner.Join) (Iterator, error) {
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

	var out []graph.Row
	rightMatched := make([]bool, len(rightRows))
	for _, l := range leftRows {
		matched := false
		for ri, r := range rightRows {
			merged := l.Merge(r)
			keep := true
			if op.Condition != nil {
				v, err := c.eval(op.Condition, merged)
				if err != nil {
					return nil, err
				}
				keep = v.Truthy()
			}
			if !keep {
				continue
			}
			matched = true
			rightMatched[ri] = true
			out = append(out, merged)
		}
		if !matched && (op.Type == planner.JoinLeft || op.Type == planner.JoinFull) {
			out = append(out, l)
		}
	}
	if op.Type == planner.JoinRight || op.Type == planner.JoinFull {
		for ri, r := range rightRows {
			if !rightMatched[ri] {
				out = append(out, r)
			}
		}
	}
	return newSliceIterator(out), nil
}
