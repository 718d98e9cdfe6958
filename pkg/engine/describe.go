package engine

import (
	"fmt"
	"strings"

	"github.com/cuemby/graphd/pkg/planner"
)

// operatorTypeName strips the package qualifier from an operator's
// concrete type, e.g. "planner.NodeByLabel" becomes "NodeByLabel", for
// a terse EXPLAIN/PROFILE plan dump.
func operatorTypeName(op planner.Operator) string {
	full := fmt.Sprintf("%T", op)
	if i := strings.LastIndex(full, "."); i >= 0 {
		return full[i+1:]
	}
	return full
}

// operatorDetail renders the fields of an operator that matter for
// reading a plan at a glance; nested operator-pipeline fields
// (Merge.MatchPipeline, Foreach.Body, Join.Left/Right, Union.Left/Right)
// are summarized by count rather than expanded, keeping one plan line
// per top-level operator.
func operatorDetail(op planner.Operator) string {
	switch o := op.(type) {
	case planner.NodeByLabel:
		return fmt.Sprintf("label=%d var=%s", o.Label, o.Variable)
	case planner.AllNodesScan:
		return fmt.Sprintf("var=%s", o.Variable)
	case planner.Filter:
		return "predicate"
	case planner.Expand:
		return fmt.Sprintf("%s-[%s]->%s types=%v optional=%v", o.SourceVar, o.RelVar, o.TargetVar, o.TypeIDs, o.Optional)
	case planner.VariableLengthPath:
		return fmt.Sprintf("%s-[%s*%d..%d]->%s optional=%v", o.SourceVar, o.RelVar, o.MinHops, o.MaxHops, o.TargetVar, o.Optional)
	case planner.Join:
		return fmt.Sprintf("type=%d left=%d right=%d", o.Type, len(o.Left), len(o.Right))
	case planner.Project:
		return fmt.Sprintf("columns=%d", len(o.Items))
	case planner.Aggregate:
		return fmt.Sprintf("group_by=%d aggregations=%d", len(o.GroupBy), len(o.Aggregations))
	case planner.Sort:
		return fmt.Sprintf("columns=%d", len(o.Columns))
	case planner.Distinct:
		return fmt.Sprintf("columns=%v", o.Columns)
	case planner.Limit:
		return "count"
	case planner.Skip:
		return "count"
	case planner.Union:
		return fmt.Sprintf("distinct=%v left=%d right=%d", o.Distinct, len(o.Left), len(o.Right))
	case planner.Create:
		return fmt.Sprintf("pattern_elements=%d", len(o.Pattern.Elements))
	case planner.Delete:
		return fmt.Sprintf("variables=%d detach=%v", len(o.Variables), o.Detach)
	case planner.Set:
		return fmt.Sprintf("items=%d", len(o.Items))
	case planner.Remove:
		return fmt.Sprintf("items=%d", len(o.Items))
	case planner.Merge:
		return fmt.Sprintf("match_pipeline=%d on_create=%d on_match=%d", len(o.MatchPipeline), len(o.OnCreate), len(o.OnMatch))
	case planner.Foreach:
		return fmt.Sprintf("var=%s body=%d", o.Variable, len(o.Body))
	case planner.Unwind:
		return fmt.Sprintf("var=%s", o.Variable)
	case planner.CallProcedure:
		return fmt.Sprintf("name=%s yield=%v", o.Name, o.Yield)
	case planner.LoadCsv:
		return fmt.Sprintf("var=%s with_headers=%v", o.Variable, o.WithHeaders)
	case planner.CreateIndex:
		return fmt.Sprintf("%s(%s)", o.Label, o.Property)
	case planner.DropIndex:
		return fmt.Sprintf("%s(%s)", o.Label, o.Property)
	default:
		return ""
	}
}
