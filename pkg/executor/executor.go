package executor

import (
	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
	"github.com/cuemby/graphd/pkg/txn"
)

// Executor interprets one plan's operator pipeline against a single
// transaction. A query planned as read-only runs with WTx nil and
// every write operator rejects with graph.ErrCypherExecution; a write
// query carries both Stores and WTx, since write operators apply
// through the transaction while read operators (Filter, Expand, ...)
// read straight from the same Stores the transaction is mutating —
// eager-apply-with-undo (see pkg/txn's package doc) means a write's
// own later clauses already observe its earlier ones.
type Executor struct {
	Stores *txn.Stores
	WTx    *txn.WriteTx
	Params map[string]graph.PropertyValue
}

// New returns an Executor bound to a read-only snapshot.
func New(stores *txn.Stores, params map[string]graph.PropertyValue) *Executor {
	return &Executor{Stores: stores, Params: params}
}

// NewWrite returns an Executor whose write operators apply through wtx.
func NewWrite(wtx *txn.WriteTx, params map[string]graph.PropertyValue) *Executor {
	return &Executor{Stores: wtx.Stores, WTx: wtx, Params: params}
}

func (e *Executor) evalCtx() *evalCtx {
	return &evalCtx{stores: e.Stores, params: e.Params}
}

// Run executes the full plan and collects every result row. Queries
// expected to return large result sets should prefer RunStreaming;
// Run exists for the common case (REPL output, test assertions, CALL
// procedure results) where materializing the whole answer is fine.
func (e *Executor) Run(plan []planner.Operator) ([]graph.Row, error) {
	it, err := e.Build(plan)
	if err != nil {
		return nil, err
	}
	return drain(it)
}

// RunStreaming builds the plan's root iterator without draining it,
// for callers that want to pull rows one at a time.
func (e *Executor) RunStreaming(plan []planner.Operator) (Iterator, error) {
	return e.Build(plan)
}

// Build constructs the Iterator pipeline for plan, without executing
// it; Next() calls on the returned Iterator drive the whole chain.
func (e *Executor) Build(plan []planner.Operator) (Iterator, error) {
	return e.build(e.evalCtx(), plan, newSingleRow())
}

// build threads upstream through every operator in ops in order,
// dispatching each to its dedicated builder. This is the one place
// that must handle every planner.Operator variant exhaustively.
func (e *Executor) build(c *evalCtx, ops []planner.Operator, upstream Iterator) (Iterator, error) {
	cur := upstream
	for _, op := range ops {
		next, err := e.buildOne(c, op, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (e *Executor) buildOne(c *evalCtx, op planner.Operator, upstream Iterator) (Iterator, error) {
	switch o := op.(type) {
	case planner.AllNodesScan:
		return buildAllNodesScan(e.Stores, o, upstream), nil
	case planner.NodeByLabel:
		return buildNodeByLabel(e.Stores, o, upstream), nil
	case planner.Filter:
		return buildFilter(c, o, upstream), nil
	case planner.Expand:
		return buildExpand(e.Stores, o, upstream), nil
	case planner.VariableLengthPath:
		return buildVariableLengthPath(e.Stores, o, upstream), nil
	case planner.Join:
		return e.buildJoin(c, o)
	case planner.Project:
		return buildProject(c, o, upstream), nil
	case planner.Aggregate:
		return buildAggregate(c, o, upstream)
	case planner.Sort:
		return buildSort(c, o, upstream)
	case planner.Distinct:
		return buildDistinct(o, upstream)
	case planner.Limit:
		return buildLimit(c, o, upstream)
	case planner.Skip:
		return buildSkip(c, o, upstream)
	case planner.Union:
		return e.buildUnion(c, o)
	case planner.Create:
		return e.buildCreate(c, o, upstream)
	case planner.Delete:
		return e.buildDelete(c, o, upstream)
	case planner.Set:
		return e.buildSet(c, o, upstream)
	case planner.Remove:
		return e.buildRemove(c, o, upstream)
	case planner.Merge:
		return e.buildMerge(c, o, upstream)
	case planner.Foreach:
		return e.buildForeach(c, o, upstream)
	case planner.Unwind:
		return buildUnwind(c, o, upstream), nil
	case planner.CallProcedure:
		return e.buildCallProcedure(c, o, upstream)
	case planner.LoadCsv:
		return buildLoadCsv(c, o, upstream), nil
	case planner.CreateIndex:
		return e.buildCreateIndex(o, upstream)
	case planner.DropIndex:
		return e.buildDropIndex(o, upstream)
	default:
		return nil, graph.New(graph.ErrExecutor, "unsupported operator %T", op)
	}
}

func (e *Executor) requireWrite(what string) error {
	if e.WTx == nil {
		return graph.New(graph.ErrCypherExecution, "%s requires a write transaction", what)
	}
	return nil
}

func evalPropsMap(c *evalCtx, exprs map[string]ast.Expr, row graph.Row) (map[string]graph.PropertyValue, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make(map[string]graph.PropertyValue, len(exprs))
	for k, expr := range exprs {
		v, err := c.eval(expr, row)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
