package engine

import (
	"time"

	"github.com/cuemby/graphd/pkg/catalog"
	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/cypher/parser"
	"github.com/cuemby/graphd/pkg/executor"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
	"github.com/google/uuid"
)

// QueryResult is ExecuteCypher's return value: column names plus every
// result row, alongside the stats a CLI or test assertion wants without
// re-deriving them. Columns are the first row's keys; their order is
// not defined and need not match the projection order.
type QueryResult struct {
	Columns []string
	Rows    []graph.Row
	Stats   QueryStats
}

// QueryStats carries the bookkeeping EXPLAIN/PROFILE and a REPL status
// line both want.
type QueryStats struct {
	Epoch        uint64
	RowsReturned int
	Elapsed      time.Duration
	Write        bool
}

// OperatorDescription is one line of an EXPLAIN/PROFILE plan dump.
type OperatorDescription struct {
	Type   string
	Detail string
}

// ExplainResult is returned by Explain/Profile instead of a
// QueryResult: the operator pipeline the planner built for the query,
// optionally alongside the rows PROFILE actually ran it to produce.
type ExplainResult struct {
	Operators []OperatorDescription
	Result    *QueryResult // nil for EXPLAIN, populated for PROFILE
}

// ExecuteCypher parses, plans and runs query inside a single
// transaction: a write transaction if the plan contains any mutating
// operator, a read snapshot otherwise. CREATE/DROP CONSTRAINT is
// intercepted before reaching the planner (see runConstraintDDL). A
// leading EXPLAIN or PROFILE clause is skipped by the planner, so the
// rest of the query runs as usual; the plan dump comes from Explain.
func (e *Engine) ExecuteCypher(query string, params map[string]graph.PropertyValue) (*QueryResult, error) {
	start := time.Now()
	queryID := uuid.NewString()
	logger := e.logger.With().Str("query_id", queryID).Logger()

	q, err := parser.Parse(query)
	if err != nil {
		return nil, graph.Wrap(graph.ErrCypherSyntax, err, "parse query")
	}

	if err := rejectUnsupportedClauses(q.Clauses); err != nil {
		return nil, err
	}

	if handled, result, err := e.runConstraintDDL(q.Clauses); handled {
		logger.Debug().Dur("elapsed", time.Since(start)).Msg("constraint ddl")
		return result, err
	}

	result, err := e.runClauses(q.Clauses, params)
	if err != nil {
		return nil, err
	}
	result.Stats.Elapsed = time.Since(start)
	logger.Debug().
		Int("rows", result.Stats.RowsReturned).
		Bool("write", result.Stats.Write).
		Dur("elapsed", result.Stats.Elapsed).
		Msg("query executed")
	return result, nil
}

// Explain plans query without executing it (EXPLAIN) or plans and
// executes it while still reporting the pipeline (PROFILE), based on
// query's leading clause.
func (e *Engine) Explain(query string, params map[string]graph.PropertyValue) (*ExplainResult, error) {
	q, err := parser.Parse(query)
	if err != nil {
		return nil, graph.Wrap(graph.ErrCypherSyntax, err, "parse query")
	}
	if len(q.Clauses) == 0 {
		return nil, graph.New(graph.ErrCypherExecution, "empty query")
	}

	profile := false
	switch q.Clauses[0].(type) {
	case ast.ExplainClause:
	case ast.ProfileClause:
		profile = true
	default:
		return nil, graph.New(graph.ErrCypherExecution, "Explain requires a leading EXPLAIN or PROFILE clause")
	}
	rest := q.Clauses[1:]

	if err := rejectUnsupportedClauses(rest); err != nil {
		return nil, err
	}

	ops, err := e.planner.PlanQuery(&ast.CypherQuery{Clauses: rest, Params: q.Params})
	if err != nil {
		return nil, err
	}
	out := &ExplainResult{Operators: describeOperators(ops)}
	if !profile {
		return out, nil
	}

	start := time.Now()
	result, err := e.runPlan(ops, params)
	if err != nil {
		return nil, err
	}
	result.Stats.Elapsed = time.Since(start)
	out.Result = result
	return out, nil
}

func describeOperators(ops []planner.Operator) []OperatorDescription {
	out := make([]OperatorDescription, len(ops))
	for i, op := range ops {
		out[i] = OperatorDescription{
			Type:   operatorTypeName(op),
			Detail: operatorDetail(op),
		}
	}
	return out
}

func rejectUnsupportedClauses(clauses []ast.Clause) error {
	for _, c := range clauses {
		switch c.(type) {
		case ast.UseDatabaseClause, ast.CreateDatabaseClause, ast.DropDatabaseClause,
			ast.CreateUserClause, ast.DropUserClause, ast.TransactionMarkerClause:
			return graph.New(graph.ErrCypherExecution,
				"unsupported clause %T: graphd is single-database with no user management or explicit transaction control", c)
		}
	}
	return nil
}

// runConstraintDDL handles CREATE/DROP CONSTRAINT directly against the
// catalog, since pkg/planner never lowers these into operators. A
// constraint clause must be the query's only clause.
func (e *Engine) runConstraintDDL(clauses []ast.Clause) (handled bool, result *QueryResult, err error) {
	if len(clauses) != 1 {
		for _, c := range clauses {
			switch c.(type) {
			case ast.CreateConstraintClause, ast.DropConstraintClause:
				return true, nil, graph.New(graph.ErrCypherExecution, "CREATE/DROP CONSTRAINT must be a standalone statement")
			}
		}
		return false, nil, nil
	}

	switch c := clauses[0].(type) {
	case ast.CreateConstraintClause:
		con := catalog.Constraint{
			ID:    uuid.NewString(),
			Kind:  constraintKind(c.Kind),
			Label: c.Label,
			Key:   c.Property,
		}
		if err := e.catalog.CreateConstraint(con); err != nil {
			return true, nil, err
		}
		return true, &QueryResult{}, nil
	case ast.DropConstraintClause:
		cons, err := e.catalog.ConstraintsFor(c.Label)
		if err != nil {
			return true, nil, err
		}
		kind := constraintKind(c.Kind)
		for _, con := range cons {
			if con.Key == c.Property && con.Kind == kind {
				if err := e.catalog.DropConstraint(con.ID); err != nil {
					return true, nil, err
				}
				break
			}
		}
		return true, &QueryResult{}, nil
	default:
		return false, nil, nil
	}
}

func constraintKind(k ast.ConstraintKind) catalog.ConstraintKind {
	if k == ast.ConstraintExists {
		return catalog.ConstraintExists
	}
	return catalog.ConstraintUnique
}

func (e *Engine) runClauses(clauses []ast.Clause, params map[string]graph.PropertyValue) (*QueryResult, error) {
	ops, err := e.planner.PlanQuery(&ast.CypherQuery{Clauses: clauses})
	if err != nil {
		return nil, err
	}
	return e.runPlan(ops, params)
}

func (e *Engine) runPlan(ops []planner.Operator, params map[string]graph.PropertyValue) (*QueryResult, error) {
	if isWritePlan(ops) {
		return e.runWritePlan(ops, params)
	}
	return e.runReadPlan(ops, params)
}

func (e *Engine) runReadPlan(ops []planner.Operator, params map[string]graph.PropertyValue) (*QueryResult, error) {
	rtx := e.mgr.BeginRead()
	defer rtx.Close()

	ex := executor.New(rtx.Stores, params)
	rows, err := ex.Run(ops)
	if err != nil {
		return nil, err
	}
	return &QueryResult{
		Columns: columnsOf(rows),
		Rows:    rows,
		Stats:   QueryStats{Epoch: rtx.Snapshot(), RowsReturned: len(rows)},
	}, nil
}

func (e *Engine) runWritePlan(ops []planner.Operator, params map[string]graph.PropertyValue) (*QueryResult, error) {
	wtx, err := e.mgr.BeginWrite()
	if err != nil {
		return nil, err
	}

	ex := executor.NewWrite(wtx, params)
	rows, err := ex.Run(ops)
	if err != nil {
		if abortErr := e.mgr.Abort(wtx); abortErr != nil {
			return nil, abortErr
		}
		return nil, err
	}

	epoch, err := e.mgr.Commit(wtx)
	if err != nil {
		return nil, err
	}
	return &QueryResult{
		Columns: columnsOf(rows),
		Rows:    rows,
		Stats:   QueryStats{Epoch: epoch, RowsReturned: len(rows), Write: true},
	}, nil
}

// isWritePlan reports whether any operator in ops mutates the graph.
// A Merge or Foreach's nested body can itself contain mutations even
// though the outer clause list looks read-only, so both recurse.
func isWritePlan(ops []planner.Operator) bool {
	for _, op := range ops {
		switch o := op.(type) {
		case planner.Create, planner.Delete, planner.Set, planner.Remove,
			planner.CreateIndex, planner.DropIndex:
			return true
		case planner.Merge:
			return true
		case planner.Foreach:
			if isWritePlan(o.Body) {
				return true
			}
		}
	}
	return false
}

// columnsOf lists the first row's keys as the column names, since
// pkg/executor's Project operator produces rows with identical key
// sets across the whole result. The keys come from a map, so their
// order is not defined.
func columnsOf(rows []graph.Row) []string {
	if len(rows) == 0 {
		return nil
	}
	cols := make([]string, 0, len(rows[0].Values))
	for k := range rows[0].Values {
		cols = append(cols, k)
	}
	return cols
}
