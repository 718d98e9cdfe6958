// Package planner turns a parsed Cypher query into a flat operator
// pipeline for pkg/executor to interpret, with a TTL/LRU plan cache
// in front of the translation step.
package planner

import (
	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
)

// Operator is implemented by every node in a plan's operator
// pipeline.
type Operator interface {
	operatorNode()
	// Cost buckets this operator for the planner's partition-and-sort
	// cost model.
	Cost() CostClass
}

// CostClass partitions operators for the additive cost model.
type CostClass int

const (
	CostScan CostClass = iota
	CostFilter
	CostExpansion
	CostJoin
	CostOther
)

type NodeByLabel struct {
	Label    graph.LabelId
	Variable string
}

func (NodeByLabel) operatorNode()   {}
func (NodeByLabel) Cost() CostClass { return CostScan }

type AllNodesScan struct {
	Variable string
}

func (AllNodesScan) operatorNode()   {}
func (AllNodesScan) Cost() CostClass { return CostScan }

type Filter struct {
	Predicate ast.Expr
}

func (Filter) operatorNode()   {}
func (Filter) Cost() CostClass { return CostFilter }

type Expand struct {
	TypeIDs    []graph.TypeId
	SourceVar  string
	TargetVar  string
	RelVar     string
	Direction  ast.Direction
	Optional   bool
}

func (Expand) operatorNode()   {}
func (Expand) Cost() CostClass { return CostExpansion }

type VariableLengthPath struct {
	TypeIDs   []graph.TypeId
	Direction ast.Direction
	SourceVar string
	TargetVar string
	RelVar    string
	PathVar   string
	MinHops   int
	MaxHops   int // -1 means unbounded
	Optional  bool
}

func (VariableLengthPath) operatorNode()   {}
func (VariableLengthPath) Cost() CostClass { return CostExpansion }

// JoinType enumerates the supported join kinds.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

type Join struct {
	Left      []Operator
	Right     []Operator
	Condition ast.Expr
	Type      JoinType
}

func (Join) operatorNode()   {}
func (Join) Cost() CostClass { return CostJoin }

// ProjectItem is one named output column.
type ProjectItem struct {
	Expr  ast.Expr
	Alias string
}

type Project struct {
	Items []ProjectItem
}

func (Project) operatorNode()   {}
func (Project) Cost() CostClass { return CostOther }

// Aggregation is one aggregate accumulator in an Aggregate operator.
type Aggregation struct {
	Function string // count, sum, avg, min, max, collect
	Argument ast.Expr
	Distinct bool
	Alias    string
}

type Aggregate struct {
	GroupBy         []ast.Expr
	Aggregations    []Aggregation
	ProjectionItems []ProjectItem
}

func (Aggregate) operatorNode()   {}
func (Aggregate) Cost() CostClass { return CostJoin }

type SortColumn struct {
	Expr       ast.Expr
	Descending bool
}

type Sort struct {
	Columns []SortColumn
}

func (Sort) operatorNode()   {}
func (Sort) Cost() CostClass { return CostJoin }

type Distinct struct {
	Columns []string
}

func (Distinct) operatorNode()   {}
func (Distinct) Cost() CostClass { return CostOther }

type Limit struct {
	Count ast.Expr
}

func (Limit) operatorNode()   {}
func (Limit) Cost() CostClass { return CostOther }

type Skip struct {
	Count ast.Expr
}

func (Skip) operatorNode()   {}
func (Skip) Cost() CostClass { return CostOther }

type Union struct {
	Left     []Operator
	Right    []Operator
	Distinct bool
}

func (Union) operatorNode()   {}
func (Union) Cost() CostClass { return CostOther }

type Create struct {
	Pattern ast.Pattern
}

func (Create) operatorNode()   {}
func (Create) Cost() CostClass { return CostOther }

type Delete struct {
	Variables []ast.Expr
	Detach    bool
}

func (Delete) operatorNode()   {}
func (Delete) Cost() CostClass { return CostOther }

type Set struct {
	Items []ast.SetItem
}

func (Set) operatorNode()   {}
func (Set) Cost() CostClass { return CostOther }

type Remove struct {
	Items []ast.RemoveItem
}

func (Remove) operatorNode()   {}
func (Remove) Cost() CostClass { return CostOther }

type Merge struct {
	MatchPipeline []Operator
	Pattern       ast.Pattern
	OnCreate      []ast.SetItem
	OnMatch       []ast.SetItem
}

func (Merge) operatorNode()   {}
func (Merge) Cost() CostClass { return CostOther }

// Foreach applies its Body pipeline once per element of Expr, with
// Variable bound to the current element on each iteration. Unlike
// Unwind it does not emit rows downstream; it exists purely for its
// Body's write-clause side effects.
type Foreach struct {
	Variable string
	Expr     ast.Expr
	Body     []Operator
}

func (Foreach) operatorNode()   {}
func (Foreach) Cost() CostClass { return CostOther }

type Unwind struct {
	Expr     ast.Expr
	Variable string
}

func (Unwind) operatorNode()   {}
func (Unwind) Cost() CostClass { return CostOther }

type CallProcedure struct {
	Name      string
	Arguments []ast.Expr
	Yield     []string
}

func (CallProcedure) operatorNode()   {}
func (CallProcedure) Cost() CostClass { return CostOther }

type LoadCsv struct {
	URL             ast.Expr
	Variable        string
	WithHeaders     bool
	FieldTerminator string
}

func (LoadCsv) operatorNode()   {}
func (LoadCsv) Cost() CostClass { return CostOther }

type CreateIndex struct {
	Label    string
	Property string
}

func (CreateIndex) operatorNode()   {}
func (CreateIndex) Cost() CostClass { return CostOther }

type DropIndex struct {
	Label    string
	Property string
}

func (DropIndex) operatorNode()   {}
func (DropIndex) Cost() CostClass { return CostOther }
