package executor

import (
	"strconv"
	"strings"

	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
)

// evalFunction dispatches a function call to its implementation. The
// table is a plain switch rather than a map of closures, matching how
// small, fixed dispatch tables read elsewhere in this codebase (see
// pkg/cypher/lexer's punctuation switch).
func (c *evalCtx) evalFunction(e ast.FunctionCallExpr, row graph.Row) (graph.PropertyValue, error) {
	name := strings.ToLower(e.Name)

	// hasLabel is synthesized by pkg/planner for multi-label MATCH
	// predicates (n:Label1:Label2 lowers to a hasLabel(n, "Label1")
	// AND hasLabel(n, "Label2") Filter); it never appears in parsed
	// Cypher text.
	if name == "haslabel" {
		return c.evalHasLabel(e, row)
	}

	args := make([]graph.PropertyValue, len(e.Arguments))
	for i, a := range e.Arguments {
		v, err := c.eval(a, row)
		if err != nil {
			return graph.Null(), err
		}
		args[i] = v
	}

	switch name {
	case "id":
		return evalID(args)
	case "type":
		return evalType(args)
	case "labels":
		return evalLabels(args)
	case "properties":
		return evalProperties(args)
	case "keys":
		return evalKeys(args)
	case "coalesce":
		return evalCoalesce(args)
	case "toupper":
		return evalStringFn(args, strings.ToUpper)
	case "tolower":
		return evalStringFn(args, strings.ToLower)
	case "trim":
		return evalStringFn(args, strings.TrimSpace)
	case "tostring":
		return evalToString(args)
	case "tointeger":
		return evalToInteger(args)
	case "tofloat":
		return evalToFloat(args)
	case "size":
		return evalSize(args)
	case "length":
		return evalLength(args)
	case "abs":
		return evalAbs(args)
	case "range":
		return evalRange(args)
	case "startnode":
		return evalStartNode(args)
	case "endnode":
		return evalEndNode(args)
	case "exists":
		return evalExists(args)
	default:
		return graph.Null(), graph.New(graph.ErrCypherExecution, "unknown function %q", e.Name)
	}
}

func requireArgs(args []graph.PropertyValue, n int) error {
	if len(args) != n {
		return graph.New(graph.ErrCypherExecution, "function expects %d argument(s), got %d", n, len(args))
	}
	return nil
}

func (c *evalCtx) evalHasLabel(e ast.FunctionCallExpr, row graph.Row) (graph.PropertyValue, error) {
	if len(e.Arguments) != 2 {
		return graph.Null(), graph.New(graph.ErrInternal, "hasLabel expects 2 arguments, got %d", len(e.Arguments))
	}
	target, err := c.eval(e.Arguments[0], row)
	if err != nil {
		return graph.Null(), err
	}
	labelExpr, ok := e.Arguments[1].(ast.LiteralExpr)
	if !ok || labelExpr.Value.Kind != graph.KindString {
		return graph.Null(), graph.New(graph.ErrInternal, "hasLabel expects a literal string label name")
	}
	if target.IsNull() {
		return graph.Null(), nil
	}
	if target.Kind != graph.KindNode {
		return graph.Null(), graph.TypeMismatch("Node", target.TypeName())
	}
	for _, lbl := range target.Node.Labels {
		if lbl == labelExpr.Value.Str {
			return graph.Bool(true), nil
		}
	}
	return graph.Bool(false), nil
}

func evalID(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	switch args[0].Kind {
	case graph.KindNode:
		return graph.I64(int64(args[0].Node.ID)), nil
	case graph.KindRelationship:
		return graph.I64(int64(args[0].Rel.ID)), nil
	case graph.KindNull:
		return graph.Null(), nil
	default:
		return graph.Null(), graph.TypeMismatch("Node or Relationship", args[0].TypeName())
	}
}

func evalType(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	if args[0].IsNull() {
		return graph.Null(), nil
	}
	if args[0].Kind != graph.KindRelationship {
		return graph.Null(), graph.TypeMismatch("Relationship", args[0].TypeName())
	}
	return graph.Str(args[0].Rel.Type), nil
}

func evalLabels(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	if args[0].IsNull() {
		return graph.Null(), nil
	}
	if args[0].Kind != graph.KindNode {
		return graph.Null(), graph.TypeMismatch("Node", args[0].TypeName())
	}
	out := make([]graph.PropertyValue, len(args[0].Node.Labels))
	for i, l := range args[0].Node.Labels {
		out[i] = graph.Str(l)
	}
	return graph.List(out), nil
}

func evalProperties(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	switch args[0].Kind {
	case graph.KindNode:
		return graph.Map(args[0].Node.Properties), nil
	case graph.KindRelationship:
		return graph.Map(args[0].Rel.Properties), nil
	case graph.KindMap:
		return args[0], nil
	case graph.KindNull:
		return graph.Null(), nil
	default:
		return graph.Null(), graph.TypeMismatch("Node, Relationship or Map", args[0].TypeName())
	}
}

func evalKeys(args []graph.PropertyValue) (graph.PropertyValue, error) {
	props, err := evalProperties(args)
	if err != nil {
		return graph.Null(), err
	}
	if props.IsNull() {
		return graph.Null(), nil
	}
	out := make([]graph.PropertyValue, 0, len(props.Map))
	for k := range props.Map {
		out = append(out, graph.Str(k))
	}
	return graph.List(out), nil
}

func evalCoalesce(args []graph.PropertyValue) (graph.PropertyValue, error) {
	for _, a := range args {
		if !a.IsNull() {
			return a, nil
		}
	}
	return graph.Null(), nil
}

func evalStringFn(args []graph.PropertyValue, fn func(string) string) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	if args[0].IsNull() {
		return graph.Null(), nil
	}
	if args[0].Kind != graph.KindString {
		return graph.Null(), graph.TypeMismatch("String", args[0].TypeName())
	}
	return graph.Str(fn(args[0].Str)), nil
}

func evalToString(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	if args[0].IsNull() {
		return graph.Null(), nil
	}
	return graph.Str(args[0].String()), nil
}

func evalToInteger(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	switch args[0].Kind {
	case graph.KindNull:
		return graph.Null(), nil
	case graph.KindI64:
		return args[0], nil
	case graph.KindF64:
		return graph.I64(int64(args[0].F64)), nil
	case graph.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(args[0].Str), 10, 64)
		if err != nil {
			return graph.Null(), nil
		}
		return graph.I64(n), nil
	default:
		return graph.Null(), graph.TypeMismatch("Integer, Float or String", args[0].TypeName())
	}
}

func evalToFloat(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	switch args[0].Kind {
	case graph.KindNull:
		return graph.Null(), nil
	case graph.KindF64:
		return args[0], nil
	case graph.KindI64:
		return graph.F64(float64(args[0].I64)), nil
	case graph.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(args[0].Str), 64)
		if err != nil {
			return graph.Null(), nil
		}
		return graph.F64(f), nil
	default:
		return graph.Null(), graph.TypeMismatch("Integer, Float or String", args[0].TypeName())
	}
}

func evalSize(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	switch args[0].Kind {
	case graph.KindNull:
		return graph.Null(), nil
	case graph.KindList:
		return graph.I64(int64(len(args[0].List))), nil
	case graph.KindString:
		return graph.I64(int64(len(args[0].Str))), nil
	default:
		return graph.Null(), graph.TypeMismatch("List or String", args[0].TypeName())
	}
}

func evalLength(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	if args[0].IsNull() {
		return graph.Null(), nil
	}
	if args[0].Kind != graph.KindPath {
		return graph.Null(), graph.TypeMismatch("Path", args[0].TypeName())
	}
	return graph.I64(int64(len(args[0].Path.Rels))), nil
}

func evalAbs(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	switch args[0].Kind {
	case graph.KindNull:
		return graph.Null(), nil
	case graph.KindI64:
		v := args[0].I64
		if v < 0 {
			v = -v
		}
		return graph.I64(v), nil
	case graph.KindF64:
		v := args[0].F64
		if v < 0 {
			v = -v
		}
		return graph.F64(v), nil
	default:
		return graph.Null(), graph.TypeMismatch("Integer or Float", args[0].TypeName())
	}
}

func evalRange(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if len(args) != 2 && len(args) != 3 {
		return graph.Null(), graph.New(graph.ErrCypherExecution, "range expects 2 or 3 arguments, got %d", len(args))
	}
	for _, a := range args {
		if a.IsNull() {
			return graph.Null(), nil
		}
		if a.Kind != graph.KindI64 {
			return graph.Null(), graph.TypeMismatch("Integer", a.TypeName())
		}
	}
	start, end := args[0].I64, args[1].I64
	step := int64(1)
	if len(args) == 3 {
		step = args[2].I64
	}
	if step == 0 {
		return graph.Null(), graph.New(graph.ErrCypherExecution, "range step must not be zero")
	}
	var out []graph.PropertyValue
	if step > 0 {
		for v := start; v <= end; v += step {
			out = append(out, graph.I64(v))
		}
	} else {
		for v := start; v >= end; v += step {
			out = append(out, graph.I64(v))
		}
	}
	return graph.List(out), nil
}

func evalStartNode(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	if args[0].IsNull() {
		return graph.Null(), nil
	}
	if args[0].Kind != graph.KindRelationship {
		return graph.Null(), graph.TypeMismatch("Relationship", args[0].TypeName())
	}
	return graph.I64(int64(args[0].Rel.StartNode)), nil
}

func evalEndNode(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	if args[0].IsNull() {
		return graph.Null(), nil
	}
	if args[0].Kind != graph.KindRelationship {
		return graph.Null(), graph.TypeMismatch("Relationship", args[0].TypeName())
	}
	return graph.I64(int64(args[0].Rel.EndNode)), nil
}

func evalExists(args []graph.PropertyValue) (graph.PropertyValue, error) {
	if err := requireArgs(args, 1); err != nil {
		return graph.Null(), err
	}
	return graph.Bool(!args[0].IsNull()), nil
}
