package executor

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
)

// evalBinary implements every infix operator with Cypher's three-valued
// logic: AND/OR short-circuit per Kleene's tables (Null is an unknown,
// not a falsy value), and every other operator propagates Null from
// either operand straight through.
func (c *evalCtx) evalBinary(e ast.BinaryExpr, row graph.Row) (graph.PropertyValue, error) {
	switch e.Op {
	case ast.OpAnd:
		return c.evalAnd(e, row)
	case ast.OpOr:
		return c.evalOr(e, row)
	}

	left, err := c.eval(e.Left, row)
	if err != nil {
		return graph.Null(), err
	}
	right, err := c.eval(e.Right, row)
	if err != nil {
		return graph.Null(), err
	}

	switch e.Op {
	case ast.OpXor:
		if left.IsNull() || right.IsNull() {
			return graph.Null(), nil
		}
		return graph.Bool(left.Truthy() != right.Truthy()), nil
	case ast.OpEq:
		return graph.Equal(left, right), nil
	case ast.OpNeq:
		eq := graph.Equal(left, right)
		if eq.IsNull() {
			return graph.Null(), nil
		}
		return graph.Bool(!eq.Bool), nil
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return c.evalComparison(e.Op, left, right)
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		return c.evalArithmetic(e.Op, left, right)
	case ast.OpIn:
		return c.evalIn(left, right)
	case ast.OpContains:
		return c.evalStringOp(left, right, strings.Contains)
	case ast.OpStartsWith:
		return c.evalStringOp(left, right, strings.HasPrefix)
	case ast.OpEndsWith:
		return c.evalStringOp(left, right, strings.HasSuffix)
	case ast.OpRegex:
		return c.evalRegex(left, right)
	default:
		return graph.Null(), graph.New(graph.ErrInternal, "unknown binary operator %d", e.Op)
	}
}

// evalAnd implements Kleene AND: false dominates even a Null partner,
// otherwise Null propagates, otherwise both must be true.
func (c *evalCtx) evalAnd(e ast.BinaryExpr, row graph.Row) (graph.PropertyValue, error) {
	left, err := c.eval(e.Left, row)
	if err != nil {
		return graph.Null(), err
	}
	if left.Kind == graph.KindBool && !left.Bool {
		return graph.Bool(false), nil
	}
	right, err := c.eval(e.Right, row)
	if err != nil {
		return graph.Null(), err
	}
	if right.Kind == graph.KindBool && !right.Bool {
		return graph.Bool(false), nil
	}
	if left.IsNull() || right.IsNull() {
		return graph.Null(), nil
	}
	return graph.Bool(left.Truthy() && right.Truthy()), nil
}

// evalOr implements Kleene OR: true dominates even a Null partner.
func (c *evalCtx) evalOr(e ast.BinaryExpr, row graph.Row) (graph.PropertyValue, error) {
	left, err := c.eval(e.Left, row)
	if err != nil {
		return graph.Null(), err
	}
	if left.Kind == graph.KindBool && left.Bool {
		return graph.Bool(true), nil
	}
	right, err := c.eval(e.Right, row)
	if err != nil {
		return graph.Null(), err
	}
	if right.Kind == graph.KindBool && right.Bool {
		return graph.Bool(true), nil
	}
	if left.IsNull() || right.IsNull() {
		return graph.Null(), nil
	}
	return graph.Bool(left.Truthy() || right.Truthy()), nil
}

func (c *evalCtx) evalComparison(op ast.BinaryOp, left, right graph.PropertyValue) (graph.PropertyValue, error) {
	if left.IsNull() || right.IsNull() {
		return graph.Null(), nil
	}
	cmp, ok := graph.Compare(left, right)
	if !ok {
		return graph.Null(), graph.TypeMismatch(left.TypeName(), right.TypeName())
	}
	switch op {
	case ast.OpLt:
		return graph.Bool(cmp < 0), nil
	case ast.OpLte:
		return graph.Bool(cmp <= 0), nil
	case ast.OpGt:
		return graph.Bool(cmp > 0), nil
	default:
		return graph.Bool(cmp >= 0), nil
	}
}

func (c *evalCtx) evalArithmetic(op ast.BinaryOp, left, right graph.PropertyValue) (graph.PropertyValue, error) {
	if left.IsNull() || right.IsNull() {
		return graph.Null(), nil
	}
	if op == ast.OpAdd && (left.Kind == graph.KindString || right.Kind == graph.KindString) {
		return graph.Str(left.String() + right.String()), nil
	}
	if op == ast.OpAdd && left.Kind == graph.KindList {
		return graph.List(append(append([]graph.PropertyValue{}, left.List...), right)), nil
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok {
		return graph.Null(), graph.TypeMismatch("Integer or Float", left.TypeName())
	}
	if !rok {
		return graph.Null(), graph.TypeMismatch("Integer or Float", right.TypeName())
	}
	bothInt := left.Kind == graph.KindI64 && right.Kind == graph.KindI64
	switch op {
	case ast.OpAdd:
		if bothInt {
			return graph.I64(left.I64 + right.I64), nil
		}
		return graph.F64(lf + rf), nil
	case ast.OpSub:
		if bothInt {
			return graph.I64(left.I64 - right.I64), nil
		}
		return graph.F64(lf - rf), nil
	case ast.OpMul:
		if bothInt {
			return graph.I64(left.I64 * right.I64), nil
		}
		return graph.F64(lf * rf), nil
	case ast.OpDiv:
		if bothInt {
			if right.I64 == 0 {
				return graph.Null(), graph.New(graph.ErrCypherExecution, "division by zero")
			}
			return graph.I64(left.I64 / right.I64), nil
		}
		return graph.F64(lf / rf), nil
	case ast.OpMod:
		if bothInt {
			if right.I64 == 0 {
				return graph.Null(), graph.New(graph.ErrCypherExecution, "modulo by zero")
			}
			return graph.I64(left.I64 % right.I64), nil
		}
		return graph.F64(math.Mod(lf, rf)), nil
	case ast.OpPow:
		return graph.F64(math.Pow(lf, rf)), nil
	default:
		return graph.Null(), graph.New(graph.ErrInternal, "unknown arithmetic operator %d", op)
	}
}

func asFloat(v graph.PropertyValue) (float64, bool) {
	switch v.Kind {
	case graph.KindI64:
		return float64(v.I64), true
	case graph.KindF64:
		return v.F64, true
	default:
		return 0, false
	}
}

func (c *evalCtx) evalIn(left, right graph.PropertyValue) (graph.PropertyValue, error) {
	if right.IsNull() {
		return graph.Null(), nil
	}
	if right.Kind != graph.KindList {
		return graph.Null(), graph.TypeMismatch("List", right.TypeName())
	}
	if left.IsNull() {
		return graph.Null(), nil
	}
	sawNull := false
	for _, elem := range right.List {
		eq := graph.Equal(left, elem)
		if eq.IsNull() {
			sawNull = true
			continue
		}
		if eq.Bool {
			return graph.Bool(true), nil
		}
	}
	if sawNull {
		return graph.Null(), nil
	}
	return graph.Bool(false), nil
}

func (c *evalCtx) evalStringOp(left, right graph.PropertyValue, fn func(s, substr string) bool) (graph.PropertyValue, error) {
	if left.IsNull() || right.IsNull() {
		return graph.Null(), nil
	}
	if left.Kind != graph.KindString || right.Kind != graph.KindString {
		return graph.Null(), graph.TypeMismatch("String", fmt.Sprintf("%s/%s", left.TypeName(), right.TypeName()))
	}
	return graph.Bool(fn(left.Str, right.Str)), nil
}

func (c *evalCtx) evalRegex(left, right graph.PropertyValue) (graph.PropertyValue, error) {
	if left.IsNull() || right.IsNull() {
		return graph.Null(), nil
	}
	if left.Kind != graph.KindString || right.Kind != graph.KindString {
		return graph.Null(), graph.TypeMismatch("String", fmt.Sprintf("%s/%s", left.TypeName(), right.TypeName()))
	}
	re, err := regexp.Compile(right.Str)
	if err != nil {
		return graph.Null(), graph.Wrap(graph.ErrCypherExecution, err, "invalid regular expression %q", right.Str)
	}
	return graph.Bool(re.MatchString(left.Str)), nil
}
