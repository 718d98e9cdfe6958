package graph

import (
	"fmt"
	"math"
)

// Kind discriminates the tagged union stored in a PropertyValue.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindI64
	KindF64
	KindString
	KindBytes
	KindList
	KindMap
	KindPoint
	KindVector
	KindNode
	KindRelationship
	KindPath
)

// Point is a 2D or 3D spatial point, matching Cypher's point() type.
type Point struct {
	X, Y, Z float64
	Is3D    bool
}

// PropertyValue is the tagged union every property, literal and
// expression result is expressed as. Only one of the typed fields is
// meaningful for a given Kind; the rest are zero.
type PropertyValue struct {
	Kind  Kind
	Bool  bool
	I64   int64
	F64   float64
	Str   string
	Bytes []byte
	List  []PropertyValue
	Map   map[string]PropertyValue
	Point Point
	// Vector holds fixed-dimension float32 embeddings for the KNN index.
	Vector []float32
	// Node/Rel/Path carry entity identity plus loaded properties, bound
	// into a Row by the executor. They are a PropertyValue variant (not a
	// separate Row value type) so expressions like `n.prop` and functions
	// like `id(n)` compose with the same evaluator.
	Node NodeRef
	Rel  RelRef
	Path PathRef
}

// NodeRef is the row-carried view of a node: identity plus the labels and
// properties the executor has materialized for it.
type NodeRef struct {
	ID         NodeId
	Labels     []string
	Properties map[string]PropertyValue
}

// RelRef is the row-carried view of a relationship.
type RelRef struct {
	ID         RelId
	Type       string
	StartNode  NodeId
	EndNode    NodeId
	Properties map[string]PropertyValue
}

// PathRef is an alternating sequence of nodes and relationships produced
// by VariableLengthPath.
type PathRef struct {
	Nodes []NodeRef
	Rels  []RelRef
}

func Null() PropertyValue                { return PropertyValue{Kind: KindNull} }
func Bool(b bool) PropertyValue          { return PropertyValue{Kind: KindBool, Bool: b} }
func I64(v int64) PropertyValue          { return PropertyValue{Kind: KindI64, I64: v} }
func F64(v float64) PropertyValue        { return PropertyValue{Kind: KindF64, F64: v} }
func Str(v string) PropertyValue         { return PropertyValue{Kind: KindString, Str: v} }
func Bytes(v []byte) PropertyValue       { return PropertyValue{Kind: KindBytes, Bytes: v} }
func List(v []PropertyValue) PropertyValue {
	return PropertyValue{Kind: KindList, List: v}
}
func Map(v map[string]PropertyValue) PropertyValue {
	return PropertyValue{Kind: KindMap, Map: v}
}
func Vector(v []float32) PropertyValue { return PropertyValue{Kind: KindVector, Vector: v} }
func FromNode(n NodeRef) PropertyValue { return PropertyValue{Kind: KindNode, Node: n} }
func FromRel(r RelRef) PropertyValue   { return PropertyValue{Kind: KindRelationship, Rel: r} }
func FromPath(p PathRef) PropertyValue { return PropertyValue{Kind: KindPath, Path: p} }

// IsNull reports whether v is the Null variant.
func (v PropertyValue) IsNull() bool { return v.Kind == KindNull }

// Truthy implements Cypher's three-valued logic for predicate evaluation:
// Null is not truthy (it's neither true nor false), and only KindBool
// true is truthy. Filter treats anything else as false.
func (v PropertyValue) Truthy() bool {
	return v.Kind == KindBool && v.Bool
}

// IsTriState reports whether v represents an unknown truth value (Null),
// as opposed to a definite true/false.
func (v PropertyValue) IsTriState() bool { return v.Kind == KindNull }

// TypeName returns the Cypher-visible type name, used by TypeMismatch
// errors and as the ORDER BY fallback for values Compare can't order.
func (v PropertyValue) TypeName() string {
	switch v.Kind {
	case KindNull:
		return "Null"
	case KindBool:
		return "Boolean"
	case KindI64:
		return "Integer"
	case KindF64:
		return "Float"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindPoint:
		return "Point"
	case KindVector:
		return "Vector"
	case KindNode:
		return "Node"
	case KindRelationship:
		return "Relationship"
	case KindPath:
		return "Path"
	default:
		return "Unknown"
	}
}

// Equal implements Cypher equality: Null = Null is Null (handled by the
// caller via Compare returning tri-state), numeric types compare across
// Int/Float by value, everything else compares structurally.
func Equal(a, b PropertyValue) (result PropertyValue) {
	if a.IsNull() || b.IsNull() {
		return Null()
	}
	return Bool(rawEqual(a, b))
}

func rawEqual(a, b PropertyValue) bool {
	if isNumeric(a) && isNumeric(b) {
		return numericValue(a) == numericValue(b)
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool:
		return a.Bool == b.Bool
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return string(a.Bytes) == string(b.Bytes)
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !rawEqual(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for k, av := range a.Map {
			bv, ok := b.Map[k]
			if !ok || !rawEqual(av, bv) {
				return false
			}
		}
		return true
	case KindPoint:
		return a.Point == b.Point
	case KindVector:
		if len(a.Vector) != len(b.Vector) {
			return false
		}
		for i := range a.Vector {
			if a.Vector[i] != b.Vector[i] {
				return false
			}
		}
		return true
	case KindNode:
		return a.Node.ID == b.Node.ID
	case KindRelationship:
		return a.Rel.ID == b.Rel.ID
	default:
		return false
	}
}

func isNumeric(v PropertyValue) bool { return v.Kind == KindI64 || v.Kind == KindF64 }

func numericValue(v PropertyValue) float64 {
	if v.Kind == KindI64 {
		return float64(v.I64)
	}
	return v.F64
}

// Compare orders two values for ORDER BY. Returns (cmp, ok); ok is false
// when the values aren't comparable (e.g. different non-numeric kinds),
// in which case Sort falls back to kind-name ordering for stability.
func Compare(a, b PropertyValue) (int, bool) {
	if isNumeric(a) && isNumeric(b) {
		av, bv := numericValue(a), numericValue(b)
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case KindString:
		switch {
		case a.Str < b.Str:
			return -1, true
		case a.Str > b.Str:
			return 1, true
		default:
			return 0, true
		}
	case KindBool:
		switch {
		case a.Bool == b.Bool:
			return 0, true
		case !a.Bool && b.Bool:
			return -1, true
		default:
			return 1, true
		}
	case KindNull:
		return 0, true
	default:
		return 0, false
	}
}

// String renders a value for CLI output and error messages.
func (v PropertyValue) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindI64:
		return fmt.Sprintf("%d", v.I64)
	case KindF64:
		if math.IsInf(v.F64, 0) || math.IsNaN(v.F64) {
			return fmt.Sprintf("%f", v.F64)
		}
		return fmt.Sprintf("%g", v.F64)
	case KindString:
		return v.Str
	case KindBytes:
		return fmt.Sprintf("%x", v.Bytes)
	case KindList:
		return fmt.Sprintf("%v", v.List)
	case KindMap:
		return fmt.Sprintf("%v", v.Map)
	case KindVector:
		return fmt.Sprintf("%v", v.Vector)
	case KindNode:
		return fmt.Sprintf("(id=%d labels=%v)", v.Node.ID, v.Node.Labels)
	case KindRelationship:
		return fmt.Sprintf("[id=%d type=%s]", v.Rel.ID, v.Rel.Type)
	default:
		return v.TypeName()
	}
}
