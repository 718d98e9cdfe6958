package parser

import (
	"testing"

	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleMatchReturn(t *testing.T) {
	q, err := Parse("MATCH (n:Person) RETURN n.name")
	require.NoError(t, err)
	require.Len(t, q.Clauses, 2)

	mc, ok := q.Clauses[0].(ast.MatchClause)
	require.True(t, ok)
	require.Len(t, mc.Patterns, 1)
	require.Len(t, mc.Patterns[0].Elements, 1)
	node := mc.Patterns[0].Elements[0].(ast.NodePattern)
	assert.Equal(t, "n", node.Variable)
	assert.Equal(t, []string{"Person"}, node.Labels)

	rc, ok := q.Clauses[1].(ast.ReturnClause)
	require.True(t, ok)
	require.Len(t, rc.Items, 1)
	prop, ok := rc.Items[0].Expr.(ast.PropertyExpr)
	require.True(t, ok)
	assert.Equal(t, "name", prop.Key)
}

func TestParseRelationshipPatternDirections(t *testing.T) {
	q, err := Parse("MATCH (a)-[r:KNOWS]->(b)<-[:LIKES]-(c) RETURN a")
	require.NoError(t, err)
	mc := q.Clauses[0].(ast.MatchClause)
	elems := mc.Patterns[0].Elements
	require.Len(t, elems, 5)

	rel1 := elems[1].(ast.RelPattern)
	assert.Equal(t, ast.DirOutgoing, rel1.Direction)
	assert.Equal(t, []string{"KNOWS"}, rel1.Types)
	assert.Equal(t, "r", rel1.Variable)

	rel2 := elems[3].(ast.RelPattern)
	assert.Equal(t, ast.DirIncoming, rel2.Direction)
	assert.Equal(t, []string{"LIKES"}, rel2.Types)
}

func TestParseUndirectedRelationship(t *testing.T) {
	q, err := Parse("MATCH (a)-[:KNOWS]-(b) RETURN a")
	require.NoError(t, err)
	mc := q.Clauses[0].(ast.MatchClause)
	rel := mc.Patterns[0].Elements[1].(ast.RelPattern)
	assert.Equal(t, ast.DirEither, rel.Direction)
}

func TestParseVariableLengthPath(t *testing.T) {
	q, err := Parse("MATCH (a)-[:KNOWS*1..3]->(b) RETURN a")
	require.NoError(t, err)
	mc := q.Clauses[0].(ast.MatchClause)
	rel := mc.Patterns[0].Elements[1].(ast.RelPattern)
	require.NotNil(t, rel.Quantifier)
	assert.Equal(t, 1, rel.Quantifier.Min)
	assert.Equal(t, 3, rel.Quantifier.Max)
}

func TestParseWhereWithBooleanOperators(t *testing.T) {
	q, err := Parse("MATCH (n) WHERE n.age > 21 AND NOT n.banned RETURN n")
	require.NoError(t, err)
	wc := q.Clauses[1].(ast.WhereClause)
	and, ok := wc.Predicate.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAnd, and.Op)
	_, ok = and.Left.(ast.BinaryExpr)
	assert.True(t, ok)
	_, ok = and.Right.(ast.UnaryExpr)
	assert.True(t, ok)
}

func TestParseOptionalMatch(t *testing.T) {
	q, err := Parse("MATCH (n) OPTIONAL MATCH (n)-[:KNOWS]->(f) RETURN n, f")
	require.NoError(t, err)
	_, ok := q.Clauses[1].(ast.OptionalMatchClause)
	assert.True(t, ok)
}

func TestParseCreateWithProperties(t *testing.T) {
	q, err := Parse(`CREATE (n:Person {name: 'Alice', age: 30})`)
	require.NoError(t, err)
	cc := q.Clauses[0].(ast.CreateClause)
	node := cc.Patterns[0].Elements[0].(ast.NodePattern)
	assert.Equal(t, []string{"Person"}, node.Labels)
	assert.Contains(t, node.Properties, "name")
	assert.Contains(t, node.Properties, "age")
}

func TestParseMergeOnCreateOnMatch(t *testing.T) {
	q, err := Parse("MERGE (n:Person {id: 1}) ON CREATE SET n.created = true ON MATCH SET n.seen = true")
	require.NoError(t, err)
	mc := q.Clauses[0].(ast.MergeClause)
	require.Len(t, mc.OnCreate, 1)
	require.Len(t, mc.OnMatch, 1)
}

func TestParseDetachDelete(t *testing.T) {
	q, err := Parse("MATCH (n) DETACH DELETE n")
	require.NoError(t, err)
	dc := q.Clauses[1].(ast.DeleteClause)
	assert.True(t, dc.Detach)
}

func TestParseSetAdditiveAndLabel(t *testing.T) {
	q, err := Parse("MATCH (n) SET n += {a: 1}, n:Active")
	require.NoError(t, err)
	sc := q.Clauses[1].(ast.SetClause)
	require.Len(t, sc.Items, 2)
	assert.True(t, sc.Items[0].Additive)
	assert.Equal(t, "Active", sc.Items[1].AddLabel)
}

func TestParseRemovePropertyAndLabel(t *testing.T) {
	q, err := Parse("MATCH (n) REMOVE n.age, n:Temp")
	require.NoError(t, err)
	rc := q.Clauses[1].(ast.RemoveClause)
	require.Len(t, rc.Items, 2)
	assert.Equal(t, "Temp", rc.Items[1].RemoveLabel)
}

func TestParseUnwind(t *testing.T) {
	q, err := Parse("UNWIND [1, 2, 3] AS x RETURN x")
	require.NoError(t, err)
	uc := q.Clauses[0].(ast.UnwindClause)
	assert.Equal(t, "x", uc.Variable)
	list, ok := uc.Expr.(ast.ListExpr)
	require.True(t, ok)
	assert.Len(t, list.Elements, 3)
}

func TestParseWithOrderBySkipLimit(t *testing.T) {
	q, err := Parse("MATCH (n) WITH n ORDER BY n.age DESC SKIP 5 LIMIT 10 RETURN n")
	require.NoError(t, err)
	wc := q.Clauses[1].(ast.WithClause)
	require.Len(t, wc.OrderBy, 1)
	assert.True(t, wc.OrderBy[0].Descending)
	require.NotNil(t, wc.Skip)
	require.NotNil(t, wc.Limit)
}

func TestParseAggregateFunctionCall(t *testing.T) {
	q, err := Parse("MATCH (n) RETURN count(*), collect(DISTINCT n.name)")
	require.NoError(t, err)
	rc := q.Clauses[1].(ast.ReturnClause)
	count := rc.Items[0].Expr.(ast.FunctionCallExpr)
	assert.True(t, count.Star)
	collect := rc.Items[1].Expr.(ast.FunctionCallExpr)
	assert.True(t, collect.Distinct)
}

func TestParseCaseExpression(t *testing.T) {
	q, err := Parse("RETURN CASE WHEN n.age > 18 THEN 'adult' ELSE 'minor' END")
	require.NoError(t, err)
	rc := q.Clauses[0].(ast.ReturnClause)
	ce, ok := rc.Items[0].Expr.(ast.CaseExpr)
	require.True(t, ok)
	assert.Nil(t, ce.Subject)
	require.Len(t, ce.Whens, 1)
	require.NotNil(t, ce.Else)
}

func TestParseParameterReference(t *testing.T) {
	q, err := Parse("MATCH (n) WHERE n.id = $id RETURN n")
	require.NoError(t, err)
	assert.Contains(t, q.Params, "id")
}

func TestParseCreateIndex(t *testing.T) {
	q, err := Parse("CREATE INDEX ON :Person(name)")
	require.NoError(t, err)
	ci := q.Clauses[0].(ast.CreateIndexClause)
	assert.Equal(t, "Person", ci.Label)
	assert.Equal(t, "name", ci.Property)
}

func TestParseCreateUniqueConstraint(t *testing.T) {
	q, err := Parse("CREATE CONSTRAINT ON (n:Person) ASSERT n.email IS UNIQUE")
	require.NoError(t, err)
	cc := q.Clauses[0].(ast.CreateConstraintClause)
	assert.Equal(t, "Person", cc.Label)
	assert.Equal(t, "email", cc.Property)
	assert.Equal(t, ast.ConstraintUnique, cc.Kind)
}

func TestParseCallProcedureWithYield(t *testing.T) {
	q, err := Parse("CALL db.labels() YIELD label RETURN label")
	require.NoError(t, err)
	cc := q.Clauses[0].(ast.CallProcedureClause)
	assert.Equal(t, "db.labels", cc.Name)
	assert.Equal(t, []string{"label"}, cc.Yield)
}

func TestParseUnionDistinct(t *testing.T) {
	q, err := Parse("MATCH (n:A) RETURN n.id UNION MATCH (n:B) RETURN n.id")
	require.NoError(t, err)
	var sawUnion bool
	for _, c := range q.Clauses {
		if u, ok := c.(ast.UnionClause); ok {
			sawUnion = true
			assert.True(t, u.Distinct)
		}
	}
	assert.True(t, sawUnion)
}

func TestParseOperatorPrecedence(t *testing.T) {
	q, err := Parse("RETURN 1 + 2 * 3")
	require.NoError(t, err)
	rc := q.Clauses[0].(ast.ReturnClause)
	add := rc.Items[0].Expr.(ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, add.Op)
	mul, ok := add.Right.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestParseInvalidSyntaxErrors(t *testing.T) {
	_, err := Parse("MATCH (n RETURN n")
	require.Error(t, err)
}

func TestParseStartsWithEndsWith(t *testing.T) {
	q, err := Parse("MATCH (n) WHERE n.name STARTS WITH 'A' AND n.name ENDS WITH 'z' RETURN n")
	require.NoError(t, err)
	wc := q.Clauses[1].(ast.WhereClause)
	and := wc.Predicate.(ast.BinaryExpr)
	left := and.Left.(ast.BinaryExpr)
	assert.Equal(t, ast.OpStartsWith, left.Op)
	right := and.Right.(ast.BinaryExpr)
	assert.Equal(t, ast.OpEndsWith, right.Op)
}
