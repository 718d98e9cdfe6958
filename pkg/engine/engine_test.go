package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(t.TempDir(), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func mustExec(t *testing.T, e *Engine, query string) *QueryResult {
	t.Helper()
	res, err := e.ExecuteCypher(query, nil)
	require.NoError(t, err, "query: %s", query)
	return res
}

func TestCreatePersonAndKnowsRelationshipThenCountPeople(t *testing.T) {
	e := openTestEngine(t)

	created := mustExec(t, e, `CREATE (a:Person {name:'Alice'}), (b:Person {name:'Bob'}), (a)-[:KNOWS]->(b) RETURN a, b`)
	assert.True(t, created.Stats.Write)
	assert.Len(t, created.Rows, 1)

	counted := mustExec(t, e, `MATCH (p:Person) RETURN count(p)`)
	require.Len(t, counted.Rows, 1)
	col := counted.Columns[0]
	v, ok := counted.Rows[0].Get(col)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.I64)
}

func TestTraverseKnowsRelationshipReturnsNeighborName(t *testing.T) {
	e := openTestEngine(t)
	mustExec(t, e, `CREATE (a:Person {name:'Alice'}), (b:Person {name:'Bob'}), (a)-[:KNOWS]->(b) RETURN a, b`)

	res := mustExec(t, e, `MATCH (a:Person {name:'Alice'})-[:KNOWS]->(b) RETURN b.name`)
	require.Len(t, res.Rows, 1)
	col := res.Columns[0]
	v, ok := res.Rows[0].Get(col)
	require.True(t, ok)
	assert.Equal(t, "Bob", v.Str)
}

func TestUniqueConstraintRejectsDuplicateEmail(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.ExecuteCypher(`CREATE CONSTRAINT ON (u:User) ASSERT u.email IS UNIQUE`, nil)
	require.NoError(t, err)

	_, err = e.ExecuteCypher(`CREATE (:User {email:'x@y'})`, nil)
	require.NoError(t, err)

	_, err = e.ExecuteCypher(`CREATE (:User {email:'x@y'})`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onstraint")
}

func TestVariableLengthPathCountOnFiveNodeChain(t *testing.T) {
	e := openTestEngine(t)
	mustExec(t, e, `CREATE
		(n0:Chain {seq:0})-[:NEXT]->(n1:Chain {seq:1})-[:NEXT]->(n2:Chain {seq:2})-[:NEXT]->(n3:Chain {seq:3})-[:NEXT]->(n4:Chain {seq:4})
		RETURN n0`)

	res := mustExec(t, e, `MATCH (a)-[*1..3]->(b) RETURN count(*)`)
	require.Len(t, res.Rows, 1)
	col := res.Columns[0]
	v, ok := res.Rows[0].Get(col)
	require.True(t, ok)
	assert.Equal(t, int64(9), v.I64)
}

func TestZeroHopVariableLengthPathMatchesSourceNodeItself(t *testing.T) {
	e := openTestEngine(t)
	mustExec(t, e, `CREATE (a:Lonely {name:'solo'}) RETURN a`)

	res := mustExec(t, e, `MATCH (a:Lonely)-[*0..2]->(b) RETURN b.name`)
	require.Len(t, res.Rows, 1)
	col := res.Columns[0]
	v, ok := res.Rows[0].Get(col)
	require.True(t, ok)
	assert.Equal(t, "solo", v.Str)
}

func TestUnwindDistinctCountsUniqueValues(t *testing.T) {
	e := openTestEngine(t)

	res := mustExec(t, e, `UNWIND [1,2,3,2,1] AS x RETURN count(DISTINCT x)`)
	require.Len(t, res.Rows, 1)
	col := res.Columns[0]
	v, ok := res.Rows[0].Get(col)
	require.True(t, ok)
	assert.Equal(t, int64(3), v.I64)
}

func TestCountOnEmptyMatchReturnsSingleZeroRow(t *testing.T) {
	e := openTestEngine(t)

	res := mustExec(t, e, `MATCH (n:Missing) RETURN count(n)`)
	require.Len(t, res.Rows, 1)
	col := res.Columns[0]
	v, ok := res.Rows[0].Get(col)
	require.True(t, ok)
	assert.Equal(t, int64(0), v.I64)
}

func TestEmptyQueryIsCypherSyntaxError(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.ExecuteCypher("", nil)
	assert.Error(t, err)
}

func TestCreateThenMatchRoundTripsProperties(t *testing.T) {
	e := openTestEngine(t)
	mustExec(t, e, `CREATE (n:L {p:'v'}) RETURN n`)

	res := mustExec(t, e, `MATCH (n:L {p:'v'}) RETURN n`)
	require.Len(t, res.Rows, 1)
	col := res.Columns[0]
	v, ok := res.Rows[0].Get(col)
	require.True(t, ok)
	require.Equal(t, "v", v.Node.Properties["p"].Str)
}
