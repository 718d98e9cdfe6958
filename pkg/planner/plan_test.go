package planner

import (
	"testing"

	"github.com/cuemby/graphd/pkg/catalog"
	"github.com/cuemby/graphd/pkg/cypher/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	_, err = cat.Label("Person")
	require.NoError(t, err)
	_, err = cat.Type("KNOWS")
	require.NoError(t, err)
	return cat
}

func TestPlanSimpleLabelScan(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)

	q, err := parser.Parse("MATCH (n:Person) RETURN n")
	require.NoError(t, err)

	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)
	require.NotEmpty(t, ops)

	scan, ok := ops[0].(NodeByLabel)
	require.True(t, ok)
	assert.Equal(t, "n", scan.Variable)

	_, ok = ops[len(ops)-1].(Project)
	assert.True(t, ok)
}

func TestPlanAllNodesScanWhenUnlabeled(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("MATCH (n) RETURN n")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)
	_, ok := ops[0].(AllNodesScan)
	assert.True(t, ok)
}

func TestPlanExpandForRelationship(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN b")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)

	var sawExpand bool
	for _, op := range ops {
		if _, ok := op.(Expand); ok {
			sawExpand = true
		}
	}
	assert.True(t, sawExpand)
}

func TestPlanVariableLengthPath(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("MATCH (a:Person)-[:KNOWS*1..3]->(b) RETURN b")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)

	var found VariableLengthPath
	var ok bool
	for _, op := range ops {
		if vlp, isVLP := op.(VariableLengthPath); isVLP {
			found, ok = vlp, true
		}
	}
	require.True(t, ok)
	assert.Equal(t, 1, found.MinHops)
	assert.Equal(t, 3, found.MaxHops)
}

func TestPlanAggregateDetection(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("MATCH (n:Person) RETURN n.city, count(*)")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)

	var sawAgg bool
	for _, op := range ops {
		if _, ok := op.(Aggregate); ok {
			sawAgg = true
		}
	}
	assert.True(t, sawAgg)
}

func TestPlanDistinctReturn(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("MATCH (n:Person) RETURN DISTINCT n.city")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)

	_, ok := ops[len(ops)-1].(Distinct)
	assert.True(t, ok)
}

func TestPlanOrderBySkipLimit(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("MATCH (n:Person) RETURN n ORDER BY n.age DESC SKIP 1 LIMIT 2")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)

	var kinds []string
	for _, op := range ops {
		switch op.(type) {
		case Sort:
			kinds = append(kinds, "sort")
		case Skip:
			kinds = append(kinds, "skip")
		case Limit:
			kinds = append(kinds, "limit")
		}
	}
	assert.Equal(t, []string{"sort", "skip", "limit"}, kinds)
}

func TestPlanUnwind(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("UNWIND [1,2,3] AS x RETURN x")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)
	_, ok := ops[0].(Unwind)
	assert.True(t, ok)
}

func TestPlanCreate(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("CREATE (n:Person {name: 'Alice'})")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)
	_, ok := ops[0].(Create)
	assert.True(t, ok)
}

func TestPlanUnion(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)
	q, err := parser.Parse("MATCH (n:Person) RETURN n.name UNION MATCH (n:Person) RETURN n.name")
	require.NoError(t, err)
	ops, err := pl.PlanQuery(q)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	u, ok := ops[0].(Union)
	require.True(t, ok)
	assert.True(t, u.Distinct)
}

func TestPlanQueryCacheReusesIdenticalShape(t *testing.T) {
	cat := newTestCatalog(t)
	pl := New(cat, 16, 300)

	q1, err := parser.Parse("MATCH (n:Person) RETURN n")
	require.NoError(t, err)
	_, err = pl.PlanQuery(q1)
	require.NoError(t, err)

	q2, err := parser.Parse("MATCH (n:Person) RETURN n")
	require.NoError(t, err)
	_, err = pl.PlanQuery(q2)
	require.NoError(t, err)

	stats := pl.Cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.CachedPlans)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	c := NewCache(16, 2)
	c.Put("a", []Operator{AllNodesScan{Variable: "n"}})
	c.Tick()
	c.Tick()
	c.Tick()
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2, 300)
	c.Put("a", []Operator{AllNodesScan{Variable: "a"}})
	c.Put("b", []Operator{AllNodesScan{Variable: "b"}})
	c.Get("b")
	c.Put("c", []Operator{AllNodesScan{Variable: "c"}})

	_, aOK := c.Get("a")
	_, bOK := c.Get("b")
	_, cOK := c.Get("c")
	assert.False(t, aOK)
	assert.True(t, bOK)
	assert.True(t, cOK)
}
