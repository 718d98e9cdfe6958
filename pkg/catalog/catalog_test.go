package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelInterningIsIdempotent(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	id1, err := c.Label("Person")
	require.NoError(t, err)

	id2, err := c.Label("Person")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)

	other, err := c.Label("Company")
	require.NoError(t, err)
	assert.NotEqual(t, id1, other)

	name, ok := c.LabelName(id1)
	require.True(t, ok)
	assert.Equal(t, "Person", name)
}

func TestTypeAndKeyInterningAreIndependentNamespaces(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	typeID, err := c.Type("KNOWS")
	require.NoError(t, err)

	keyID, err := c.Key("KNOWS")
	require.NoError(t, err)

	// Same string interned in two namespaces must not collide on the
	// returned id's meaning, even though both happen to start at 0.
	assert.Equal(t, uint32(0), uint32(typeID))
	assert.Equal(t, uint32(0), uint32(keyID))

	name, ok := c.TypeName(typeID)
	require.True(t, ok)
	assert.Equal(t, "KNOWS", name)
}

func TestCatalogPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c1, err := Open(dir)
	require.NoError(t, err)
	id, err := c1.Label("Person")
	require.NoError(t, err)
	require.NoError(t, c1.IncrLabelLive(id, 5))
	require.NoError(t, c1.Close())

	c2, err := Open(dir)
	require.NoError(t, err)
	defer c2.Close()

	got, ok := c2.LookupLabel("Person")
	require.True(t, ok)
	assert.Equal(t, id, got)

	count, err := c2.LabelLiveCount(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)

	// The counter must resume after the highest id already assigned,
	// never reusing one.
	next, err := c2.Label("Company")
	require.NoError(t, err)
	assert.NotEqual(t, id, next)
}

func TestLabelLiveCountNeverGoesNegative(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	id, err := c.Label("Person")
	require.NoError(t, err)

	require.NoError(t, c.IncrLabelLive(id, 2))
	require.NoError(t, c.IncrLabelLive(id, -10))

	count, err := c.LabelLiveCount(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestConstraintRegistry(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	con := Constraint{ID: "c1", Kind: ConstraintUnique, Label: "Person", Key: "email"}
	require.NoError(t, c.CreateConstraint(con))

	all, err := c.Constraints()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, con, all[0])

	forLabel, err := c.ConstraintsFor("Person")
	require.NoError(t, err)
	require.Len(t, forLabel, 1)

	require.NoError(t, c.DropConstraint("c1"))
	all, err = c.Constraints()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLabelsTypesAndKeysEnumeration(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Label("Person")
	require.NoError(t, err)
	_, err = c.Label("Company")
	require.NoError(t, err)
	_, err = c.Type("KNOWS")
	require.NoError(t, err)
	_, err = c.Key("email")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Person", "Company"}, c.Labels())
	assert.ElementsMatch(t, []string{"KNOWS"}, c.RelationshipTypes())
	assert.ElementsMatch(t, []string{"email"}, c.PropertyKeys())
}
