package propstore

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTripsEveryKind(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "props.db"), Options{})
	require.NoError(t, err)
	defer s.Close()

	values := []graph.PropertyValue{
		graph.Null(),
		graph.Bool(true),
		graph.Bool(false),
		graph.I64(-42),
		graph.F64(3.14159),
		graph.Str("hello, graph"),
		graph.Bytes([]byte{0xde, 0xad, 0xbe, 0xef}),
		graph.Vector([]float32{0.1, 0.2, 0.3}),
		graph.List([]graph.PropertyValue{graph.I64(1), graph.Str("two"), graph.Bool(true)}),
		graph.Map(map[string]graph.PropertyValue{
			"name": graph.Str("Ada"),
			"age":  graph.I64(36),
		}),
	}

	for _, v := range values {
		ptr, err := s.Put(v)
		require.NoError(t, err)
		got, err := s.Get(ptr)
		require.NoError(t, err)
		assert.Equal(t, v.Kind, got.Kind)
		assert.True(t, graph.Equal(v, got).Truthy() || v.Kind == graph.KindNull)
	}
}

func TestGetRejectsNoPropPtr(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "props.db"), Options{})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(graph.NoPropPtr)
	assert.Error(t, err)
	assert.Equal(t, graph.ErrInvalidId, graph.KindOf(err))
}

func TestFreeAccumulatesOrphanedBytes(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "props.db"), Options{})
	require.NoError(t, err)
	defer s.Close()

	ptr, err := s.Put(graph.Str("some property value"))
	require.NoError(t, err)
	assert.Zero(t, s.OrphanedBytes())

	require.NoError(t, s.Free(ptr))
	assert.Positive(t, s.OrphanedBytes())

	// Free does not remove the record; it remains readable, matching the
	// no-online-compaction design.
	v, err := s.Get(ptr)
	require.NoError(t, err)
	assert.Equal(t, "some property value", v.Str)
}

func TestStoreGrowsPastInitialFileSize(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "props.db"), Options{MinGrowthBytes: 1024})
	require.NoError(t, err)
	defer s.Close()

	initial := s.Size()
	big := make([]byte, defaultInitialSize)
	_, err = s.Put(graph.Bytes(big))
	require.NoError(t, err)

	assert.Greater(t, s.Size(), initial)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "props.db")

	s1, err := Open(path, Options{})
	require.NoError(t, err)
	ptr, err := s1.Put(graph.Str("persisted"))
	require.NoError(t, err)
	require.NoError(t, s1.Sync())
	require.NoError(t, s1.Close())

	s2, err := Open(path, Options{})
	require.NoError(t, err)
	defer s2.Close()

	v, err := s2.Get(ptr)
	require.NoError(t, err)
	assert.Equal(t, "persisted", v.Str)
}
