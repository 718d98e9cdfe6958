package adjacency

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(filepath.Join(dir, "adj.outgoing.db"), filepath.Join(dir, "adj.incoming.db"), Options{})
	require.NoError(t, err)
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	rels := []graph.RelId{10, 20, 30}
	require.NoError(t, s.Put(1, 5, Outgoing, rels))

	got, ok := s.Get(1, 5, Outgoing)
	require.True(t, ok)
	assert.Equal(t, rels, got)

	_, ok = s.Get(1, 5, Incoming)
	assert.False(t, ok)
}

func TestPutAppendsNewBlockRatherThanOverwriting(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Put(1, 5, Outgoing, []graph.RelId{10}))
	cursorAfterFirst := s.out.cursor()

	require.NoError(t, s.Put(1, 5, Outgoing, []graph.RelId{10, 20}))
	assert.Greater(t, s.out.cursor(), cursorAfterFirst)

	got, ok := s.Get(1, 5, Outgoing)
	require.True(t, ok)
	assert.Equal(t, []graph.RelId{10, 20}, got)
}

func TestOutgoingAndIncomingAreSeparateFiles(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "adj.outgoing.db")
	inPath := filepath.Join(dir, "adj.incoming.db")

	s, err := Open(outPath, inPath, Options{})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(1, 5, Outgoing, []graph.RelId{10}))
	require.NoError(t, s.Put(1, 5, Incoming, []graph.RelId{20}))

	outInfo, err := os.Stat(outPath)
	require.NoError(t, err)
	inInfo, err := os.Stat(inPath)
	require.NoError(t, err)
	assert.NotEqual(t, outPath, inPath)
	assert.True(t, outInfo.Mode().IsRegular())
	assert.True(t, inInfo.Mode().IsRegular())

	out, ok := s.Get(1, 5, Outgoing)
	require.True(t, ok)
	assert.Equal(t, []graph.RelId{10}, out)

	in, ok := s.Get(1, 5, Incoming)
	require.True(t, ok)
	assert.Equal(t, []graph.RelId{20}, in)
}

func TestIndexRebuildsFromFileScanOnReopen(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "adj.outgoing.db")
	inPath := filepath.Join(dir, "adj.incoming.db")

	s1, err := Open(outPath, inPath, Options{})
	require.NoError(t, err)
	require.NoError(t, s1.Put(1, 5, Outgoing, []graph.RelId{10, 20}))
	require.NoError(t, s1.Put(2, 5, Incoming, []graph.RelId{10}))
	require.NoError(t, s1.Sync())
	require.NoError(t, s1.Close())

	s2, err := Open(outPath, inPath, Options{})
	require.NoError(t, err)
	defer s2.Close()

	got, ok := s2.Get(1, 5, Outgoing)
	require.True(t, ok)
	assert.Equal(t, []graph.RelId{10, 20}, got)

	got, ok = s2.Get(2, 5, Incoming)
	require.True(t, ok)
	assert.Equal(t, []graph.RelId{10}, got)
}

func TestDeleteHidesKeyWithoutErasingBytes(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Put(1, 5, Outgoing, []graph.RelId{10}))
	s.Delete(1, 5, Outgoing)

	_, ok := s.Get(1, 5, Outgoing)
	assert.False(t, ok)
}
