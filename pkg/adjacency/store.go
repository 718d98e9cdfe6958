package adjacency

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/edsrzf/mmap-go"
)

// Direction distinguishes a node's outgoing from incoming relationship
// lists for a given type.
type Direction uint8

const (
	Outgoing Direction = 0
	Incoming Direction = 1
)

const (
	headerSize = 16

	defaultGrowthFactor  = 1.5
	defaultMinGrowthSize = 4 << 20
	defaultInitialSize   = 1 << 20
)

// blockHeaderSize is {node_id:8}{type_id:4}{entry_count:4}. Outgoing
// and incoming lists live in separate files, so a block no longer
// needs to carry which direction it belongs to. total_size is implicit
// (entry_count * 8) and not stored separately; recomputing it from
// entry_count avoids a redundant field that could disagree with the
// entries actually present.
const blockHeaderSize = 8 + 4 + 4

// Options configures file growth.
type Options struct {
	GrowthFactor   float64
	MinGrowthBytes int64
}

func (o Options) withDefaults() Options {
	if o.GrowthFactor <= 1.0 {
		o.GrowthFactor = defaultGrowthFactor
	}
	if o.MinGrowthBytes <= 0 {
		o.MinGrowthBytes = defaultMinGrowthSize
	}
	return o
}

type key struct {
	node graph.NodeId
	typ  graph.TypeId
}

// block is one direction's append-only adjacency file plus the
// in-memory offset index pointing at each key's latest block in it.
type block struct {
	mu      sync.RWMutex
	file    *os.File
	data    mmap.MMap
	opts    Options
	offsets map[key]uint64
}

// openBlock opens (creating if absent) the adjacency file at path and
// rebuilds its in-memory offset index by scanning it forward.
func openBlock(path string, opts Options) (*block, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, graph.Wrap(graph.ErrIo, err, "open adjacency store %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, graph.Wrap(graph.ErrIo, err, "stat adjacency store %s", path)
	}
	if info.Size() == 0 {
		if err := file.Truncate(defaultInitialSize); err != nil {
			file.Close()
			return nil, graph.Wrap(graph.ErrIo, err, "truncate new adjacency store %s", path)
		}
	}

	data, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		file.Close()
		return nil, graph.Wrap(graph.ErrPageCache, err, "mmap adjacency store %s", path)
	}

	b := &block{file: file, data: data, opts: opts, offsets: make(map[key]uint64)}
	if info.Size() == 0 {
		b.setCursor(headerSize)
	}
	if err := b.rebuildIndex(); err != nil {
		data.Unmap()
		file.Close()
		return nil, err
	}
	return b, nil
}

func (b *block) cursor() uint64 { return binary.LittleEndian.Uint64(b.data[0:8]) }
func (b *block) setCursor(v uint64) {
	binary.LittleEndian.PutUint64(b.data[0:8], v)
}

// rebuildIndex performs the forward scan described in the package doc,
// halting at the first all-zero header, which marks the logical end of
// data the same way an unwritten tail from a geometric file grow does.
func (b *block) rebuildIndex() error {
	pos := uint64(headerSize)
	end := b.cursor()
	for pos < end {
		if pos+blockHeaderSize > end {
			return graph.New(graph.ErrStorage, "adjacency file truncated mid-block at offset %d", pos)
		}
		nodeID := graph.NodeId(binary.LittleEndian.Uint64(b.data[pos : pos+8]))
		typeID := graph.TypeId(binary.LittleEndian.Uint32(b.data[pos+8 : pos+12]))
		count := binary.LittleEndian.Uint32(b.data[pos+12 : pos+16])
		if nodeID == 0 && typeID == 0 && count == 0 {
			break
		}

		b.offsets[key{node: nodeID, typ: typeID}] = pos
		pos += blockHeaderSize + uint64(count)*8
	}
	return nil
}

func (b *block) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.data.Unmap(); err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "unmap adjacency store")
	}
	return graph.Wrap(graph.ErrIo, b.file.Close(), "close adjacency store file")
}

func (b *block) sync() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return graph.Wrap(graph.ErrPageCache, b.data.Flush(), "flush adjacency store")
}

// put writes a new block for (node, typ) containing rels, and repoints
// the offset index at it. A prior block for the same key, if any, is
// left in the file unreferenced.
func (b *block) put(node graph.NodeId, typ graph.TypeId, rels []graph.RelId) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := uint64(blockHeaderSize) + uint64(len(rels))*8
	cur := b.cursor()
	if err := b.ensureCapacity(cur + size); err != nil {
		return err
	}

	binary.LittleEndian.PutUint64(b.data[cur:cur+8], uint64(node))
	binary.LittleEndian.PutUint32(b.data[cur+8:cur+12], uint32(typ))
	binary.LittleEndian.PutUint32(b.data[cur+12:cur+16], uint32(len(rels)))
	for i, rel := range rels {
		off := cur + blockHeaderSize + uint64(i)*8
		binary.LittleEndian.PutUint64(b.data[off:off+8], uint64(rel))
	}

	b.offsets[key{node: node, typ: typ}] = cur
	b.setCursor(cur + size)
	return nil
}

// get returns the relationship ids in the latest block for (node,
// typ), or (nil, false) if no block has ever been written for that key
// (which callers should treat the same as "empty", not as an error —
// the fallback is a chain walk, not a failure).
func (b *block) get(node graph.NodeId, typ graph.TypeId) ([]graph.RelId, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	off, ok := b.offsets[key{node: node, typ: typ}]
	if !ok {
		return nil, false
	}
	count := binary.LittleEndian.Uint32(b.data[off+12 : off+16])
	out := make([]graph.RelId, count)
	for i := uint32(0); i < count; i++ {
		entryOff := off + blockHeaderSize + uint64(i)*8
		out[i] = graph.RelId(binary.LittleEndian.Uint64(b.data[entryOff : entryOff+8]))
	}
	return out, true
}

// delete removes (node, typ) from the offset index so subsequent get
// calls report "no block", even though the underlying bytes remain in
// the file until the next reindex.
func (b *block) delete(node graph.NodeId, typ graph.TypeId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.offsets, key{node: node, typ: typ})
}

// types returns every relationship type id node has a block for in
// this file.
func (b *block) types(node graph.NodeId) []graph.TypeId {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []graph.TypeId
	for k := range b.offsets {
		if k.node == node {
			out = append(out, k.typ)
		}
	}
	return out
}

func (b *block) ensureCapacity(minSize uint64) error {
	if uint64(len(b.data)) >= minSize {
		return nil
	}
	cur := int64(len(b.data))
	grown := int64(float64(cur) * b.opts.GrowthFactor)
	if grown < cur+b.opts.MinGrowthBytes {
		grown = cur + b.opts.MinGrowthBytes
	}
	if grown < int64(minSize) {
		grown = int64(minSize)
	}
	if err := b.data.Unmap(); err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "unmap adjacency store before growth")
	}
	if err := b.file.Truncate(grown); err != nil {
		return graph.Wrap(graph.ErrIo, err, "grow adjacency store to %d bytes", grown)
	}
	data, err := mmap.Map(b.file, mmap.RDWR, 0)
	if err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "remap adjacency store after growth")
	}
	b.data = data
	return nil
}

// Store is the adjacency list store: a pair of append-only block
// files, one for outgoing and one for incoming relationship lists per
// (node, type), matching the on-disk layout's adjacency.outgoing.store
// / adjacency.incoming.store split. Every exported method takes an
// explicit Direction and routes to the matching file so callers don't
// need to know the store is backed by two files rather than one.
type Store struct {
	out *block
	in  *block
}

// Open opens (creating if absent) the outgoing and incoming adjacency
// files at outgoingPath and incomingPath, rebuilding each one's
// in-memory offset index by scanning it forward.
func Open(outgoingPath, incomingPath string, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	out, err := openBlock(outgoingPath, opts)
	if err != nil {
		return nil, err
	}
	in, err := openBlock(incomingPath, opts)
	if err != nil {
		out.close()
		return nil, err
	}
	return &Store{out: out, in: in}, nil
}

func (s *Store) blockFor(dir Direction) *block {
	if dir == Incoming {
		return s.in
	}
	return s.out
}

// Close unmaps and closes both backing files.
func (s *Store) Close() error {
	outErr := s.out.close()
	inErr := s.in.close()
	if outErr != nil {
		return outErr
	}
	return inErr
}

// Sync flushes both files' mapped pages to disk.
func (s *Store) Sync() error {
	if err := s.out.sync(); err != nil {
		return err
	}
	return s.in.sync()
}

// Put writes a new block for (node, typ, dir) containing rels, and
// repoints that direction's offset index at it. A prior block for the
// same key, if any, is left in the file unreferenced.
func (s *Store) Put(node graph.NodeId, typ graph.TypeId, dir Direction, rels []graph.RelId) error {
	return s.blockFor(dir).put(node, typ, rels)
}

// Get returns the relationship ids in the latest block for (node, typ,
// dir), or (nil, false) if no block has ever been written for that key.
func (s *Store) Get(node graph.NodeId, typ graph.TypeId, dir Direction) ([]graph.RelId, bool) {
	return s.blockFor(dir).get(node, typ)
}

// Delete removes (node, typ, dir) from its direction's offset index so
// subsequent Get calls report "no block", even though the underlying
// bytes remain in the file until the next reindex.
func (s *Store) Delete(node graph.NodeId, typ graph.TypeId, dir Direction) {
	s.blockFor(dir).delete(node, typ)
}

// Types returns every relationship type id node has a block for in the
// given direction, used by Expand when a pattern carries no type
// filter and must walk every type present.
func (s *Store) Types(node graph.NodeId, dir Direction) []graph.TypeId {
	return s.blockFor(dir).types(node)
}
