package propstore

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/edsrzf/mmap-go"
)

const (
	headerSize = 16
	lenPrefix  = 4

	defaultGrowthFactor  = 1.5
	defaultMinGrowthSize = 4 << 20 // 4 MiB
	defaultInitialSize   = 1 << 20 // 1 MiB
)

// Options configures file growth behavior, the same knobs as the
// mmap.growth_factor and mmap.min_growth_bytes configuration keys.
// Zero values fall back to this package's defaults (factor 1.5, 4 MiB
// minimum step); pkg/engine always passes its own Config values.
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

// Store is the memory-mapped, append-only property blob heap.
type Store struct {
	mu   sync.RWMutex
	file *os.File
	data mmap.MMap
	opts Options
}

// Open opens (creating if absent) the property store file at path.
func Open(path string, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, graph.Wrap(graph.ErrIo, err, "open property store %s", path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, graph.Wrap(graph.ErrIo, err, "stat property store %s", path)
	}
	if info.Size() == 0 {
		if err := file.Truncate(defaultInitialSize); err != nil {
			file.Close()
			return nil, graph.Wrap(graph.ErrIo, err, "truncate new property store %s", path)
		}
	}

	data, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		file.Close()
		return nil, graph.Wrap(graph.ErrPageCache, err, "mmap property store %s", path)
	}

	s := &Store{file: file, data: data, opts: opts}
	if info.Size() == 0 {
		s.setCursor(headerSize)
		s.setOrphanedBytes(0)
	}
	return s, nil
}

func (s *Store) cursor() uint64 {
	return binary.LittleEndian.Uint64(s.data[0:8])
}

func (s *Store) setCursor(v uint64) {
	binary.LittleEndian.PutUint64(s.data[0:8], v)
}

func (s *Store) orphanedBytes() uint64 {
	return binary.LittleEndian.Uint64(s.data[8:16])
}

func (s *Store) setOrphanedBytes(v uint64) {
	binary.LittleEndian.PutUint64(s.data[8:16], v)
}

// Close unmaps and closes the backing file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.data.Unmap(); err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "unmap property store")
	}
	if err := s.file.Close(); err != nil {
		return graph.Wrap(graph.ErrIo, err, "close property store file")
	}
	return nil
}

// Sync flushes the mapped pages to disk.
func (s *Store) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.data.Flush(); err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "flush property store")
	}
	return nil
}

// Put appends v's encoding to the heap and returns a pointer to it.
func (s *Store) Put(v graph.PropertyValue) (uint64, error) {
	encoded, err := encode(v)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	needed := lenPrefix + len(encoded)
	cur := s.cursor()
	if err := s.ensureCapacity(cur + uint64(needed)); err != nil {
		return 0, err
	}

	binary.LittleEndian.PutUint32(s.data[cur:cur+4], uint32(len(encoded)))
	copy(s.data[cur+4:cur+uint64(needed)], encoded)

	ptr := cur
	s.setCursor(cur + uint64(needed))
	return ptr, nil
}

// Get decodes the value stored at ptr. Calling Get with graph.NoPropPtr
// is a programmer error; callers must check for "no properties" first.
func (s *Store) Get(ptr uint64) (graph.PropertyValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ptr == graph.NoPropPtr || ptr+lenPrefix > uint64(len(s.data)) {
		return graph.PropertyValue{}, graph.New(graph.ErrInvalidId, "property pointer %d out of range", ptr)
	}
	n := binary.LittleEndian.Uint32(s.data[ptr : ptr+4])
	start := ptr + lenPrefix
	end := start + uint64(n)
	if end > uint64(len(s.data)) {
		return graph.PropertyValue{}, graph.New(graph.ErrStorage, "property record at %d extends past file", ptr)
	}

	v, _, err := decode(s.data[start:end])
	if err != nil {
		return graph.PropertyValue{}, err
	}
	return v, nil
}

// Free marks the bytes at ptr as orphaned. The space is never reclaimed
// by this store or by any offline tool.
func (s *Store) Free(ptr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ptr == graph.NoPropPtr || ptr+lenPrefix > uint64(len(s.data)) {
		return graph.New(graph.ErrInvalidId, "property pointer %d out of range", ptr)
	}
	n := binary.LittleEndian.Uint32(s.data[ptr : ptr+4])
	s.setOrphanedBytes(s.orphanedBytes() + uint64(lenPrefix) + uint64(n))
	return nil
}

// OrphanedBytes returns the total bytes freed by Free and never
// reclaimed, surfaced by pkg/engine's Engine.Stats so operators can
// see how much of the heap is dead.
func (s *Store) OrphanedBytes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orphanedBytes()
}

// Size returns the current mapped file size in bytes.
func (s *Store) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data))
}

// ensureCapacity grows the backing file (and remaps it) until it is at
// least minSize bytes long. Must be called with s.mu held for writing.
func (s *Store) ensureCapacity(minSize uint64) error {
	if uint64(len(s.data)) >= minSize {
		return nil
	}

	cur := int64(len(s.data))
	grown := int64(float64(cur) * s.opts.GrowthFactor)
	if grown < cur+s.opts.MinGrowthBytes {
		grown = cur + s.opts.MinGrowthBytes
	}
	if grown < int64(minSize) {
		grown = int64(minSize)
	}

	if err := s.data.Unmap(); err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "unmap property store before growth")
	}
	if err := s.file.Truncate(grown); err != nil {
		return graph.Wrap(graph.ErrIo, err, "grow property store to %d bytes", grown)
	}
	data, err := mmap.Map(s.file, mmap.RDWR, 0)
	if err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "remap property store after growth")
	}
	s.data = data
	return nil
}
