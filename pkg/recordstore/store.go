package recordstore

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/edsrzf/mmap-go"
)

const (
	headerSize = 16

	defaultGrowthFactor  = 1.5
	defaultMinGrowthSize = 4 << 20 // 4 MiB

	flagInUse   byte = 1 << 0
	flagDeleted byte = 1 << 1
)

// Options configures file growth, mirroring pkg/propstore's.
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

// Store is a generic fixed-stride mmap'd record file. NodeStore and
// RelationshipStore each wrap one with their own record layout.
type Store struct {
	mu      sync.RWMutex
	file    *os.File
	data    mmap.MMap
	opts    Options
	stride  int
	deleted *roaring.Bitmap
}

// Open opens (creating if absent) a record file with the given fixed
// record size.
func Open(path string, stride int, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, graph.Wrap(graph.ErrIo, err, "open record store %s", path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, graph.Wrap(graph.ErrIo, err, "stat record store %s", path)
	}
	initialRecords := int64(1024)
	if info.Size() == 0 {
		if err := file.Truncate(headerSize + initialRecords*int64(stride)); err != nil {
			file.Close()
			return nil, graph.Wrap(graph.ErrIo, err, "truncate new record store %s", path)
		}
	}

	data, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		file.Close()
		return nil, graph.Wrap(graph.ErrPageCache, err, "mmap record store %s", path)
	}

	s := &Store{file: file, data: data, opts: opts, stride: stride, deleted: roaring.New()}
	if info.Size() == 0 {
		// Id 0 is permanently reserved so graph.InvalidNodeId/InvalidRelId
		// (both zero) never collide with a real record id; the first
		// Allocate() call hands out id 1.
		s.setNextID(1)
	}

	if err := s.scanTombstones(); err != nil {
		s.data.Unmap()
		file.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) scanTombstones() error {
	next := s.nextID()
	for id := uint64(0); id < next; id++ {
		rec, err := s.readRaw(id)
		if err != nil {
			return err
		}
		if rec[0]&flagDeleted != 0 {
			s.deleted.Add(uint32(id))
		}
	}
	return nil
}

func (s *Store) nextID() uint64 {
	return binary.LittleEndian.Uint64(s.data[0:8])
}

func (s *Store) setNextID(v uint64) {
	binary.LittleEndian.PutUint64(s.data[0:8], v)
}

// Close unmaps and closes the backing file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.data.Unmap(); err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "unmap record store")
	}
	return graph.Wrap(graph.ErrIo, s.file.Close(), "close record store file")
}

// Sync flushes mapped pages to disk.
func (s *Store) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Wrap(graph.ErrPageCache, s.data.Flush(), "flush record store")
}

func (s *Store) offsetOf(id uint64) uint64 {
	return headerSize + id*uint64(s.stride)
}

// Allocate reserves the next id and returns it with its record zeroed
// and marked in-use.
func (s *Store) Allocate() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID()
	off := s.offsetOf(id)
	if err := s.ensureCapacity(off + uint64(s.stride)); err != nil {
		return 0, err
	}
	for i := 0; i < s.stride; i++ {
		s.data[off+uint64(i)] = 0
	}
	s.data[off] = flagInUse
	s.setNextID(id + 1)
	return id, nil
}

// BumpNextID raises the next-id counter to at least min, without
// touching any record. WAL redo uses this after writing a record at an
// explicit id (recreating the id the original write was assigned) so a
// subsequent Allocate never hands out that id again.
func (s *Store) BumpNextID(min uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextID() < min {
		s.setNextID(min)
	}
}

// Write overwrites the record at id with raw (len(raw) must equal the
// configured stride). The in-use flag bit is preserved/set by the
// caller as part of raw[0].
func (s *Store) Write(id uint64, raw []byte) error {
	if len(raw) != s.stride {
		return graph.New(graph.ErrInternal, "record write size %d != stride %d", len(raw), s.stride)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	off := s.offsetOf(id)
	if err := s.ensureCapacity(off + uint64(s.stride)); err != nil {
		return err
	}
	copy(s.data[off:off+uint64(s.stride)], raw)
	if raw[0]&flagDeleted != 0 {
		s.deleted.Add(uint32(id))
	} else {
		s.deleted.Remove(uint32(id))
	}
	return nil
}

// Read returns a copy of the raw record bytes at id.
func (s *Store) Read(id uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readRaw(id)
}

func (s *Store) readRaw(id uint64) ([]byte, error) {
	off := s.offsetOf(id)
	if off+uint64(s.stride) > uint64(len(s.data)) {
		return nil, graph.New(graph.ErrInvalidId, "record id %d out of range", id)
	}
	out := make([]byte, s.stride)
	copy(out, s.data[off:off+uint64(s.stride)])
	return out, nil
}

// MarkDeleted tombstones id: the slot is never reused, but its flags
// byte and the in-memory deleted bitmap record it as gone.
func (s *Store) MarkDeleted(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	off := s.offsetOf(id)
	if off+uint64(s.stride) > uint64(len(s.data)) {
		return graph.New(graph.ErrInvalidId, "record id %d out of range", id)
	}
	s.data[off] = flagInUse | flagDeleted
	s.deleted.Add(uint32(id))
	return nil
}

// ClearDeleted un-tombstones id, used by pkg/txn to undo a staged
// delete when a write transaction aborts.
func (s *Store) ClearDeleted(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	off := s.offsetOf(id)
	if off+uint64(s.stride) > uint64(len(s.data)) {
		return graph.New(graph.ErrInvalidId, "record id %d out of range", id)
	}
	s.data[off] = flagInUse
	s.deleted.Remove(uint32(id))
	return nil
}

// IsDeleted reports whether id has been tombstoned.
func (s *Store) IsDeleted(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted.Contains(uint32(id))
}

// LiveIDs returns every non-tombstoned record id in ascending order,
// excluding the permanently reserved id 0. Used by AllNodesScan and by
// the reindex tool's rebuild passes.
func (s *Store) LiveIDs() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := s.nextID()
	if next == 0 {
		return nil
	}
	out := make([]uint64, 0, next-1)
	for id := uint64(1); id < next; id++ {
		if !s.deleted.Contains(uint32(id)) {
			out = append(out, id)
		}
	}
	return out
}

// Allocated returns the highest id ever handed out by Allocate, 0 if
// none has been. WAL redo uses it to tell whether a record the log
// names already has a slot in the file (redo is then a no-op for that
// record) or still needs PutNode/PutRelationship plus BumpNextID to
// recreate it.
func (s *Store) Allocated() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := s.nextID()
	if next == 0 {
		return 0
	}
	return next - 1
}

// Count returns (allocated, live) record counts, excluding the
// permanently reserved id 0.
func (s *Store) Count() (allocated uint64, live uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := s.nextID()
	if next == 0 {
		return 0, 0
	}
	allocated = next - 1
	live = allocated - uint64(s.deleted.GetCardinality())
	return
}

// ensureCapacity grows the backing file until at least minSize bytes.
// Caller must hold s.mu for writing.
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
		return graph.Wrap(graph.ErrPageCache, err, "unmap record store before growth")
	}
	if err := s.file.Truncate(grown); err != nil {
		return graph.Wrap(graph.ErrIo, err, "grow record store to %d bytes", grown)
	}
	data, err := mmap.Map(s.file, mmap.RDWR, 0)
	if err != nil {
		return graph.Wrap(graph.ErrPageCache, err, "remap record store after growth")
	}
	s.data = data
	return nil
}
