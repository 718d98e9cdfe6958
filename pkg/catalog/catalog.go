package catalog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cuemby/graphd/pkg/graph"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketLabels      = []byte("labels")
	bucketLabelsRev   = []byte("labels_rev")
	bucketTypes       = []byte("types")
	bucketTypesRev    = []byte("types_rev")
	bucketKeys        = []byte("keys")
	bucketKeysRev     = []byte("keys_rev")
	bucketCounters    = []byte("counters")
	bucketLabelLive   = []byte("label_live")
	bucketTypeLive    = []byte("type_live")
	bucketConstraints = []byte("constraints")
	bucketIndexes     = []byte("indexes")
)

const (
	counterNextLabel = "next_label"
	counterNextType  = "next_type"
	counterNextKey   = "next_key"
)

// ConstraintKind enumerates the constraint types graphd enforces.
type ConstraintKind string

const (
	ConstraintUnique ConstraintKind = "unique"
	ConstraintExists ConstraintKind = "exists"
)

// Constraint is a persisted schema constraint: either "label.key must be
// unique across all nodes carrying label" or "label.key must be present
// on every node carrying label".
type Constraint struct {
	ID    string         `json:"id"`
	Kind  ConstraintKind `json:"kind"`
	Label string         `json:"label"`
	Key   string         `json:"key"`
}

// Catalog interns label/type/key names and tracks schema metadata. All
// read paths are served from in-memory caches; writes go through bbolt
// so a crash mid-intern never hands out an id the store never recorded.
type Catalog struct {
	db *bolt.DB
	mu sync.RWMutex

	labelIds   map[string]graph.LabelId
	labelNames map[graph.LabelId]string
	typeIds    map[string]graph.TypeId
	typeNames  map[graph.TypeId]string
	keyIds     map[string]graph.KeyId
	keyNames   map[graph.KeyId]string

	nextLabel uint32
	nextType  uint32
	nextKey   uint32
}

// Open opens (creating if absent) the catalog database under dataDir
// and loads its interning tables into memory.
func Open(dataDir string) (*Catalog, error) {
	dbPath := filepath.Join(dataDir, "catalog.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, graph.Wrap(graph.ErrCatalog, err, "open catalog db %s", dbPath)
	}

	buckets := [][]byte{
		bucketLabels, bucketLabelsRev,
		bucketTypes, bucketTypesRev,
		bucketKeys, bucketKeysRev,
		bucketCounters,
		bucketLabelLive, bucketTypeLive,
		bucketConstraints, bucketIndexes,
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, graph.Wrap(graph.ErrCatalog, err, "initialize catalog buckets")
	}

	c := &Catalog{
		db:         db,
		labelIds:   make(map[string]graph.LabelId),
		labelNames: make(map[graph.LabelId]string),
		typeIds:    make(map[string]graph.TypeId),
		typeNames:  make(map[graph.TypeId]string),
		keyIds:     make(map[string]graph.KeyId),
		keyNames:   make(map[graph.KeyId]string),
	}
	if err := c.load(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) load() error {
	return c.db.View(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketLabels).ForEach(func(k, v []byte) error {
			c.labelIds[string(k)] = graph.LabelId(binary.BigEndian.Uint32(v))
			c.labelNames[graph.LabelId(binary.BigEndian.Uint32(v))] = string(k)
			return nil
		}); err != nil {
			return err
		}
		if err := tx.Bucket(bucketTypes).ForEach(func(k, v []byte) error {
			c.typeIds[string(k)] = graph.TypeId(binary.BigEndian.Uint32(v))
			c.typeNames[graph.TypeId(binary.BigEndian.Uint32(v))] = string(k)
			return nil
		}); err != nil {
			return err
		}
		if err := tx.Bucket(bucketKeys).ForEach(func(k, v []byte) error {
			c.keyIds[string(k)] = graph.KeyId(binary.BigEndian.Uint32(v))
			c.keyNames[graph.KeyId(binary.BigEndian.Uint32(v))] = string(k)
			return nil
		}); err != nil {
			return err
		}

		counters := tx.Bucket(bucketCounters)
		c.nextLabel = readCounter(counters, counterNextLabel)
		c.nextType = readCounter(counters, counterNextType)
		c.nextKey = readCounter(counters, counterNextKey)
		return nil
	})
}

func readCounter(b *bolt.Bucket, name string) uint32 {
	v := b.Get([]byte(name))
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v)
}

// Close flushes and closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func u32bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func u64bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Label interns name, returning its existing id if already known or
// minting the next dense LabelId otherwise.
func (c *Catalog) Label(name string) (graph.LabelId, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.labelIds[name]; ok {
		return id, nil
	}
	id := graph.LabelId(c.nextLabel)
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketLabels).Put([]byte(name), u32bytes(uint32(id))); err != nil {
			return err
		}
		if err := tx.Bucket(bucketLabelsRev).Put(u32bytes(uint32(id)), []byte(name)); err != nil {
			return err
		}
		return tx.Bucket(bucketCounters).Put([]byte(counterNextLabel), u32bytes(c.nextLabel+1))
	})
	if err != nil {
		return 0, graph.Wrap(graph.ErrCatalog, err, "intern label %q", name)
	}
	c.labelIds[name] = id
	c.labelNames[id] = name
	c.nextLabel++
	return id, nil
}

// LabelName resolves id back to its interned name.
func (c *Catalog) LabelName(id graph.LabelId) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.labelNames[id]
	return name, ok
}

// LookupLabel returns the id for name without interning it if absent.
func (c *Catalog) LookupLabel(name string) (graph.LabelId, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.labelIds[name]
	return id, ok
}

// Type interns a relationship type name, same semantics as Label.
func (c *Catalog) Type(name string) (graph.TypeId, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.typeIds[name]; ok {
		return id, nil
	}
	id := graph.TypeId(c.nextType)
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketTypes).Put([]byte(name), u32bytes(uint32(id))); err != nil {
			return err
		}
		if err := tx.Bucket(bucketTypesRev).Put(u32bytes(uint32(id)), []byte(name)); err != nil {
			return err
		}
		return tx.Bucket(bucketCounters).Put([]byte(counterNextType), u32bytes(c.nextType+1))
	})
	if err != nil {
		return 0, graph.Wrap(graph.ErrCatalog, err, "intern relationship type %q", name)
	}
	c.typeIds[name] = id
	c.typeNames[id] = name
	c.nextType++
	return id, nil
}

// TypeName resolves id back to its interned relationship type name.
func (c *Catalog) TypeName(id graph.TypeId) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.typeNames[id]
	return name, ok
}

// LookupType returns the id for name without interning it if absent.
func (c *Catalog) LookupType(name string) (graph.TypeId, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.typeIds[name]
	return id, ok
}

// Key interns a property key name, same semantics as Label.
func (c *Catalog) Key(name string) (graph.KeyId, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.keyIds[name]; ok {
		return id, nil
	}
	id := graph.KeyId(c.nextKey)
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketKeys).Put([]byte(name), u32bytes(uint32(id))); err != nil {
			return err
		}
		if err := tx.Bucket(bucketKeysRev).Put(u32bytes(uint32(id)), []byte(name)); err != nil {
			return err
		}
		return tx.Bucket(bucketCounters).Put([]byte(counterNextKey), u32bytes(c.nextKey+1))
	})
	if err != nil {
		return 0, graph.Wrap(graph.ErrCatalog, err, "intern property key %q", name)
	}
	c.keyIds[name] = id
	c.keyNames[id] = name
	c.nextKey++
	return id, nil
}

// KeyName resolves id back to its interned property key name.
func (c *Catalog) KeyName(id graph.KeyId) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.keyNames[id]
	return name, ok
}

// LookupKey returns the id for name without interning it if absent.
func (c *Catalog) LookupKey(name string) (graph.KeyId, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.keyIds[name]
	return id, ok
}

// Labels returns every interned label name, used by the db.labels()
// procedure.
func (c *Catalog) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.labelIds))
	for name := range c.labelIds {
		out = append(out, name)
	}
	return out
}

// RelationshipTypes returns every interned relationship type name, used
// by the db.relationshipTypes() procedure.
func (c *Catalog) RelationshipTypes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.typeIds))
	for name := range c.typeIds {
		out = append(out, name)
	}
	return out
}

// PropertyKeys returns every interned property key name, used by the
// db.propertyKeys() procedure.
func (c *Catalog) PropertyKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.keyIds))
	for name := range c.keyIds {
		out = append(out, name)
	}
	return out
}

// IncrLabelLive adjusts the live node counter for label by delta
// (negative on delete), used by db.stats().
func (c *Catalog) IncrLabelLive(id graph.LabelId, delta int64) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLabelLive)
		cur := readCounter64(b, id)
		next := int64(cur) + delta
		if next < 0 {
			next = 0
		}
		return b.Put(u32bytes(uint32(id)), u64bytes(uint64(next)))
	})
}

// IncrTypeLive adjusts the live relationship counter for typ by delta.
func (c *Catalog) IncrTypeLive(id graph.TypeId, delta int64) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTypeLive)
		cur := readCounter64(b, id)
		next := int64(cur) + delta
		if next < 0 {
			next = 0
		}
		return b.Put(u32bytes(uint32(id)), u64bytes(uint64(next)))
	})
}

func readCounter64[T ~uint32](b *bolt.Bucket, id T) uint64 {
	v := b.Get(u32bytes(uint32(id)))
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

// LabelLiveCount returns the current live node count for label.
func (c *Catalog) LabelLiveCount(id graph.LabelId) (uint64, error) {
	var count uint64
	err := c.db.View(func(tx *bolt.Tx) error {
		count = readCounter64(tx.Bucket(bucketLabelLive), id)
		return nil
	})
	if err != nil {
		return 0, graph.Wrap(graph.ErrCatalog, err, "read label live count")
	}
	return count, nil
}

// TypeLiveCount returns the current live relationship count for typ.
func (c *Catalog) TypeLiveCount(id graph.TypeId) (uint64, error) {
	var count uint64
	err := c.db.View(func(tx *bolt.Tx) error {
		count = readCounter64(tx.Bucket(bucketTypeLive), id)
		return nil
	})
	if err != nil {
		return 0, graph.Wrap(graph.ErrCatalog, err, "read type live count")
	}
	return count, nil
}

// CreateConstraint persists a new constraint definition.
func (c *Catalog) CreateConstraint(con Constraint) error {
	data, err := json.Marshal(con)
	if err != nil {
		return graph.Wrap(graph.ErrInternal, err, "marshal constraint %s", con.ID)
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConstraints).Put([]byte(con.ID), data)
	})
	if err != nil {
		return graph.Wrap(graph.ErrCatalog, err, "persist constraint %s", con.ID)
	}
	return nil
}

// DropConstraint removes a constraint by id.
func (c *Catalog) DropConstraint(id string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConstraints).Delete([]byte(id))
	})
	if err != nil {
		return graph.Wrap(graph.ErrCatalog, err, "drop constraint %s", id)
	}
	return nil
}

// Constraints lists every registered constraint.
func (c *Catalog) Constraints() ([]Constraint, error) {
	var out []Constraint
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConstraints).ForEach(func(k, v []byte) error {
			var con Constraint
			if err := json.Unmarshal(v, &con); err != nil {
				return err
			}
			out = append(out, con)
			return nil
		})
	})
	if err != nil {
		return nil, graph.Wrap(graph.ErrCatalog, err, "list constraints")
	}
	return out, nil
}

// indexKey builds the (label, key) composite key CREATE/DROP INDEX DDL
// uses, shared between the persisted bucket and any future lookup.
func indexKey(label, key string) []byte {
	return []byte(label + "\x00" + key)
}

// CreateIndexDDL records that an index exists over (label, key); it is
// idempotent. The actual population of the index structure from
// existing nodes is pkg/executor's job, invoked after this call
// succeeds.
func (c *Catalog) CreateIndexDDL(label, key string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIndexes).Put(indexKey(label, key), []byte{1})
	})
	if err != nil {
		return graph.Wrap(graph.ErrCatalog, err, "create index ddl on %s(%s)", label, key)
	}
	return nil
}

// DropIndexDDL removes the (label, key) index record.
func (c *Catalog) DropIndexDDL(label, key string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIndexes).Delete(indexKey(label, key))
	})
	if err != nil {
		return graph.Wrap(graph.ErrCatalog, err, "drop index ddl on %s(%s)", label, key)
	}
	return nil
}

// HasIndexDDL reports whether CREATE INDEX has been issued for
// (label, key).
func (c *Catalog) HasIndexDDL(label, key string) (bool, error) {
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketIndexes).Get(indexKey(label, key)) != nil
		return nil
	})
	if err != nil {
		return false, graph.Wrap(graph.ErrCatalog, err, "read index ddl on %s(%s)", label, key)
	}
	return found, nil
}

// ConstraintsFor returns the constraints registered against label.
func (c *Catalog) ConstraintsFor(label string) ([]Constraint, error) {
	all, err := c.Constraints()
	if err != nil {
		return nil, err
	}
	var out []Constraint
	for _, con := range all {
		if con.Label == label {
			out = append(out, con)
		}
	}
	return out, nil
}
