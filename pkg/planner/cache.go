package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/cuemby/graphd/pkg/cypher/ast"
)

// entry is one cached plan, carrying the bookkeeping the cache's
// statistics and eviction policy need.
type entry struct {
	ops          []Operator
	cachedAtTick int64
	accessCount  uint64
	lastUsed     uint64
}

// Cache is a bounded, TTL-evicting plan cache keyed by a structural
// hash of a query's clause shape (parameter values excluded,
// parameter presence included).
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	ttlTicks   int64
	tick       int64
	useSeq     uint64

	lookups     uint64
	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
	totalReuse  uint64
}

// NewCache creates a Cache bounded to maxEntries with the given TTL
// expressed in Ticks (the caller advances ticks via Tick, typically
// once per second from a background sweep).
func NewCache(maxEntries int, ttlTicks int64) *Cache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if ttlTicks <= 0 {
		ttlTicks = 300
	}
	return &Cache{entries: make(map[string]*entry), maxEntries: maxEntries, ttlTicks: ttlTicks}
}

// Get returns the cached operator pipeline for key, or false if
// absent or expired.
func (c *Cache) Get(key string) ([]Operator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.tick-e.cachedAtTick > c.ttlTicks {
		delete(c.entries, key)
		c.expirations++
		c.misses++
		return nil, false
	}
	e.accessCount++
	c.useSeq++
	e.lastUsed = c.useSeq
	c.hits++
	c.totalReuse++
	return e.ops, true
}

// Put inserts or overwrites the plan for key, evicting the
// least-recently-used entry if the cache is at capacity.
func (c *Cache) Put(key string, ops []Operator) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}
	c.useSeq++
	c.entries[key] = &entry{ops: ops, cachedAtTick: c.tick, lastUsed: c.useSeq}
}

func (c *Cache) evictLRU() {
	var lruKey string
	var lruUsed uint64 = ^uint64(0)
	for k, e := range c.entries {
		if e.lastUsed < lruUsed {
			lruUsed = e.lastUsed
			lruKey = k
		}
	}
	if lruKey != "" {
		delete(c.entries, lruKey)
		c.evictions++
	}
}

// Tick advances the cache's internal clock by one unit, called from
// the background sweep so expiration does not depend on wall-clock
// time (kept testable without sleeping).
func (c *Cache) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	for k, e := range c.entries {
		if c.tick-e.cachedAtTick > c.ttlTicks {
			delete(c.entries, k)
			c.expirations++
		}
	}
}

// ReuseBucket labels one bucket of the cache's reuse-count
// distribution.
type ReuseBucket struct {
	Label string
	Count int
}

// Stats is the snapshot Cache.Stats returns. pkg/engine's Engine.Stats
// copies its counters and CachedPlans; the reuse figures are not
// passed on.
type Stats struct {
	Lookups      uint64
	Hits         uint64
	Misses       uint64
	Evictions    uint64
	Expirations  uint64
	CachedPlans  int
	TotalReuse   uint64
	AvgReuse     float64
	MemoryUsage  int
	ReuseBuckets []ReuseBucket
}

// Stats returns a point-in-time snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	buckets := map[string]int{"1": 0, "2-5": 0, "6-10": 0, "11-50": 0, "51-100": 0, "100+": 0}
	memory := 0
	for _, e := range c.entries {
		memory += len(e.ops) * 64
		switch {
		case e.accessCount <= 1:
			buckets["1"]++
		case e.accessCount <= 5:
			buckets["2-5"]++
		case e.accessCount <= 10:
			buckets["6-10"]++
		case e.accessCount <= 50:
			buckets["11-50"]++
		case e.accessCount <= 100:
			buckets["51-100"]++
		default:
			buckets["100+"]++
		}
	}
	order := []string{"1", "2-5", "6-10", "11-50", "51-100", "100+"}
	reuseBuckets := make([]ReuseBucket, len(order))
	for i, label := range order {
		reuseBuckets[i] = ReuseBucket{Label: label, Count: buckets[label]}
	}

	avg := 0.0
	if len(c.entries) > 0 {
		avg = float64(c.totalReuse) / float64(len(c.entries))
	}

	return Stats{
		Lookups: c.lookups, Hits: c.hits, Misses: c.misses,
		Evictions: c.evictions, Expirations: c.expirations,
		CachedPlans: len(c.entries), TotalReuse: c.totalReuse,
		AvgReuse: avg, MemoryUsage: memory, ReuseBuckets: reuseBuckets,
	}
}

// structuralKey hashes a query's clause shape excluding parameter
// values: it renders each clause's Go type and structural fields via
// fmt's %#v verb directly on the clause, keyed on that string.
// Parameter values can't leak into the key since ast.ParameterExpr
// only ever carries a name, never a bound value.
func structuralKey(q *ast.CypherQuery) string {
	h := sha256.New()
	for _, c := range q.Clauses {
		fmt.Fprintf(h, "%T:%#v;", c, c)
	}
	for name := range q.Params {
		fmt.Fprintf(h, "$%s;", name)
	}
	return hex.EncodeToString(h.Sum(nil))
}
