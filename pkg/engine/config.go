package engine

import "time"

// Config bounds and tunes one Engine instance. The specification's
// configuration keys (plan_cache.max_entries, plan_cache.ttl,
// mmap.growth_factor, mmap.min_growth_bytes, knn.dimension) map
// directly onto these fields; cmd/graphd fills a Config from cobra
// flags rather than a file parser (see DESIGN.md).
type Config struct {
	// PlanCacheMaxEntries bounds the plan cache's LRU eviction.
	PlanCacheMaxEntries int
	// PlanCacheTTL expires a cached plan once this much time has passed
	// since it was cached, whether or not it was used meanwhile,
	// enforced by a background one-second tick sweep (see sweep.go).
	PlanCacheTTL time.Duration
	// MMapGrowthFactor is the geometric growth multiplier applied to
	// the node, relationship, property and adjacency store files.
	MMapGrowthFactor float64
	// MMapMinGrowthBytes floors a single growth step.
	MMapMinGrowthBytes int64
	// KNNDimension documents the expected vector width. No code reads
	// it: the vector index seeds its dimension lazily from the first
	// indexed vector per label (see pkg/txn's maintainVectorIndex), and
	// the planner has no KNN operator, so this is advisory only.
	KNNDimension int
}

const (
	defaultPlanCacheMaxEntries = 1000
	defaultPlanCacheTTL        = 5 * time.Minute
	defaultMMapGrowthFactor    = 2.0
	defaultMMapMinGrowthBytes  = 4 << 20
)

// DefaultConfig returns the specification's documented defaults.
func DefaultConfig() Config {
	return Config{
		PlanCacheMaxEntries: defaultPlanCacheMaxEntries,
		PlanCacheTTL:        defaultPlanCacheTTL,
		MMapGrowthFactor:    defaultMMapGrowthFactor,
		MMapMinGrowthBytes:  defaultMMapMinGrowthBytes,
	}
}

func (c Config) withDefaults() Config {
	if c.PlanCacheMaxEntries <= 0 {
		c.PlanCacheMaxEntries = defaultPlanCacheMaxEntries
	}
	if c.PlanCacheTTL <= 0 {
		c.PlanCacheTTL = defaultPlanCacheTTL
	}
	if c.MMapGrowthFactor <= 1.0 {
		c.MMapGrowthFactor = defaultMMapGrowthFactor
	}
	if c.MMapMinGrowthBytes <= 0 {
		c.MMapMinGrowthBytes = defaultMMapMinGrowthBytes
	}
	return c
}
