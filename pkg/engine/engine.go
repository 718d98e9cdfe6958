// Package engine is graphd's façade: it wires the catalog, record
// stores, property store, adjacency store, indexes, WAL and
// transaction manager into one open database, and exposes Cypher
// execution and direct CRUD over it.
package engine

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cuemby/graphd/pkg/adjacency"
	"github.com/cuemby/graphd/pkg/catalog"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/index"
	"github.com/cuemby/graphd/pkg/log"
	"github.com/cuemby/graphd/pkg/planner"
	"github.com/cuemby/graphd/pkg/propstore"
	"github.com/cuemby/graphd/pkg/recordstore"
	"github.com/cuemby/graphd/pkg/txn"
	"github.com/cuemby/graphd/pkg/wal"
	"github.com/rs/zerolog"
)

const (
	nodeStoreFile        = "nodes.store"
	relStoreFile         = "rels.store"
	propStoreFile        = "props.store"
	adjOutgoingStoreFile = "adjacency.outgoing.store"
	adjIncomingStoreFile = "adjacency.incoming.store"
	walFile              = "wal.log"
)

// Engine is one open graphd database. It is safe for concurrent use by
// multiple goroutines: reads never block on other reads or on a
// concurrent writer, and writes are serialized by pkg/txn's Manager.
type Engine struct {
	dataDir string
	cfg     Config
	logger  zerolog.Logger

	catalog *catalog.Catalog
	stores  *txn.Stores
	mgr     *txn.Manager
	planner *planner.Planner

	closeOnce sync.Once
	sweepStop chan struct{}
	sweepDone chan struct{}
}

// Open opens (creating if absent) the graphd database rooted at
// dataDir: it loads the catalog, maps every record/property/adjacency
// file, replays the WAL's committed transactions to redo any writes an
// unclean shutdown left out of the store files, and
// rebuilds the in-memory label/property/vector indexes before handing
// out any transaction. This mirrors the teacher's pkg/health check
// idiom — a set of probes run once at startup — repurposed from
// service liveness into store-consistency checks.
func Open(dataDir string, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	logger := log.WithComponent("engine")

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, graph.Wrap(graph.ErrIo, err, "create data directory %s", dataDir)
	}

	cat, err := catalog.Open(dataDir)
	if err != nil {
		return nil, err
	}

	recOpts := recordstore.Options{GrowthFactor: cfg.MMapGrowthFactor, MinGrowthBytes: cfg.MMapMinGrowthBytes}
	nodes, err := recordstore.OpenNodeStore(filepath.Join(dataDir, nodeStoreFile), recOpts)
	if err != nil {
		cat.Close()
		return nil, err
	}
	rels, err := recordstore.OpenRelationshipStore(filepath.Join(dataDir, relStoreFile), recOpts)
	if err != nil {
		nodes.Close()
		cat.Close()
		return nil, err
	}

	props, err := propstore.Open(filepath.Join(dataDir, propStoreFile), propstore.Options{
		GrowthFactor: cfg.MMapGrowthFactor, MinGrowthBytes: cfg.MMapMinGrowthBytes,
	})
	if err != nil {
		rels.Close()
		nodes.Close()
		cat.Close()
		return nil, err
	}

	adj, err := adjacency.Open(
		filepath.Join(dataDir, adjOutgoingStoreFile),
		filepath.Join(dataDir, adjIncomingStoreFile),
		adjacency.Options{GrowthFactor: cfg.MMapGrowthFactor, MinGrowthBytes: cfg.MMapMinGrowthBytes},
	)
	if err != nil {
		props.Close()
		rels.Close()
		nodes.Close()
		cat.Close()
		return nil, err
	}

	w, err := wal.Open(filepath.Join(dataDir, walFile))
	if err != nil {
		adj.Close()
		props.Close()
		rels.Close()
		nodes.Close()
		cat.Close()
		return nil, err
	}

	stores := &txn.Stores{
		Catalog:    cat,
		Nodes:      nodes,
		Rels:       rels,
		Props:      props,
		Adjacency:  adj,
		Labels:     index.NewLabelIndex(),
		Properties: index.NewPropertyIndex(),
		Vectors:    make(map[graph.LabelId]index.VectorIndex),
		WAL:        w,
	}

	if err := txn.Redo(stores, filepath.Join(dataDir, walFile)); err != nil {
		w.Close()
		adj.Close()
		props.Close()
		rels.Close()
		nodes.Close()
		cat.Close()
		return nil, err
	}

	if err := rebuildInMemoryIndexes(stores); err != nil {
		w.Close()
		adj.Close()
		props.Close()
		rels.Close()
		nodes.Close()
		cat.Close()
		return nil, err
	}

	e := &Engine{
		dataDir:   dataDir,
		cfg:       cfg,
		logger:    logger,
		catalog:   cat,
		stores:    stores,
		mgr:       txn.NewManager(stores),
		planner:   planner.New(cat, cfg.PlanCacheMaxEntries, int64(cfg.PlanCacheTTL/time.Second)),
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	e.startPlanCacheSweep()

	logger.Info().Str("data_dir", dataDir).Msg("engine opened")
	return e, nil
}

// Close stops the background plan cache sweep, flushes every
// memory-mapped store to disk and releases their file handles. Close
// is idempotent.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.sweepStop)
		<-e.sweepDone

		for _, f := range []func() error{
			e.stores.Nodes.Sync,
			e.stores.Rels.Sync,
			e.stores.Props.Sync,
			e.stores.Adjacency.Sync,
		} {
			if syncErr := f(); syncErr != nil && err == nil {
				err = syncErr
			}
		}
		for _, f := range []func() error{
			e.stores.WAL.Close,
			e.stores.Adjacency.Close,
			e.stores.Props.Close,
			e.stores.Rels.Close,
			e.stores.Nodes.Close,
			e.stores.Catalog.Close,
		} {
			if closeErr := f(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
		e.logger.Info().Msg("engine closed")
	})
	return err
}

// Stores exposes the underlying storage bundle for callers (notably
// cmd/graphd-reindex) that need to operate outside the normal
// transaction path.
func (e *Engine) Stores() *txn.Stores { return e.stores }

// Manager exposes the transaction manager for callers that want raw
// ReadTx/WriteTx access instead of going through ExecuteCypher.
func (e *Engine) Manager() *txn.Manager { return e.mgr }
