// Command graphd-reindex is graphd's offline maintenance tool: it
// rebuilds the adjacency store from the relationship record chains and
// the in-memory label/property/vector indexes from the node records,
// without going through the normal write path. It exists for
// recovering from a data directory whose derived structures (the
// adjacency store, or anything under indexes/) are missing or
// suspected corrupt — engine.Open already rebuilds the label/property/
// vector indexes on every start (they are never persisted), but a full
// walk of every node's authoritative relationship chain is too
// expensive to pay on every open, so it lives here instead. Grounded
// on the teacher's cmd/warren-migrate: back up the data directory
// before mutating it, support --dry-run, and report a before/after
// summary rather than mutating silently.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cuemby/graphd/pkg/adjacency"
	"github.com/cuemby/graphd/pkg/engine"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "graphd-reindex",
	Short:   "Rebuild graphd's adjacency store and in-memory indexes from the record stores",
	Version: Version,
	Args:    cobra.NoArgs,
	RunE:    runReindex,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("graphd-reindex version %s (%s)\n", Version, Commit))

	rootCmd.Flags().String("data-dir", "./graphd-data", "Database data directory")
	rootCmd.Flags().Bool("dry-run", false, "Report what would be rebuilt without writing anything")
	rootCmd.Flags().String("backup-path", "", "Directory to copy the data directory into before rebuilding (default: <data-dir>.bak)")
	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cobra.OnInitialize(func() {
		level, _ := rootCmd.Flags().GetString("log-level")
		log.Init(log.Config{Level: log.Level(level)})
	})
}

func runReindex(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	backupPath, _ := cmd.Flags().GetString("backup-path")
	out := cmd.OutOrStdout()

	if _, err := os.Stat(dataDir); err != nil {
		return fmt.Errorf("data directory %s: %w", dataDir, err)
	}

	if !dryRun {
		if backupPath == "" {
			backupPath = dataDir + ".bak"
		}
		fmt.Fprintf(out, "backing up %s to %s\n", dataDir, backupPath)
		if err := backupDir(dataDir, backupPath); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}

	// Open runs WAL redo and rebuilds the label/property/vector
	// indexes unconditionally (see pkg/engine's consistency.go); that
	// leaves only the adjacency store's full rebuild to this tool.
	e, err := engine.Open(dataDir, engine.DefaultConfig())
	if err != nil {
		return fmt.Errorf("open %s: %w", dataDir, err)
	}
	defer e.Close()

	stores := e.Stores()
	liveIDs := stores.Nodes.LiveIDs()
	fmt.Fprintf(out, "found %d live nodes to rebuild adjacency for\n", len(liveIDs))

	if dryRun {
		fmt.Fprintln(out, "dry run: no changes written")
		return nil
	}

	rebuilt := 0
	for _, rawID := range liveIDs {
		nodeID := graph.NodeId(rawID)
		if err := adjacency.RebuildNode(stores.Adjacency, stores.Nodes, stores.Rels, nodeID); err != nil {
			return fmt.Errorf("rebuild adjacency for node %d: %w", nodeID, err)
		}
		rebuilt++
	}

	if err := stores.Adjacency.Sync(); err != nil {
		return fmt.Errorf("flush adjacency store: %w", err)
	}

	fmt.Fprintf(out, "rebuilt adjacency lists for %d nodes\n", rebuilt)
	fmt.Fprintln(out, "label, property and vector indexes rebuilt in memory on open")
	return nil
}

// backupDir copies every regular file directly under src into dst,
// mirroring the teacher's single-file bbolt backup but generalized to
// graphd's several store files (nodes.store, rels.store, props.store,
// adjacency.outgoing.store, adjacency.incoming.store, wal.log,
// catalog.db).
func backupDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
