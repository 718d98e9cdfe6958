package main

import (
	"fmt"

	"github.com/cuemby/graphd/pkg/engine"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print node/relationship/plan-cache counters for a data directory",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	e, err := engine.Open(dataDir, engine.DefaultConfig())
	if err != nil {
		return fmt.Errorf("open %s: %w", dataDir, err)
	}
	defer e.Close()

	s := e.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "epoch:              %d\n", s.Epoch)
	fmt.Fprintf(out, "nodes:              %d live / %d allocated\n", s.LiveNodes, s.AllocatedNodes)
	fmt.Fprintf(out, "relationships:      %d live / %d allocated\n", s.LiveRels, s.AllocatedRels)
	fmt.Fprintf(out, "property store:     %d bytes (%d orphaned)\n", s.PropertyStoreBytes, s.PropertyOrphanBytes)
	fmt.Fprintf(out, "plan cache:         %d cached, %d lookups, %d hits, %d misses, %d evictions, %d expirations\n",
		s.PlanCache.CachedPlans, s.PlanCache.Lookups, s.PlanCache.Hits, s.PlanCache.Misses,
		s.PlanCache.Evictions, s.PlanCache.Expirations)
	return nil
}
