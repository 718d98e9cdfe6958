package main

import (
	"fmt"

	"github.com/cuemby/graphd/pkg/engine"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain [cypher]",
	Short: "Plan (EXPLAIN) or plan-and-run (PROFILE) a Cypher statement and print its operator pipeline",
	Long: `explain runs a query whose first clause is EXPLAIN or PROFILE and
prints the operator pipeline pkg/planner built for it. EXPLAIN only
plans; PROFILE also executes and prints the rows.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	e, err := engine.Open(dataDir, engine.DefaultConfig())
	if err != nil {
		return fmt.Errorf("open %s: %w", dataDir, err)
	}
	defer e.Close()

	out, err := e.Explain(args[0], nil)
	if err != nil {
		return err
	}
	for i, op := range out.Operators {
		fmt.Printf("%2d  %-20s %s\n", i, op.Type, op.Detail)
	}
	if out.Result != nil {
		fmt.Println()
		printResult(out.Result)
	}
	return nil
}
