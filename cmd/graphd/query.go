package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cuemby/graphd/pkg/engine"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [cypher]",
	Short: "Run a single Cypher statement and print its result",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	e, err := engine.Open(dataDir, engine.DefaultConfig())
	if err != nil {
		return fmt.Errorf("open %s: %w", dataDir, err)
	}
	defer e.Close()

	result, err := e.ExecuteCypher(args[0], nil)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func printResult(result *engine.QueryResult) {
	printResultTo(os.Stdout, result)
}

func printResultTo(w io.Writer, result *engine.QueryResult) {
	if len(result.Columns) == 0 {
		fmt.Fprintf(w, "(%d rows, %v, epoch=%d)\n", result.Stats.RowsReturned, result.Stats.Elapsed, result.Stats.Epoch)
		return
	}

	header := strings.Join(result.Columns, " | ")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			v, _ := row.Get(col)
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
	}
	fmt.Fprintf(w, "(%d rows, %v, epoch=%d)\n", result.Stats.RowsReturned, result.Stats.Elapsed, result.Stats.Epoch)
}

func formatValue(v graph.PropertyValue) string {
	if v.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}
