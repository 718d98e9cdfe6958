package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cuemby/graphd/pkg/engine"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive Cypher REPL against a data directory",
	Long: `shell reads Cypher statements from stdin one line at a time,
runs each against the same engine.Engine a one-shot "query" would open,
and prints the result table. Statements are newline-terminated, not
semicolon-terminated: multi-line Cypher should be pasted as one line.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	e, err := engine.Open(dataDir, engine.DefaultConfig())
	if err != nil {
		return fmt.Errorf("open %s: %w", dataDir, err)
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "graphd shell — %s (Ctrl-D to exit)\n", dataDir)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "graphd> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result, err := e.ExecuteCypher(line, nil)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printResultTo(out, result)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}
