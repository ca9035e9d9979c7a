package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"grafema/internal/datalog"
	"grafema/internal/mangle/transpiler"
)

var queryCmd = &cobra.Command{
	Use:   "query <datalog-query>",
	Short: "Run a Datalog query over node/2, edge/3, attr/3",
	Long: `Loads the graph and evaluates a single Datalog query against the
three-predicate surface (node/2, edge/3, attr/3), printing each binding row.
The query is one atom; conjunctions are not accepted.

Example:
  grafema query 'node(X, "FUNCTION")'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var (
	traceFromID   string
	traceDir      string
	traceMaxDepth int
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace data flow from a node along ASSIGNED_FROM/DERIVES_FROM/PASSES_ARGUMENT",
	RunE:  runTrace,
}

func init() {
	traceCmd.Flags().StringVar(&traceFromID, "from", "", "source node id (required)")
	traceCmd.Flags().StringVar(&traceDir, "direction", "out", `"out" or "in"`)
	traceCmd.Flags().IntVar(&traceMaxDepth, "max-depth", 20, "maximum traversal depth")
	traceCmd.MarkFlagRequired("from")
}

func openDatalogEngine(ctx context.Context) (*datalog.Engine, func(), error) {
	b, err := openBackend()
	if err != nil {
		return nil, nil, err
	}
	engine, err := datalog.New(datalog.DefaultConfig())
	if err != nil {
		closeBackend(b)
		return nil, nil, err
	}
	if err := engine.LoadGraph(ctx, b); err != nil {
		closeBackend(b)
		return nil, nil, err
	}
	return engine, func() { closeBackend(b) }, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	engine, cleanup, err := openDatalogEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// Ad-hoc queries get the same SQL-style-aggregation and unsafe-negation
	// cleanup as a guarantee's stored rule; fall back to the raw text if it
	// doesn't parse as a standalone clause (interactive queries are often a
	// bare goal, not a full rule).
	queryText := args[0]
	if clean, err := transpiler.NewSanitizer().Sanitize(queryText); err == nil {
		queryText = clean
	}

	rows, err := engine.Query(ctx, queryText)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Println(row)
	}
	fmt.Printf("%d row(s)\n", len(rows))
	return nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	engine, cleanup, err := openDatalogEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	visited, err := engine.TraceDataFlow(ctx, traceFromID, traceDir, traceMaxDepth)
	if err != nil {
		return err
	}
	for _, id := range visited {
		fmt.Println(id)
	}
	fmt.Printf("%d node(s) reached\n", len(visited))
	return nil
}
