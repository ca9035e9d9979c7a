// Package main implements the grafema CLI: a static-analysis tool that
// extracts a JavaScript/TypeScript codebase into a property graph, then
// lets callers query, validate, and guard that graph.
//
// This file serves as the entry point and command registration hub. The
// actual command implementations are split across multiple cmd_*.go files,
// following the teacher's cmd/nerd/main.go convention.
//
// # File Index
//
//   - main.go         - Entry point, rootCmd, global flags, init()
//   - cmd_analyze.go  - analyzeCmd, runAnalyze() (parse + extract + enrich + validate)
//   - cmd_query.go    - queryCmd, traceCmd, runQuery(), runTrace()
//   - cmd_guarantee.go - guaranteeCmd and its create/export/import/check/drift/explain subcommands
//   - cmd_watch.go     - watchCmd, runWatch() (fsnotify-driven re-analyze)
//   - cmd_backend.go   - openBackend()/closeBackend() shared by every subcommand
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose   bool
	dbPath    string
	useMemory bool
	timeout   time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "grafema",
	Short: "grafema - static code-property-graph extractor for JavaScript/TypeScript",
	Long: `grafema parses a JavaScript/TypeScript codebase into a property graph
of functions, classes, calls, and data flow, then lets you query it with
Datalog, validate it against built-in rules, and guard invariants with
durable guarantees.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", ".grafema/graph.db", "path to the SQLite graph database")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "use an in-memory graph store instead of SQLite")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall command timeout")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(guaranteeCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
