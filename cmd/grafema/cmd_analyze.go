package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grafema/internal/astparse"
	"grafema/internal/graph"
	"grafema/internal/orchestrator"
	"grafema/internal/pipeline"
)

var analyzeGlob string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Parse and extract files into the graph",
	Long: `Parses every JavaScript/TypeScript file given into the graph, then runs
the enrichment passes and validators. With no paths, the current directory
is walked for every supported extension (skipping node_modules, .git, dist,
build, .grafema and .d.ts files); the --glob value is not consulted.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeGlob, "glob", "**/*.{js,ts,jsx,tsx}", "accepted but not used: discovery walks the current directory by extension")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	files, err := resolveFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files found")
	}

	b, err := openBackend()
	if err != nil {
		return err
	}
	defer closeBackend(b)

	singletons := graph.NewSingletons()
	result, err := pipeline.Run(ctx, b, singletons, files, func(ev orchestrator.ProgressEvent) {
		if logger != nil {
			logger.Debug("processing", zap.String("phase", string(ev.Phase)), zap.String("message", ev.Message),
				zap.Int("processed", ev.ProcessedFiles), zap.Int("total", ev.TotalFiles))
		}
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, fr := range result.Files {
		if fr.Error != nil {
			failed++
			fmt.Printf("skip %s: %v\n", fr.Path, fr.Error)
		}
	}
	fmt.Printf("analyzed %d file(s), %d skipped, %d issue(s) found\n", len(result.Files), failed, len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
	}
	return nil
}

// resolveFiles expands args into a concrete file list: explicit paths are
// used as-is; with no args, the current directory is walked for every
// extension astparse.Supports recognizes, skipping dependency/build dirs.
func resolveFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return discoverSourceFiles(".")
}

var skippedDirs = map[string]bool{
	"node_modules": true, ".git": true, "dist": true, "build": true, ".grafema": true,
}

func discoverSourceFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if astparse.Supports(path) && !strings.HasSuffix(path, ".d.ts") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
