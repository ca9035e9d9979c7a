package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grafema/internal/graph"
	"grafema/internal/orchestrator"
	"grafema/internal/pipeline"
	"grafema/internal/watch"
)

var watchRoot string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run analyze whenever a watched source file changes",
	Long: `Watches --root for JavaScript/TypeScript changes, debounces rapid
saves, and re-runs analyze over the changed files. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRoot, "root", ".", "directory tree to watch")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend()
	if err != nil {
		return err
	}
	defer closeBackend(b)
	singletons := graph.NewSingletons()

	w, err := watch.New(watchRoot)
	if err != nil {
		return err
	}
	w.OnChange = func(ctx context.Context, changed []string) {
		fmt.Printf("change detected in %d file(s), re-analyzing...\n", len(changed))
		result, err := pipeline.Run(ctx, b, singletons, changed, func(ev orchestrator.ProgressEvent) {
			if logger != nil {
				logger.Debug("watch re-run", zap.String("phase", string(ev.Phase)), zap.String("message", ev.Message))
			}
		})
		if err != nil {
			fmt.Printf("re-analyze failed: %v\n", err)
			return
		}
		fmt.Printf("re-analyzed %d file(s), %d issue(s) found\n", len(result.Files), len(result.Issues))
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	stats := w.Stats()
	fmt.Printf("watch stopped: %d file change(s), %d re-analyze run(s)\n", stats.FilesChanged, stats.RunsTriggered)
	return nil
}
