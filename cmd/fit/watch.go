package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/ui"
	"github.com/fitrepo/fit/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:     "watch <path>",
	GroupID: "advanced",
	Short:   "Watch a subtree workspace and report change batches",
	Long: `Watch a registered subtree's workspace for file changes.

Changes are debounced: rapid bursts of writes are reported as one batch
once the workspace goes quiet. With --sync, each quiet period also runs
'fit update' for the subtree, keeping the workspace fresh while you
work elsewhere.

Runs in the foreground until interrupted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doSync, _ := cmd.Flags().GetBool("sync")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		eng, cleanup, err := openEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		reg, err := eng.Registry().Get(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		ws := reg.WorkspacePath
		if ws == "" {
			ws = filepath.Join(eng.Config().Root, filepath.FromSlash(reg.Path))
		}

		logger := log.New(os.Stderr, "[watch] ", log.LstdFlags)
		watcher, err := watch.New(watch.Config{
			Dir:              ws,
			DebounceInterval: debounce,
			Logger:           logger,
			OnBatch: func(ctx context.Context, paths []string) {
				fmt.Printf("%s %d files changed in %s\n", ui.RenderAccent("~"), len(paths), reg.Path)
				if !doSync {
					return
				}
				if err := eng.Update(ctx, reg.Path); err != nil {
					logger.Printf("update failed: %v", err)
					return
				}
				fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), reg.Path)
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := watcher.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Watching %s (%s)\n", ui.RenderAccent(reg.Path), ws)
		fmt.Println("Press Ctrl+C to stop...")

		<-ctx.Done()
		if err := watcher.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().Bool("sync", false, "Run an update after each quiet period")
	watchCmd.Flags().Duration("debounce", 2*time.Second, "Quiet period before a batch is released")
	rootCmd.AddCommand(watchCmd)
}
