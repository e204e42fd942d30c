package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/dashboard"
	"github.com/fitrepo/fit/internal/engine"
	"github.com/fitrepo/fit/internal/watch"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "advanced",
	Short:   "Start a local WebSocket dashboard for sync activity",
	Long: `Start a local HTTP and WebSocket server for observing sync activity.

Endpoints:
  /ws                  WebSocket stream of sync and workspace events
  /api/registrations   registration table as JSON
  /health              server health

With --watch, every registered workspace is watched for file changes
and quiesced change batches are broadcast to connected clients. Adding
--sync runs an update after each batch; the sync's phase transitions
stream to clients as they happen.

Example usage:
  fit dashboard                 # Start on default port 8417
  fit dashboard --port 9000     # Start on custom port`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		watchAll, _ := cmd.Flags().GetBool("watch")
		syncOnChange, _ := cmd.Flags().GetBool("sync")

		if syncOnChange && !watchAll {
			fmt.Fprintf(os.Stderr, "Error: --sync requires --watch\n")
			os.Exit(1)
		}

		eng, cleanup, err := openEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		server := dashboard.NewServer(&dashboard.Config{
			Port:     port,
			Registry: eng.Registry(),
			Logger:   log.New(os.Stderr, "[dashboard] ", log.LstdFlags),
		})
		// Phase transitions of syncs run by this process stream to
		// connected clients.
		eng.SetNotifier(server)
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var watchers []*watch.Watcher
		if watchAll {
			watchers = startWorkspaceFeeds(ctx, eng, server, syncOnChange)
		}

		fmt.Printf("Dashboard started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		<-ctx.Done()

		fmt.Println("\nShutting down dashboard...")
		for _, w := range watchers {
			_ = w.Stop()
		}
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
	},
}

// startWorkspaceFeeds attaches a debounced watcher to every registered
// workspace and broadcasts batches through the dashboard. With
// syncOnChange, each quiesced batch also runs an update through the
// engine, whose phase transitions reach clients via the notifier.
// Workspaces that cannot be watched are reported and skipped.
func startWorkspaceFeeds(ctx context.Context, eng *engine.Engine, server *dashboard.Server, syncOnChange bool) []*watch.Watcher {
	logger := log.New(os.Stderr, "[watch] ", log.LstdFlags)

	regs, err := eng.Registry().List(ctx)
	if err != nil {
		logger.Printf("failed to list registrations: %v", err)
		return nil
	}

	var watchers []*watch.Watcher
	for _, reg := range regs {
		ws := reg.WorkspacePath
		if ws == "" {
			ws = filepath.Join(eng.Config().Root, filepath.FromSlash(reg.Path))
		}
		if _, err := os.Stat(ws); err != nil {
			logger.Printf("skipping %s: %v", reg.Path, err)
			continue
		}

		subtree := reg.Path
		watcher, err := watch.New(watch.Config{
			Dir:    ws,
			Logger: logger,
			OnBatch: func(ctx context.Context, paths []string) {
				server.WorkspaceChanged(subtree, paths)
				if syncOnChange {
					if err := eng.Update(ctx, subtree); err != nil {
						logger.Printf("update of %s failed: %v", subtree, err)
					}
				}
			},
		})
		if err != nil {
			logger.Printf("failed to create watcher for %s: %v", subtree, err)
			continue
		}
		if err := watcher.Start(ctx); err != nil {
			logger.Printf("failed to watch %s: %v", subtree, err)
			continue
		}
		watchers = append(watchers, watcher)
	}
	return watchers
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", dashboard.DefaultPort, "Port to listen on")
	dashboardCmd.Flags().Bool("watch", false, "Broadcast workspace file changes for all registrations")
	dashboardCmd.Flags().Bool("sync", false, "With --watch, run an update after each quiesced change batch")
	rootCmd.AddCommand(dashboardCmd)
}
