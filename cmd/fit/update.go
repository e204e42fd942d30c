package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/ui"
)

var updateCmd = &cobra.Command{
	Use:     "update [path]",
	GroupID: "sync",
	Short:   "Pull new source commits into the aggregate",
	Long: `Re-synchronize a registered subtree from its Git source.

Fetches the source afresh, replays the rewrite, and streams only the
commits that have no recorded mark yet into the aggregate. Commits
transferred by earlier syncs are never duplicated.

With --all, every registered subtree is updated in turn; a failing
subtree is reported but does not stop the others.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			fmt.Fprintf(os.Stderr, "Error: give exactly one of <path> or --all\n")
			os.Exit(1)
		}

		eng, cleanup, err := openEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		if !all {
			if err := eng.Update(cmd.Context(), args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), args[0])
			return
		}

		regs, err := eng.Registry().List(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(regs) == 0 {
			fmt.Println("No subtrees registered")
			return
		}

		failures := 0
		for _, reg := range regs {
			fmt.Printf("Updating %s...\n", ui.RenderAccent(reg.Path))
			if err := eng.Update(cmd.Context(), reg.Path); err != nil {
				fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.RenderFail("✗"), reg.Path, err)
				failures++
				continue
			}
			fmt.Printf("%s %s\n", ui.RenderPass("✓"), reg.Path)
		}
		if failures > 0 {
			fmt.Fprintf(os.Stderr, "Error: %d of %d subtrees failed to update\n", failures, len(regs))
			os.Exit(1)
		}
	},
}

func init() {
	updateCmd.Flags().Bool("all", false, "Update every registered subtree")
	rootCmd.AddCommand(updateCmd)
}
