package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/ui"
)

var pushCmd = &cobra.Command{
	Use:     "push <path>",
	GroupID: "sync",
	Short:   "Push aggregate commits back to the subtree's Git source",
	Long: `Flow commits made in the aggregate back out to a subtree's source.

Exports the subtree's namespace-prefixed branches from the aggregate,
imports the commits that have no recorded mark into a fresh clone of
the source, and force-pushes the result to the source's origin.
Previously pushed commits are never sent twice.

Fails when no aggregate branch carries the subtree's namespace prefix;
that means the subtree was never imported or its branches were renamed
by hand.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, cleanup, err := openEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		fmt.Printf("Pushing %s to its source...\n", ui.RenderAccent(args[0]))
		if err := eng.Push(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Pushed %s\n", ui.RenderPass("✓"), args[0])
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
