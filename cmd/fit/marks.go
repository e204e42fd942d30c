package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/ui"
)

var resetMarksCmd = &cobra.Command{
	Use:     "reset-marks <path>",
	GroupID: "advanced",
	Short:   "Delete a subtree's mark tables, forcing a full re-transfer",
	Long: `Delete both mark tables of a registered subtree.

The mark tables are what make syncs incremental: they record which
commits already crossed the bridge. After a reset, the next sync in
either direction re-transfers the full history, which can rewrite the
downstream repository's history. Use this to recover from corrupted or
manually edited mark files.

Interactive runs ask for confirmation; pass --yes to skip it (required
when stdin is not a terminal).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes {
			if !ui.IsInteractive() {
				fmt.Fprintf(os.Stderr, "Error: refusing to reset marks without --yes in a non-interactive run\n")
				os.Exit(1)
			}

			confirmed := false
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Reset mark tables for %s?", args[0])).
					Description("The next sync will re-transfer the full history and can rewrite the downstream repository.").
					Affirmative("Reset").
					Negative("Cancel").
					Value(&confirmed),
			))
			if err := form.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !confirmed {
				fmt.Println("Canceled")
				return
			}
		}

		eng, cleanup, err := openEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		if err := eng.ResetMarks(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Mark tables reset for %s\n", ui.RenderPass("✓"), args[0])
		fmt.Println("   The next sync will re-transfer the full history")
	},
}

func init() {
	resetMarksCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetMarksCmd)
}
