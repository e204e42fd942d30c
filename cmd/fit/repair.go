package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/ui"
	"github.com/fitrepo/fit/internal/workspace"
)

var repairCmd = &cobra.Command{
	Use:     "repair <path>",
	GroupID: "advanced",
	Short:   "Repair a workspace whose status view went inconsistent",
	Long: `Repair a subtree workspace whose index disagrees with its filter.

The symptom is tracked files inside the subtree showing up as
untracked. The repair widens the path filter, re-adds everything,
unstages, and restores the scoped filter. Safe to run repeatedly.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
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

		if err := workspace.Verify(cmd.Context(), ws); err == nil {
			fmt.Printf("%s Workspace %s is healthy\n", ui.RenderPass("✓"), reg.Path)
			return
		}

		fmt.Printf("Repairing workspace %s...\n", ui.RenderAccent(reg.Path))
		if err := workspace.Repair(cmd.Context(), ws); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := workspace.Verify(cmd.Context(), ws); err != nil {
			fmt.Fprintf(os.Stderr, "%s Repair ran but the workspace is still inconsistent: %v\n", ui.RenderWarn("⚠"), err)
			os.Exit(1)
		}
		fmt.Printf("%s Workspace repaired\n", ui.RenderPass("✓"))
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
