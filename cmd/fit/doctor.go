package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/ui"
	"github.com/fitrepo/fit/internal/vcs"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: "advanced",
	Short:   "Check that the external tools fit needs are installed",
	Long: `Probe the external tools fit drives and report their versions.

Checks git, fossil, and git-filter-repo for presence and minimum
version. Exits non-zero when any probe fails, so it can gate scripts.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(ui.RenderHeader("Dependencies"))

		healthy := true
		for _, dep := range vcs.CheckDependencies(cmd.Context()) {
			detail := dep.Version
			if dep.Problem != "" {
				detail = dep.Problem
				healthy = false
			}
			fmt.Println(ui.StatusLine(dep.Problem == "", dep.Tool, detail))
		}

		if !healthy {
			fmt.Fprintf(os.Stderr, "\n%s Some dependencies need attention\n", ui.RenderFail("✗"))
			os.Exit(1)
		}
		fmt.Printf("\n%s All dependencies healthy\n", ui.RenderPass("✓"))
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
