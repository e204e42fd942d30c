package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/ui"
)

var importCmd = &cobra.Command{
	Use:     "import <source-url> <path>",
	GroupID: "sync",
	Short:   "Import a Git repository as a new subtree",
	Long: `Import a Git repository into the aggregate under a subtree path.

The source's full history is rewritten so every file lives under the
subtree directory, its branches receive the subtree's namespace prefix,
and the result streams into the aggregate repository. A workspace
directory appears at the subtree path, scoped to just that subtree.

The path uses forward slashes and may be nested (libs/parser). Each
path can be imported once; use 'fit update' afterwards.

Example:
  fit import https://github.com/example/parser.git libs/parser`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		sourceURL, subtree := args[0], args[1]

		eng, cleanup, err := openEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		fmt.Printf("Importing %s as %s...\n", sourceURL, ui.RenderAccent(subtree))
		if err := eng.Import(cmd.Context(), sourceURL, subtree); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Imported %s\n", ui.RenderPass("✓"), subtree)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
