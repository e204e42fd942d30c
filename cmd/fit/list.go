package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fitrepo/fit/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "sync",
	Short:   "List registered subtrees",
	Long: `List every registered subtree with its source URL.

Output formats:
  table   human-readable columns (default)
  yaml    full registration records, machine-readable`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("output")

		eng, cleanup, err := openEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		regs, err := eng.Registry().List(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		switch format {
		case "yaml":
			data, err := yaml.Marshal(regs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Stdout.Write(data)

		case "table":
			if len(regs) == 0 {
				fmt.Println("No subtrees registered")
				return
			}
			rows := make([][]string, 0, len(regs))
			for _, reg := range regs {
				updated := ""
				if !reg.UpdatedAt.IsZero() {
					updated = reg.UpdatedAt.Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{reg.Path, reg.SourceURL, updated})
			}
			fmt.Println(ui.Table([]string{"PATH", "SOURCE", "UPDATED"}, rows))

		default:
			fmt.Fprintf(os.Stderr, "Error: unknown output format %q (want table or yaml)\n", format)
			os.Exit(1)
		}
	},
}

func init() {
	listCmd.Flags().StringP("output", "o", "table", "Output format (table, yaml)")
	rootCmd.AddCommand(listCmd)
}
