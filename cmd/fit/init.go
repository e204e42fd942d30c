package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitrepo/fit/internal/ui"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "sync",
	Short:   "Create the aggregate Fossil repository and open it here",
	Long: `Initialize a fit project in the current directory (or --dir).

Creates the aggregate repository file (fit.fossil), opens it as the
root checkout, and prepares the .fit state directory. Running init
again in an initialized project is harmless.

Extra arguments can be forwarded to the underlying fossil commands:

  fit init --init-arg --sha3 --open-arg --force`,
	Run: func(cmd *cobra.Command, args []string) {
		initArgs, _ := cmd.Flags().GetStringArray("init-arg")
		openArgs, _ := cmd.Flags().GetStringArray("open-arg")

		eng, cleanup, err := openEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		if err := eng.Init(cmd.Context(), initArgs, openArgs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Initialized fit project in %s\n", ui.RenderPass("✓"), eng.Config().Root)
		fmt.Printf("   Aggregate repository: %s\n", eng.Config().FossilRepo)
	},
}

func init() {
	initCmd.Flags().StringArray("init-arg", nil, "Extra argument for 'fossil init' (repeatable)")
	initCmd.Flags().StringArray("open-arg", nil, "Extra argument for 'fossil open' (repeatable)")
	rootCmd.AddCommand(initCmd)
}
