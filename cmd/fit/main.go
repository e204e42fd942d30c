// Command fit maintains a bidirectional bridge between independent Git
// repositories and one aggregate Fossil monorepo: each source's history
// lives under its own subtree and namespace-prefixed branches, and
// changes flow both ways without duplication.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
