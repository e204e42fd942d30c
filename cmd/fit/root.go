package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fitrepo/fit/internal/engine"
	"github.com/fitrepo/fit/internal/registry"
)

var rootCmd = &cobra.Command{
	Use:   "fit",
	Short: "Bidirectional sync between Git repositories and a Fossil monorepo",
	Long: `fit maintains one aggregate Fossil repository that holds the full
history of many independent Git repositories. Each source lives under
its own subtree directory and its branches carry a namespace prefix, so
histories never collide. Syncs are incremental in both directions.

Start a project with 'fit init', bring sources in with 'fit import',
and keep them fresh with 'fit update' and 'fit push'.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "advanced", Title: "Advanced Commands:"},
	)

	rootCmd.PersistentFlags().StringP("dir", "C", "", "Project root (default: walk up from the working directory)")
	rootCmd.PersistentFlags().String("fossil-repo", "", "Aggregate repository file (default: <root>/fit.fossil)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")

	_ = viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("fossil-repo", rootCmd.PersistentFlags().Lookup("fossil-repo"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig loads fit.yaml from the project root when present and maps
// FIT_* environment variables onto settings.
func initConfig() {
	viper.SetEnvPrefix("FIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("fit")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(projectRoot())
	// A missing config file is the normal case.
	_ = viper.ReadInConfig()
}

// projectRoot resolves the project root: the --dir flag (or FIT_DIR)
// wins, otherwise the nearest ancestor holding a fit.fossil file,
// otherwise the working directory.
func projectRoot() string {
	if dir := viper.GetString("dir"); dir != "" {
		abs, err := filepath.Abs(dir)
		if err == nil {
			return abs
		}
		return dir
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return findRoot(cwd)
}

// findRoot walks up from start looking for a fit.fossil file and
// returns start when none is found.
func findRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "fit.fossil")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// newLogger builds the CLI logger: stderr for the operator, plus a
// rotated log file under .fit once the project exists. Non-verbose runs
// log to the file only.
func newLogger(root string) *log.Logger {
	var writers []io.Writer
	if viper.GetBool("verbose") {
		writers = append(writers, os.Stderr)
	}
	if _, err := os.Stat(filepath.Join(root, ".fit")); err == nil {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(root, ".fit", "fit.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	if len(writers) == 0 {
		return log.New(io.Discard, "", 0)
	}
	return log.New(io.MultiWriter(writers...), "[fit] ", log.LstdFlags)
}

// openEngine opens the registry and builds the engine for the resolved
// project root. The returned cleanup closes the registry.
func openEngine() (*engine.Engine, func(), error) {
	root := projectRoot()

	if err := os.MkdirAll(filepath.Dir(engine.RegistryPath(root)), 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	reg, err := registry.Open(engine.RegistryPath(root))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open registry: %w", err)
	}

	cfg := engine.DefaultConfig(root)
	if repo := viper.GetString("fossil-repo"); repo != "" {
		if abs, err := filepath.Abs(repo); err == nil {
			repo = abs
		}
		cfg.FossilRepo = repo
	}

	eng := engine.New(cfg, reg, newLogger(root))
	return eng, func() { _ = reg.Close() }, nil
}
