// Package main provides the dex CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotsian/dexscript/internal/config"
	"github.com/dotsian/dexscript/internal/engine"
	"github.com/dotsian/dexscript/internal/model"
	"github.com/dotsian/dexscript/internal/runner"
	"github.com/dotsian/dexscript/internal/store"
	"github.com/dotsian/dexscript/internal/upload"
	"github.com/dotsian/dexscript/internal/version"
)

// Version is set at build time via ldflags
var Version = version.Current

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dex",
	Short: "Run DexScript against a collectible database",
	Long: `dex runs DexScript, a line-oriented command language for creating,
updating, viewing and deleting records.

  CREATE > BALL > Earth > true    -- stage a creation
  UPDATE > BALL > Earth > HEALTH > 50
  PUSH                            -- commit staged creations

All commands output JSON by default; use --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustLoadConfig loads the global config with environment overrides, exits on error.
func mustLoadConfig(ctx context.Context) *config.GlobalConfig {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	cfg.ApplyEnv(ctx)
	return cfg
}

// mustLoadRegistry returns the default models plus those listed in the config.
func mustLoadRegistry(cfg *config.GlobalConfig) *model.Registry {
	reg := model.Default()
	if err := cfg.RegisterModels(reg); err != nil {
		exitWithError(ExitConfigError, "registering models: %v", err)
	}
	return reg
}

// mustOpenRunner opens the store and wires a runner over it.
// The caller is responsible for closing the returned store.
func mustOpenRunner(cfg *config.GlobalConfig) (*runner.Runner, *store.Store) {
	reg := mustLoadRegistry(cfg)

	st, err := store.Open(cfg.DBPath(), reg.Schemas()...)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}

	e := engine.New(reg, st, upload.New(cfg.UploadDir))
	settings := func() config.Settings { return *cfg.Settings }
	return runner.New(e, settings, version.NewClient(version.WithCurrent(Version))), st
}
