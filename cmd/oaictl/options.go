package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"oaiagents/internal/config"
	"oaiagents/internal/storage"
)

// globalOptions are the persistent flags shared by every subcommand. Flags
// left unset fall back to the config file, then OAI_* variables, then the
// defaults.
type globalOptions struct {
	configPath string
	envFile    string
	layout     string
	dataPath   string
	baseDir    string
	store      string
	dbPath     string
	logLevel   string
}

func (o *globalOptions) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "YAML config file")
	f.StringVar(&o.envFile, "env-file", ".env", "env file with OAI_* overrides")
	f.StringVar(&o.layout, "layout", "", "layout name")
	f.StringVar(&o.dataPath, "data-path", "", "trial data directory, relative to base dir")
	f.StringVar(&o.baseDir, "base-dir", "", "base directory")
	f.StringVar(&o.store, "store", "", "trial store backend: file|memory|sqlite|badger")
	f.StringVar(&o.dbPath, "db-path", "", "database path for sqlite and badger stores")
	f.StringVar(&o.logLevel, "log-level", "", "debug|info|warn|error")
}

func (o *globalOptions) args(cmd *cobra.Command) (config.Args, error) {
	if err := config.LoadEnv(o.envFile); err != nil {
		return config.Args{}, err
	}
	args, err := config.Load(o.configPath)
	if err != nil {
		return config.Args{}, err
	}
	if err := args.ApplyEnv(os.LookupEnv); err != nil {
		return config.Args{}, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("layout", &args.LayoutName, o.layout)
	override("data-path", &args.DataPath, o.dataPath)
	override("base-dir", &args.BaseDir, o.baseDir)
	override("store", &args.Store, o.store)
	override("db-path", &args.DBPath, o.dbPath)
	override("log-level", &args.LogLevel, o.logLevel)

	if err := args.Validate(); err != nil {
		return config.Args{}, err
	}
	return args, nil
}

func newLogger(cmd *cobra.Command, args config.Args) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: args.Level()}))
}

// openStore builds and initializes the configured trial store. The caller
// closes it with storage.CloseIfSupported.
func openStore(ctx context.Context, args config.Args, logger *slog.Logger) (storage.Store, error) {
	store, err := storage.NewStore(args.Store, args.StorePath(), logger)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, fmt.Errorf("init %s store: %w", args.Store, err)
	}
	return store, nil
}
