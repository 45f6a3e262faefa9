package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/stepwise/internal/config"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/player"
	"github.com/abhisek/stepwise/internal/store"
)

// env bundles what every command needs: settings, a logger and the store.
type env struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
	ps    *player.Persistence
}

// loadConfig resolves the config file, environment and command-line flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("learner"); v != "" {
		cfg.Learner = v
	}
	if v, _ := cmd.Flags().GetString("content-dir"); v != "" {
		cfg.ContentDir = v
	}
	return cfg, nil
}

// openEnv loads settings, builds the logger and opens the store. When tui
// is set and no log file is configured, logs go to a file next to the
// database so they do not draw over the screen.
func openEnv(cmd *cobra.Command, tui bool) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	logOpts := logger.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level, File: cfg.Log.File}
	if tui && logOpts.File == "" {
		logOpts.File = filepath.Join(filepath.Dir(dbPath), "stepwise.log")
	}
	log, err := logger.New(logOpts)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "path", dbPath)

	return &env{
		cfg:   cfg,
		log:   log,
		store: st,
		ps:    player.NewPersistence(st),
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("close store", "error", err)
	}
	e.log.Sync()
}
