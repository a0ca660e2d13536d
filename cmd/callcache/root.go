package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonardcser/callcache/internal/backend"
	"github.com/leonardcser/callcache/internal/callcache"
	"github.com/leonardcser/callcache/internal/config"
	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/logger"
)

var (
	// Global flags.
	backendName string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "callcache",
	Short: "Inspect and drive the instrumented call cache",
	Long: `callcache stores values under generated keys, reads them back and
replays the recorded history of every Cache.Store call.

The backend defaults to CALLCACHE_BACKEND (socket when unset).

Examples:
  # Store a value and print its key
  callcache store 42 --type int

  # Read it back
  callcache get 3f0c1c9e-... --type int

  # Show every recorded store call
  callcache replay`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetLevel(logger.LevelDebug)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", "", "store backend: socket, bolt, memory or redis")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig reads the environment and applies the --backend override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backendName != "" {
		cfg.Backend = backendName
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openStore opens the configured backend.
func openStore(ctx context.Context) (kv.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	logger.Debugf("Opened %s backend", cfg.Backend)
	return store, cfg, nil
}

// openCache wraps the configured backend without flushing it, so recorded
// history from other processes survives inspection.
func openCache(ctx context.Context) (*callcache.Cache, kv.Store, error) {
	store, _, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := callcache.New(ctx, store, callcache.WithoutFlush())
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return c, store, nil
}
