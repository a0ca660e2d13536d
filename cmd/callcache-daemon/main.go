// Command callcache-daemon serves a bbolt-backed kv.Store over a Unix socket
// so several processes can share one cache.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/leonardcser/callcache/internal/config"
	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/kv/boltkv"
	"github.com/leonardcser/callcache/internal/logger"
)

func main() {
	if err := run(); err != nil {
		logger.Errorf("daemon error: %v", err)
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}

func run() error {
	if err := logger.InitFromEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(cfg.SocketPath), 0o755)
	_ = os.Remove(cfg.SocketPath)

	l, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		return err
	}
	defer l.Close()
	_ = os.Chmod(cfg.SocketPath, 0o600)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	store, err := boltkv.Open(cfg.DBPath, boltkv.Options{Bucket: "callcache"})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("Cache daemon listening on %s (db %s)", cfg.SocketPath, cfg.DBPath)
	if err := kv.Serve(ctx, l, store); err != nil {
		return err
	}
	logger.Infof("Cache daemon stopped")
	return nil
}
