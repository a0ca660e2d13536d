// Package backend opens the kv.Store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/leonardcser/callcache/internal/config"
	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/kv/boltkv"
	"github.com/leonardcser/callcache/internal/kv/memkv"
	"github.com/leonardcser/callcache/internal/kv/rediskv"
	"github.com/leonardcser/callcache/internal/logger"
)

// DaemonBinary is the executable started when no daemon answers on the socket.
const DaemonBinary = "callcache-daemon"

// Open returns the store named by cfg.Backend. The caller closes it.
func Open(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	var (
		store kv.Store
		err   error
	)
	switch cfg.Backend {
	case config.BackendBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, err
		}
		store, err = open(boltkv.Open(cfg.DBPath, boltkv.Options{Bucket: "callcache"}))
	case config.BackendMemory:
		store, err = open(memkv.New())
	case config.BackendRedis:
		store, err = open(rediskv.Open(ctx, cfg.RedisAddr))
	case config.BackendSocket:
		store, err = open(Dial(ctx, cfg.SocketPath, true))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	return store, nil
}

// open drops typed nil stores so a failed open never yields a non-nil interface.
func open[S kv.Store](s S, err error) (kv.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Dial connects to the daemon at sock. With autostart, a missing daemon is
// launched and waited for up to five seconds.
func Dial(ctx context.Context, sock string, autostart bool) (*kv.Client, error) {
	client := kv.NewClient(sock)
	logger.Infof("Attempting to connect to cache daemon at %s", sock)
	err := client.Ping(ctx)
	if err == nil {
		return client, nil
	}
	if !autostart {
		return nil, fmt.Errorf("connect to cache daemon: %w", err)
	}

	logger.Warnf("Failed to connect to cache daemon: %v, attempting to start daemon", err)
	if startErr := startDaemon(sock); startErr != nil {
		logger.Errorf("Failed to start cache daemon: %v", startErr)
	} else {
		logger.Infof("Cache daemon started")
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err = client.Ping(ctx); err == nil {
			logger.Infof("Connected to cache daemon")
			return client, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("connect to cache daemon after startup attempt: %w", err)
}

// startDaemon looks for the daemon next to this executable, then on PATH,
// then in the working directory.
func startDaemon(sock string) error {
	var candidates []string
	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exePath), DaemonBinary))
	}
	if path, err := exec.LookPath(DaemonBinary); err == nil {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, "./"+DaemonBinary)

	for _, bin := range candidates {
		if _, err := os.Stat(bin); err != nil {
			continue
		}
		cmd := exec.Command(bin)
		cmd.Env = append(os.Environ(), "CALLCACHE_SOCK="+sock)
		return cmd.Start()
	}
	return exec.ErrNotFound
}
