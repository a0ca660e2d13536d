package backend

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/leonardcser/callcache/internal/config"
	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/kv/memkv"
)

func roundTrip(t *testing.T, s kv.Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}

func TestOpenBackends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := map[string]*config.Config{
		"bolt":   {Backend: config.BackendBolt, DBPath: filepath.Join(t.TempDir(), "sub", "db.bbolt")},
		"memory": {Backend: config.BackendMemory},
		"redis":  {Backend: config.BackendRedis, RedisAddr: mr.Addr()},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := Open(ctx, cfg)
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
			roundTrip(t, s)
		})
	}

	if _, err := Open(ctx, &config.Config{Backend: "etcd"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestDialRunningDaemon(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "bk")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	sock := filepath.Join(dir, "d.sock")

	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	store, err := memkv.New()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = kv.Serve(ctx, l, store) }()

	c, err := Dial(ctx, sock, false)
	if err != nil {
		t.Fatal(err)
	}
	roundTrip(t, c)
}

func TestDialNoDaemon(t *testing.T) {
	t.Parallel()
	if _, err := Dial(context.Background(), filepath.Join(t.TempDir(), "none.sock"), false); err == nil {
		t.Fatal("Dial without daemon should fail")
	}
}
