package rediskv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/leonardcser/callcache/internal/kv/kvtest"
)

func TestStoreConformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kvtest.Harness {
		mr := miniredis.RunT(t)
		s := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		t.Cleanup(func() { _ = s.Close() })
		return kvtest.Harness{Store: s, Advance: mr.FastForward}
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := Open(ctx, mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Errorf("server value = %q, want %q", got, "v")
	}
}

func TestOpenUnreachable(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Open(context.Background(), addr); err == nil {
		t.Fatal("Open should fail when the server is down")
	}
}
