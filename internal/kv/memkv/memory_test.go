package memkv

import (
	"context"
	"testing"
	"time"

	"github.com/leonardcser/callcache/internal/kv/kvtest"
)

func TestStoreConformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kvtest.Harness {
		clock := kvtest.NewClock()
		s, err := New(WithClock(clock.Now))
		if err != nil {
			t.Fatal(err)
		}
		return kvtest.Harness{Store: s, Advance: clock.Advance}
	})
}

// A write landing between Get's read of an expired entry and its eviction
// must survive.
func TestGetExpiredKeepsConcurrentWrite(t *testing.T) {
	t.Parallel()
	clock := kvtest.NewClock()
	ctx := context.Background()

	var (
		s     *Store
		armed bool
	)
	s, err := New(WithClock(func() time.Time {
		now := clock.Now()
		if armed {
			armed = false
			if err := s.Set(ctx, "k", []byte("new")); err != nil {
				t.Errorf("Set: %v", err)
			}
		}
		return now
	}))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SetEx(ctx, "k", []byte("old"), time.Second); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Second)
	armed = true

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get racing a Set: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("Get = %q, want %q", got, "new")
	}
	got, err = s.Get(ctx, "k")
	if err != nil || string(got) != "new" {
		t.Fatalf("Get after race = %q, %v; want %q", got, err, "new")
	}
}

func TestLRangeReturnsCopies(t *testing.T) {
	t.Parallel()
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	_ = s.RPush(ctx, "l", []byte("abc"))
	items, _ := s.LRange(ctx, "l", 0, -1)
	items[0][0] = 'z'

	again, _ := s.LRange(ctx, "l", 0, -1)
	if string(again[0]) != "abc" {
		t.Errorf("stored item mutated through LRange result: %q", again[0])
	}
}
