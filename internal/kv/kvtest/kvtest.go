// Package kvtest holds a conformance suite run against every kv.Store backend.
package kvtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leonardcser/callcache/internal/kv"
)

// Harness is a freshly opened, empty store plus a way to move its clock.
type Harness struct {
	Store   kv.Store
	Advance func(d time.Duration)
}

// Clock is a manually advanced time source for backends that accept one.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Run exercises the kv.Store contract. open is called once per subtest.
func Run(t *testing.T, open func(t *testing.T) Harness) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		h := open(t)
		if _, err := h.Store.Get(ctx, "missing"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		h := open(t)
		if err := h.Store.Set(ctx, "k", []byte("v1")); err != nil {
			t.Fatal(err)
		}
		got, err := h.Store.Get(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "v1" {
			t.Errorf("Get = %q, want %q", got, "v1")
		}
		if err := h.Store.Set(ctx, "k", []byte("v2")); err != nil {
			t.Fatal(err)
		}
		got, _ = h.Store.Get(ctx, "k")
		if string(got) != "v2" {
			t.Errorf("Get after overwrite = %q, want %q", got, "v2")
		}
	})

	t.Run("SetExExpires", func(t *testing.T) {
		h := open(t)
		if err := h.Store.SetEx(ctx, "page", []byte("<html>"), 10*time.Second); err != nil {
			t.Fatal(err)
		}
		h.Advance(9 * time.Second)
		if _, err := h.Store.Get(ctx, "page"); err != nil {
			t.Fatalf("Get before expiry: %v", err)
		}
		h.Advance(2 * time.Second)
		if _, err := h.Store.Get(ctx, "page"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("Get after expiry err = %v, want ErrNotFound", err)
		}
	})

	t.Run("SetClearsExpiry", func(t *testing.T) {
		h := open(t)
		if err := h.Store.SetEx(ctx, "k", []byte("a"), time.Second); err != nil {
			t.Fatal(err)
		}
		if err := h.Store.Set(ctx, "k", []byte("b")); err != nil {
			t.Fatal(err)
		}
		h.Advance(5 * time.Second)
		got, err := h.Store.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "b" {
			t.Errorf("Get = %q, want %q", got, "b")
		}
	})

	t.Run("SetExSubMillisecond", func(t *testing.T) {
		h := open(t)
		if err := h.Store.SetEx(ctx, "k", []byte("v"), 500*time.Microsecond); err != nil {
			t.Fatal(err)
		}
		if _, err := h.Store.Get(ctx, "k"); err != nil {
			t.Fatalf("Get before expiry: %v", err)
		}
		h.Advance(time.Hour)
		if got, err := h.Store.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("Get after expiry = %q, %v; want ErrNotFound", got, err)
		}
	})

	t.Run("SetExNonPositiveNeverExpires", func(t *testing.T) {
		h := open(t)
		for _, ttl := range []time.Duration{0, -time.Second} {
			key := fmt.Sprintf("k%d", ttl)
			if err := h.Store.SetEx(ctx, key, []byte("v"), ttl); err != nil {
				t.Fatalf("SetEx(ttl=%s): %v", ttl, err)
			}
		}
		h.Advance(24 * time.Hour)
		for _, ttl := range []time.Duration{0, -time.Second} {
			if _, err := h.Store.Get(ctx, fmt.Sprintf("k%d", ttl)); err != nil {
				t.Errorf("Get(ttl=%s) after a day: %v", ttl, err)
			}
		}
	})

	t.Run("Incr", func(t *testing.T) {
		h := open(t)
		for want := int64(1); want <= 3; want++ {
			n, err := h.Store.Incr(ctx, "count")
			if err != nil {
				t.Fatal(err)
			}
			if n != want {
				t.Errorf("Incr = %d, want %d", n, want)
			}
		}
		got, err := h.Store.Get(ctx, "count")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "3" {
			t.Errorf("Get(counter) = %q, want %q", got, "3")
		}
	})

	t.Run("IncrNotInteger", func(t *testing.T) {
		h := open(t)
		if err := h.Store.Set(ctx, "text", []byte("hello")); err != nil {
			t.Fatal(err)
		}
		if _, err := h.Store.Incr(ctx, "text"); !errors.Is(err, kv.ErrNotInteger) {
			t.Fatalf("Incr(text) err = %v, want ErrNotInteger", err)
		}
	})

	t.Run("IncrConcurrent", func(t *testing.T) {
		h := open(t)
		const workers, per = 8, 25
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range per {
					if _, err := h.Store.Incr(ctx, "hits"); err != nil {
						t.Error(err)
						return
					}
				}
			}()
		}
		wg.Wait()
		got, err := h.Store.Get(ctx, "hits")
		if err != nil {
			t.Fatal(err)
		}
		if want := fmt.Sprint(workers * per); string(got) != want {
			t.Errorf("hits = %s, want %s", got, want)
		}
	})

	t.Run("ListRange", func(t *testing.T) {
		h := open(t)
		for _, v := range []string{"a", "b", "c", "d"} {
			if err := h.Store.RPush(ctx, "log", []byte(v)); err != nil {
				t.Fatal(err)
			}
		}
		tests := []struct {
			start, stop int64
			want        string
		}{
			{0, -1, "abcd"},
			{1, 2, "bc"},
			{-2, -1, "cd"},
			{2, 100, "cd"},
			{3, 1, ""},
		}
		for _, tt := range tests {
			items, err := h.Store.LRange(ctx, "log", tt.start, tt.stop)
			if err != nil {
				t.Fatal(err)
			}
			var got string
			for _, it := range items {
				got += string(it)
			}
			if got != tt.want {
				t.Errorf("LRange(%d,%d) = %q, want %q", tt.start, tt.stop, got, tt.want)
			}
		}
	})

	t.Run("ListMissing", func(t *testing.T) {
		h := open(t)
		items, err := h.Store.LRange(ctx, "nothing", 0, -1)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 0 {
			t.Errorf("LRange(missing) = %d items, want 0", len(items))
		}
	})

	t.Run("FlushAll", func(t *testing.T) {
		h := open(t)
		_ = h.Store.Set(ctx, "a", []byte("1"))
		_, _ = h.Store.Incr(ctx, "n")
		_ = h.Store.RPush(ctx, "l", []byte("x"))
		if err := h.Store.FlushAll(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := h.Store.Get(ctx, "a"); !errors.Is(err, kv.ErrNotFound) {
			t.Errorf("Get(a) after flush err = %v, want ErrNotFound", err)
		}
		if _, err := h.Store.Get(ctx, "n"); !errors.Is(err, kv.ErrNotFound) {
			t.Errorf("Get(n) after flush err = %v, want ErrNotFound", err)
		}
		items, err := h.Store.LRange(ctx, "l", 0, -1)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 0 {
			t.Errorf("LRange after flush = %d items, want 0", len(items))
		}
		if err := h.Store.RPush(ctx, "l", []byte("y")); err != nil {
			t.Fatalf("RPush after flush: %v", err)
		}
	})
}
