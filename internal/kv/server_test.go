package kv

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

// flakyListener fails Accept a fixed number of times, then reports closed.
type flakyListener struct {
	mu       sync.Mutex
	failures int
	calls    []time.Time
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, time.Now())
	if len(l.calls) <= l.failures {
		return nil, errors.New("accept: too many open files")
	}
	return nil, net.ErrClosed
}

func (l *flakyListener) Close() error   { return nil }
func (l *flakyListener) Addr() net.Addr { return &net.UnixAddr{Name: "flaky", Net: "unix"} }

func TestServeBacksOffOnAcceptErrors(t *testing.T) {
	t.Parallel()
	l := &flakyListener{failures: 3}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	if err := Serve(ctx, l, nil); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if len(l.calls) != 4 {
		t.Fatalf("Accept calls = %d, want 4", len(l.calls))
	}
	// 5ms + 10ms + 20ms of backoff between the four calls.
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("Serve retried in %s, want at least 35ms of backoff", elapsed)
	}
}

func TestServeStopsBackoffOnCancel(t *testing.T) {
	t.Parallel()
	l := &flakyListener{failures: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, l, nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	l.mu.Lock()
	calls := len(l.calls)
	l.mu.Unlock()
	if calls > 10 {
		t.Errorf("Accept called %d times in 50ms, want backoff to bound retries", calls)
	}
}

func TestAcceptBackoff(t *testing.T) {
	t.Parallel()
	var d time.Duration
	want := []time.Duration{5, 10, 20, 40, 80, 160, 320, 640, 1000, 1000}
	for i, w := range want {
		d = acceptBackoff(d)
		if d != w*time.Millisecond {
			t.Fatalf("step %d: backoff = %s, want %s", i, d, w*time.Millisecond)
		}
	}
}
