// Package kv defines the key-value store boundary shared by the call cache,
// the page cache and the cache daemon.
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("kv: not found")
	ErrNotInteger = errors.New("kv: value is not an integer")
)

// Store is the minimal key-value contract with TTL, counter and list semantics.
// Each single operation is atomic. Implementations must be safe for concurrent
// use by multiple goroutines.
type Store interface {
	// Set stores value under key with no expiration, clearing any previous TTL.
	Set(ctx context.Context, key string, value []byte) error
	// SetEx stores value under key; the key reads as absent once ttl elapses.
	// A non-positive ttl stores the value without expiry, like Set. Positive
	// ttls are kept to at least millisecond precision (see RoundTTL).
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Incr adds one to the decimal counter at key, starting from zero, and
	// returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// RPush appends value to the tail of the list at key.
	RPush(ctx context.Context, key string, value []byte) error
	// LRange returns list items start..stop inclusive. Negative indices count
	// from the tail, so LRange(ctx, k, 0, -1) returns the whole list.
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	// FlushAll removes every key.
	FlushAll(ctx context.Context) error
	Close() error
}

// RoundTTL rounds a positive ttl up to a whole number of milliseconds so it
// survives millisecond-resolution backends and the wire protocol. Non-positive
// ttls return 0, meaning no expiry.
func RoundTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if rem := ttl % time.Millisecond; rem != 0 {
		ttl += time.Millisecond - rem
	}
	return ttl
}

// RangeBounds resolves Redis-style list indices against a list of length n.
// ok is false when the resolved range is empty.
func RangeBounds(n, start, stop int64) (from, to int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}
