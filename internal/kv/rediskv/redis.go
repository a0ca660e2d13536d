// Package rediskv implements kv.Store on a Redis server.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leonardcser/callcache/internal/kv"
)

// Store adapts a go-redis client to kv.Store.
type Store struct {
	rdb redis.UniversalClient
}

var _ kv.Store = (*Store)(nil)

// New wraps an existing client. The Store owns it and closes it on Close.
func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// Open connects to the Redis server at addr and verifies the connection.
func Open(ctx context.Context, addr string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(rdb), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

// SetEx stores value with the given TTL; a non-positive ttl means no expiry.
func (s *Store) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, kv.RoundTTL(ttl)).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		if strings.Contains(err.Error(), "not an integer") {
			return 0, fmt.Errorf("incr %q: %w", key, kv.ErrNotInteger)
		}
		return 0, err
	}
	return n, nil
}

func (s *Store) RPush(ctx context.Context, key string, value []byte) error {
	return s.rdb.RPush(ctx, key, value).Err()
}

func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	items, err := s.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = []byte(it)
	}
	return out, nil
}

// FlushAll clears the selected database only, leaving other databases on the
// same server untouched.
func (s *Store) FlushAll(ctx context.Context) error {
	return s.rdb.FlushDB(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
