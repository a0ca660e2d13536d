// Package memkv implements kv.Store in process memory on top of otter.
package memkv

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/leonardcser/callcache/internal/kv"
)

// entry wraps a stored value with its expiration time (zero = never).
type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store is an unbounded in-memory kv.Store. Reads go straight to otter;
// read-modify-write operations are serialized by mu.
type Store struct {
	values *otter.Cache[string, entry]
	lists  *otter.Cache[string, [][]byte]
	mu     sync.Mutex
	now    func() time.Time
}

var _ kv.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty in-memory store.
func New(opts ...Option) (*Store, error) {
	values, err := otter.New[string, entry](&otter.Options[string, entry]{})
	if err != nil {
		return nil, fmt.Errorf("create value cache: %w", err)
	}
	lists, err := otter.New[string, [][]byte](&otter.Options[string, [][]byte]{})
	if err != nil {
		return nil, fmt.Errorf("create list cache: %w", err)
	}
	s := &Store{values: values, lists: lists, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Store) live(e entry) bool {
	return e.expiresAt.IsZero() || s.now().Before(e.expiresAt)
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := s.values.GetIfPresent(key)
	if !ok {
		return nil, kv.ErrNotFound
	}
	if !s.live(e) {
		return s.evict(key)
	}
	return append([]byte{}, e.data...), nil
}

// evict drops key if it is still expired under mu. A write that landed after
// Get's unlocked read is returned instead of being lost.
func (s *Store) evict(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.values.GetIfPresent(key)
	if !ok {
		return nil, kv.ErrNotFound
	}
	if s.live(e) {
		return append([]byte{}, e.data...), nil
	}
	s.values.Invalidate(key)
	return nil, kv.ErrNotFound
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.Set(key, entry{data: append([]byte{}, value...)})
	return nil
}

// SetEx stores value with per-entry TTL. A non-positive ttl means no expiry.
func (s *Store) SetEx(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{data: append([]byte{}, value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.Set(key, e)
	return nil
}

func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		n   int64
		exp time.Time
	)
	if e, ok := s.values.GetIfPresent(key); ok && s.live(e) {
		cur, err := strconv.ParseInt(string(e.data), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %q: %w", key, kv.ErrNotInteger)
		}
		n, exp = cur, e.expiresAt
	}
	n++
	s.values.Set(key, entry{data: []byte(strconv.FormatInt(n, 10)), expiresAt: exp})
	return n, nil
}

// RPush copies the list on write so readers never observe a partial append.
func (s *Store) RPush(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, _ := s.lists.GetIfPresent(key)
	next := make([][]byte, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, append([]byte{}, value...))
	s.lists.Set(key, next)
	return nil
}

func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	items, _ := s.lists.GetIfPresent(key)
	from, to, ok := kv.RangeBounds(int64(len(items)), start, stop)
	if !ok {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, to-from+1)
	for _, it := range items[from : to+1] {
		out = append(out, append([]byte{}, it...))
	}
	return out, nil
}

func (s *Store) FlushAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.InvalidateAll()
	s.lists.InvalidateAll()
	return nil
}

func (s *Store) Close() error { return nil }
