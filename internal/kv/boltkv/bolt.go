// Package boltkv implements kv.Store on a bbolt database file.
package boltkv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/leonardcser/callcache/internal/kv"
)

// Store provides a persistent KV store with TTL, counter and list semantics.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	db     *bolt.DB
	values []byte
	lists  []byte
	now    func() time.Time
}

var _ kv.Store = (*Store)(nil)

type Options struct {
	// Bucket is the name of the Bolt bucket holding scalar values. Lists live
	// in a sibling bucket with a ":lists" suffix.
	Bucket string
	// Now overrides the clock used for expiry; tests only.
	Now func() time.Time
}

// Open initializes or opens a Store at the given path.
func Open(path string, opts Options) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	name := "cache"
	if opts.Bucket != "" {
		name = opts.Bucket
	}
	s := &Store{
		db:     db,
		values: []byte(name),
		lists:  []byte(name + ":lists"),
		now:    opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if err := db.Update(s.createBuckets); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createBuckets(tx *bolt.Tx) error {
	if _, err := tx.CreateBucketIfNotExists(s.values); err != nil {
		return err
	}
	_, err := tx.CreateBucketIfNotExists(s.lists)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Value layout: 8 bytes big endian expiresAt (unix millis, 0 = never) || raw value.
func encode(expiresAt int64, value []byte) []byte {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	copy(buf[8:], value)
	return buf
}

// decode returns the stored value, its expiry and whether it is still live.
func (s *Store) decode(raw []byte) (value []byte, expiresAt int64, live bool) {
	if len(raw) < 8 {
		return nil, 0, false
	}
	expiresAt = int64(binary.BigEndian.Uint64(raw[:8]))
	if expiresAt > 0 && s.now().UnixMilli() >= expiresAt {
		return nil, expiresAt, false
	}
	return raw[8:], expiresAt, true
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.values).Put([]byte(key), encode(0, value))
	})
}

// SetEx stores value with an absolute expiration computed as now+ttl.
// A non-positive ttl stores the value without expiry.
func (s *Store) SetEx(_ context.Context, key string, value []byte, ttl time.Duration) error {
	ttl = kv.RoundTTL(ttl)
	expiresAt := int64(0)
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.values).Put([]byte(key), encode(expiresAt, value))
	})
}

// Get returns the cached value if present and not expired. Expired entries are
// left in place and overwritten by the next write to the key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.values).Get([]byte(key))
		if raw == nil {
			return kv.ErrNotFound
		}
		v, _, live := s.decode(raw)
		if !live {
			return kv.ErrNotFound
		}
		out = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.values)
		var expiresAt int64
		if raw := b.Get([]byte(key)); raw != nil {
			v, exp, live := s.decode(raw)
			if live {
				cur, err := strconv.ParseInt(string(v), 10, 64)
				if err != nil {
					return fmt.Errorf("incr %q: %w", key, kv.ErrNotInteger)
				}
				n, expiresAt = cur, exp
			}
		}
		n++
		return b.Put([]byte(key), encode(expiresAt, []byte(strconv.FormatInt(n, 10))))
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Each list is a nested bucket whose sequence is the list length; items are
// keyed by their 1-based position.
func (s *Store) RPush(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(s.lists).CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), append([]byte{}, value...))
	})
}

func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	out := [][]byte{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.lists).Bucket([]byte(key))
		if b == nil {
			return nil
		}
		from, to, ok := kv.RangeBounds(int64(b.Sequence()), start, stop)
		if !ok {
			return nil
		}
		c := b.Cursor()
		last := itob(uint64(to + 1))
		for k, v := c.Seek(itob(uint64(from + 1))); k != nil; k, v = c.Next() {
			out = append(out, append([]byte{}, v...))
			if string(k) == string(last) {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FlushAll drops and recreates both buckets.
func (s *Store) FlushAll(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{s.values, s.lists} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}
		return s.createBuckets(tx)
	})
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
