// Package pagecache caches externally fetched content for a fixed TTL and
// counts every request for a source, hit or miss.
//
// Concurrent misses for the same source are not deduplicated: each caller
// fetches upstream and the last write wins.
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leonardcser/callcache/internal/instrument"
	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/telemetry"
)

const DefaultTTL = 10 * time.Second

// FetchFunc retrieves content for a source, typically over HTTP.
type FetchFunc func(ctx context.Context, source string) (string, error)

// Cache fronts a FetchFunc. Fetch runs as countAccess(checkCache(upstream)).
type Cache struct {
	store         kv.Store
	ttl           time.Duration
	contentPrefix string
	countPrefix   string
	label         string
	metrics       *telemetry.Metrics
	fetch         instrument.Op[string, string]
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithPrefixes sets the key prefixes for cached content and access counters.
// Defaults are "cached:" and "count:".
func WithPrefixes(content, count string) Option {
	return func(c *Cache) {
		c.contentPrefix = content
		c.countPrefix = count
	}
}

// WithMetrics reports hits, misses and upstream failures to m under label.
func WithMetrics(m *telemetry.Metrics, label string) Option {
	return func(c *Cache) {
		c.metrics = m
		c.label = label
	}
}

// New wraps upstream with the access counter and the TTL content cache.
func New(store kv.Store, upstream FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		store:         store,
		ttl:           DefaultTTL,
		contentPrefix: "cached:",
		countPrefix:   "count:",
		label:         "page",
	}
	for _, o := range opts {
		o(c)
	}
	c.fetch = instrument.Chain(instrument.Op[string, string](upstream), c.countAccess, c.checkCache)
	return c
}

func (c *Cache) ContentKey(source string) string { return c.contentPrefix + source }
func (c *Cache) CountKey(source string) string   { return c.countPrefix + source }

// Fetch returns the cached content for source, fetching and caching it on a
// miss. Upstream errors are returned as-is and nothing is cached.
func (c *Cache) Fetch(ctx context.Context, source string) (string, error) {
	return c.fetch(ctx, source)
}

// AccessCount reports how many times Fetch was called for source.
func (c *Cache) AccessCount(ctx context.Context, source string) (int64, error) {
	n, found, err := readCount(ctx, c.store, c.CountKey(source))
	if err != nil || !found {
		return 0, err
	}
	return n, nil
}

func (c *Cache) countAccess(next instrument.Op[string, string]) instrument.Op[string, string] {
	return func(ctx context.Context, source string) (string, error) {
		if _, err := c.store.Incr(ctx, c.CountKey(source)); err != nil {
			return "", fmt.Errorf("count %s: %w", source, err)
		}
		return next(ctx, source)
	}
}

// checkCache serves live entries from the store. Empty content is returned
// but never cached.
func (c *Cache) checkCache(next instrument.Op[string, string]) instrument.Op[string, string] {
	return func(ctx context.Context, source string) (string, error) {
		key := c.ContentKey(source)
		v, err := c.store.Get(ctx, key)
		switch {
		case err == nil:
			if len(v) > 0 {
				c.inc(hits)
				return string(v), nil
			}
		case !errors.Is(err, kv.ErrNotFound):
			return "", fmt.Errorf("read %s: %w", key, err)
		}
		c.inc(misses)

		content, err := next(ctx, source)
		if err != nil {
			c.inc(upstreamErrors)
			return "", err
		}
		if content == "" {
			return content, nil
		}
		if err := c.store.SetEx(ctx, key, []byte(content), c.ttl); err != nil {
			return "", fmt.Errorf("cache %s: %w", key, err)
		}
		return content, nil
	}
}

func hits(m *telemetry.Metrics) *prometheus.CounterVec           { return m.CacheHits }
func misses(m *telemetry.Metrics) *prometheus.CounterVec         { return m.CacheMisses }
func upstreamErrors(m *telemetry.Metrics) *prometheus.CounterVec { return m.UpstreamErrors }

func (c *Cache) inc(vec func(*telemetry.Metrics) *prometheus.CounterVec) {
	if c.metrics == nil {
		return
	}
	vec(c.metrics).WithLabelValues(c.label).Inc()
}

func readCount(ctx context.Context, store kv.Store, key string) (int64, bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("parse count %s: %w", key, err)
	}
	return n, true, nil
}
