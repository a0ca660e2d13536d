// Package callcache stores scalar values under generated keys and records
// every Store call for later replay.
package callcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/leonardcser/callcache/internal/instrument"
	"github.com/leonardcser/callcache/internal/keygen"
	"github.com/leonardcser/callcache/internal/kv"
	"github.com/leonardcser/callcache/internal/telemetry"
)

// StoreOp is the operation name under which Store calls are counted and logged.
const StoreOp = "Cache.Store"

var (
	ErrUnsupportedValue = errors.New("callcache: unsupported value type")
	ErrConversion       = errors.New("callcache: conversion failed")
)

// Cache is the instrumented store. Only writes are instrumented; Store runs as
// Measure(RecordHistory(CountCalls(write))).
type Cache struct {
	noFlush bool
	kv      kv.Store
	keys    keygen.Generator
	metrics *telemetry.Metrics
	store   instrument.Op[any, string]
}

type Option func(*Cache)

// WithKeyGenerator replaces the default UUID key generator.
func WithKeyGenerator(g keygen.Generator) Option {
	return func(c *Cache) { c.keys = g }
}

// WithMetrics reports Store calls to m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithoutFlush attaches to the existing contents of the store instead of
// starting empty. Inspection tools use it to read earlier calls.
func WithoutFlush() Option {
	return func(c *Cache) { c.noFlush = true }
}

// New flushes store and returns a Cache writing to it. The caller keeps
// ownership of store.
func New(ctx context.Context, store kv.Store, opts ...Option) (*Cache, error) {
	c := &Cache{kv: store, keys: keygen.UUID{}}
	for _, o := range opts {
		o(c)
	}
	if !c.noFlush {
		if err := store.FlushAll(ctx); err != nil {
			return nil, fmt.Errorf("flush store: %w", err)
		}
	}
	c.store = instrument.Chain(c.write,
		instrument.Measure[any, string](c.metrics, StoreOp),
		instrument.RecordHistory[any, string](store, StoreOp),
		instrument.CountCalls[any, string](store, StoreOp),
	)
	return c, nil
}

// Store writes value under a freshly generated key and returns the key.
// value must be a string, []byte, integer or floating-point number.
func (c *Cache) Store(ctx context.Context, value any) (string, error) {
	return c.store(ctx, value)
}

func (c *Cache) write(ctx context.Context, value any) (string, error) {
	raw, err := Encode(value)
	if err != nil {
		return "", err
	}
	key := c.keys.NewKey()
	if err := c.kv.Set(ctx, key, raw); err != nil {
		return "", fmt.Errorf("set %s: %w", key, err)
	}
	return key, nil
}

// Retrieve returns the raw stored bytes. found is false when key was never
// stored; that is not an error.
func (c *Cache) Retrieve(ctx context.Context, key string) (value []byte, found bool, err error) {
	v, err := c.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// RetrieveAs reads key and converts it with conv. A conv failure is returned
// wrapped in ErrConversion; absent keys never reach conv.
func RetrieveAs[T any](ctx context.Context, c *Cache, key string, conv func([]byte) (T, error)) (T, bool, error) {
	var zero T
	raw, found, err := c.Retrieve(ctx, key)
	if err != nil || !found {
		return zero, found, err
	}
	v, err := conv(raw)
	if err != nil {
		return zero, true, fmt.Errorf("%w: key %s: %w", ErrConversion, key, err)
	}
	return v, true, nil
}

func (c *Cache) RetrieveText(ctx context.Context, key string) (string, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeText)
}

func (c *Cache) RetrieveInt(ctx context.Context, key string) (int64, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeInt)
}

func (c *Cache) RetrieveFloat(ctx context.Context, key string) (float64, bool, error) {
	return RetrieveAs(ctx, c, key, DecodeFloat)
}

// Replay reports the recorded Store calls.
func (c *Cache) Replay(ctx context.Context) (*instrument.Report, error) {
	return instrument.Replay(ctx, c.kv, StoreOp)
}
