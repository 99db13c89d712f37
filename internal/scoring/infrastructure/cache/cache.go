// Package cache memoizes expensive scoring aggregates with TTL expiry and
// explicit invalidation. Values are stored JSON-encoded so every read hands
// the caller its own copy.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/observability"
	"golang.org/x/sync/singleflight"
)

// Default lifetimes.
const (
	DefaultScoreTTL   = 300 * time.Second
	DefaultListingTTL = 120 * time.Second
)

// Metric names recorded by the cache.
const (
	MetricHit        = "cache.hit"
	MetricMiss       = "cache.miss"
	MetricInvalidate = "cache.invalidate"
	MetricStoreError = "cache.store_error"
)

// Options configures a Cache. Zero values select the defaults.
type Options struct {
	Store   Store
	Clock   Clock
	Metrics observability.Metrics
	Logger  *slog.Logger
}

// Cache is a keyed aggregate cache. It is safe for concurrent use.
type Cache struct {
	store   Store
	clock   Clock
	metrics observability.Metrics
	logger  *slog.Logger
	group   singleflight.Group

	mu         sync.Mutex
	generation uint64
	// tombstones maps a prefix whose delete failed to the time of the failed
	// invalidation; entries stored at or before that time are stale.
	tombstones map[string]time.Time
}

// New creates a cache.
func New(opts Options) *Cache {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		store:      opts.Store,
		clock:      opts.Clock,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		tombstones: make(map[string]time.Time),
	}
}

// Generation returns a counter that increases on every invalidation.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Invalidate drops every entry whose key starts with keyOrPrefix. An exact
// key is its own prefix. Computations already in flight are not stored.
func (c *Cache) Invalidate(ctx context.Context, keyOrPrefix string) {
	now := c.clock.Now()

	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	c.metrics.Counter(MetricInvalidate, 1, observability.T("namespace", namespaceOf(keyOrPrefix)))

	if err := c.store.DeletePrefix(ctx, keyOrPrefix); err != nil {
		c.metrics.Counter(MetricStoreError, 1, observability.T("op", "delete"))
		c.logger.Warn("cache invalidation failed, recording tombstone",
			"prefix", keyOrPrefix,
			"error", err,
		)
		c.mu.Lock()
		c.tombstones[keyOrPrefix] = now
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	for prefix := range c.tombstones {
		if strings.HasPrefix(prefix, keyOrPrefix) {
			delete(c.tombstones, prefix)
		}
	}
	c.mu.Unlock()

	c.logger.Debug("cache invalidated", "prefix", keyOrPrefix)
}

// lookup returns the encoded value for key when a fresh entry exists.
func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.metrics.Counter(MetricStoreError, 1, observability.T("op", "get"))
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(entry.ExpiresAt) {
		return nil, false
	}
	if c.buried(key, entry.StoredAt) {
		return nil, false
	}
	return entry.Value, true
}

func (c *Cache) buried(key string, storedAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for prefix, at := range c.tombstones {
		if strings.HasPrefix(key, prefix) && !storedAt.After(at) {
			return true
		}
	}
	return false
}

// save stores data unless an invalidation happened since gen was read. An
// invalidation can still land between the check and the write, so the
// generation is read again afterwards and a raced entry is removed.
func (c *Cache) save(ctx context.Context, key string, data []byte, ttl time.Duration, gen uint64) {
	if c.Generation() != gen {
		c.logger.Debug("discarding stale computation", "key", key)
		return
	}
	now := c.clock.Now()
	entry := Entry{Value: data, StoredAt: now, ExpiresAt: now.Add(ttl)}
	if err := c.store.Set(ctx, key, entry); err != nil {
		c.metrics.Counter(MetricStoreError, 1, observability.T("op", "set"))
		c.logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	if c.Generation() == gen {
		return
	}

	c.logger.Debug("invalidation raced a cache write, removing entry", "key", key)
	if err := c.store.DeletePrefix(ctx, key); err != nil {
		c.metrics.Counter(MetricStoreError, 1, observability.T("op", "delete"))
		c.logger.Warn("failed to remove raced cache entry, recording tombstone", "key", key, "error", err)
		c.mu.Lock()
		if at, ok := c.tombstones[key]; !ok || at.Before(now) {
			c.tombstones[key] = now
		}
		c.mu.Unlock()
	}
}

type flight struct {
	data  []byte
	value any
}

// GetOrCompute returns the cached value for key, or runs compute, stores its
// result for ttl and returns it. Concurrent misses for the same key share one
// computation. Store failures fall back to computing; only compute errors are
// returned. A nil cache always computes.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return compute(ctx)
	}
	ns := observability.T("namespace", namespaceOf(key))

	if data, ok := c.lookup(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.metrics.Counter(MetricHit, 1, ns)
			return v, nil
		}
		c.logger.Warn("cache entry undecodable, recomputing", "key", key)
	}
	c.metrics.Counter(MetricMiss, 1, ns)

	gen := c.Generation()
	flightKey := strconv.FormatUint(gen, 10) + "|" + key
	res, err, _ := c.group.Do(flightKey, func() (any, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			c.logger.Warn("cache value not encodable, skipping store", "key", key, "error", err)
			return flight{value: v}, nil
		}
		c.save(ctx, key, data, ttl, gen)
		return flight{data: data, value: v}, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	f := res.(flight)
	if f.data == nil {
		return f.value.(T), nil
	}
	var v T
	if err := json.Unmarshal(f.data, &v); err != nil {
		return f.value.(T), nil
	}
	return v, nil
}

func namespaceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
