// Package querycache holds server data read through the SDK. Entries are
// re-fetched once marked stale; mutations may patch cached collections
// optimistically and roll the patch back when the server rejects them.
package querycache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

const (
	// DefaultSize bounds the number of cached entries.
	DefaultSize = 256
	// DefaultTTL evicts entries that were not refreshed.
	DefaultTTL = 5 * time.Minute
)

// entry is one cached value. value is what readers see; base is the last
// value the server returned. They differ only while patched is set.
type entry struct {
	value     any
	base      any
	stale     bool
	patched   bool
	fetchedAt time.Time
}

// Option configures a Cache.
type Option func(*config)

type config struct {
	size   int
	ttl    time.Duration
	logger zerolog.Logger
}

// WithSize overrides DefaultSize.
func WithSize(n int) Option {
	return func(c *config) {
		c.size = n
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		c.ttl = d
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Cache is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	lru    *expirable.LRU[Key, *entry]
	logger zerolog.Logger

	// epoch advances on every invalidation and purge. A fetch that started
	// before a key's last invalidation stores its result stale; one that
	// started before the last purge stores nothing.
	epoch         uint64
	keyEpochs     map[Key]uint64
	resourceEpoch map[string]uint64
	purgedAt      uint64
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	cfg := config{size: DefaultSize, ttl: DefaultTTL, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.size <= 0 {
		cfg.size = DefaultSize
	}
	return &Cache{
		lru:           expirable.NewLRU[Key, *entry](cfg.size, nil, cfg.ttl),
		logger:        cfg.logger,
		keyEpochs:     map[Key]uint64{},
		resourceEpoch: map[string]uint64{},
	}
}

// Fetch returns the cached value for key when it is fresh and unpatched,
// and otherwise calls fn. A successful fetch replaces the entry, superseding
// any optimistic patch. A failed fetch discards any patch so readers see
// the last server value again, and returns fn's error unchanged.
//
// A result whose request started before key was invalidated is returned to
// the caller but cached stale, so the next read goes back to the server.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.lru.Get(key); ok && !e.stale && !e.patched {
		if v, ok := e.value.(T); ok {
			c.mu.Unlock()
			return v, nil
		}
	}
	started := c.epoch
	c.mu.Unlock()

	v, err := fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if e, ok := c.lru.Peek(key); ok && e.patched {
			e.value = e.base
			e.patched = false
			c.logger.Debug().Stringer("key", key).Err(err).Msg("discarding optimistic patch after failed fetch")
		}
		var zero T
		return zero, err
	}
	if c.purgedAt > started {
		c.logger.Debug().Stringer("key", key).Msg("dropping fetch that started before purge")
		return v, nil
	}
	stale := c.invalidatedSinceLocked(key, started)
	if stale {
		c.logger.Debug().Stringer("key", key).Msg("caching fetch that raced an invalidation as stale")
	}
	c.lru.Add(key, &entry{value: v, base: v, stale: stale, fetchedAt: time.Now()})
	return v, nil
}

func (c *Cache) invalidatedSinceLocked(key Key, started uint64) bool {
	return c.keyEpochs[key] > started || c.resourceEpoch[key.Resource] > started
}

// Peek returns the visible value for key without fetching.
func Peek[T any](c *Cache, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	e, ok := c.lru.Peek(key)
	if !ok {
		return zero, false
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set stores a server value for key as if it had just been fetched.
func Set[T any](c *Cache, key Key, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, &entry{value: v, base: v, fetchedAt: time.Now()})
}

// IsStale reports whether key must be re-fetched on the next read. Missing
// entries are stale.
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Peek(key)
	return !ok || e.stale || e.patched
}

// Invalidate marks keys stale.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(keys, nil)
}

// InvalidateResource marks every entry of the resources stale.
func (c *Cache) InvalidateResource(resources ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(nil, resources)
}

func (c *Cache) invalidateLocked(keys []Key, resources []string) {
	if len(keys) == 0 && len(resources) == 0 {
		return
	}
	c.epoch++
	for _, key := range keys {
		c.keyEpochs[key] = c.epoch
		if e, ok := c.lru.Peek(key); ok {
			e.stale = true
		}
	}
	if len(resources) == 0 {
		return
	}
	for _, resource := range resources {
		c.resourceEpoch[resource] = c.epoch
	}
	for _, key := range c.lru.Keys() {
		for _, resource := range resources {
			if key.Resource != resource {
				continue
			}
			if e, ok := c.lru.Peek(key); ok {
				e.stale = true
			}
		}
	}
}

// Purge drops every entry. Fetches in flight when Purge is called do not
// repopulate the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.epoch++
	c.purgedAt = c.epoch
	clear(c.keyEpochs)
	clear(c.resourceEpoch)
}
