package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
	defaultResultTTL       = 5 * time.Minute
)

// cacheEntry wraps a cached value with expiration time
type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryResultCache implements ResultCache in process memory.
// Entries are not shared between instances.
type InMemoryResultCache struct {
	entries sync.Map // map[string]*cacheEntry
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// InMemoryResultCacheOption is a functional option for configuring the cache
type InMemoryResultCacheOption func(*InMemoryResultCache)

// WithInMemoryTTL sets the default entry lifetime
func WithInMemoryTTL(ttl time.Duration) InMemoryResultCacheOption {
	return func(c *InMemoryResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryResultCacheOption {
	return func(c *InMemoryResultCache) {
		c.logger = logger
	}
}

// NewInMemoryResultCache creates a new in-memory result cache and starts
// its cleanup loop. Close stops the loop.
func NewInMemoryResultCache(opts ...InMemoryResultCacheOption) *InMemoryResultCache {
	cache := &InMemoryResultCache{
		ttl:    defaultResultTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves an entry
func (c *InMemoryResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Result cache hit", zap.String("key", key))
			return entry.data, true, nil
		}
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("Result cache miss", zap.String("key", key))
	return nil, false, nil
}

// Set stores an entry
func (c *InMemoryResultCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	stored := make([]byte, len(data))
	copy(stored, data)

	c.entries.Store(key, &cacheEntry{data: stored, expiresAt: time.Now().Add(ttl)})
	c.logger.Debug("Cached result", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// Invalidate removes the entries under prefix
func (c *InMemoryResultCache) Invalidate(ctx context.Context, prefix string) error {
	var deleted int
	c.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Delete(key)
			deleted++
		}
		return true
	})
	c.logger.Debug("Invalidated cached results", zap.String("prefix", prefix), zap.Int("deleted_count", deleted))
	return nil
}

// Stats returns the hit and miss counts
func (c *InMemoryResultCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Close stops the cleanup loop
func (c *InMemoryResultCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// cleanupExpired periodically removes expired entries
func (c *InMemoryResultCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*cacheEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}

var _ ResultCache = (*InMemoryResultCache)(nil)
