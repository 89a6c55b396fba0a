package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Constants for Redis cache configuration
const (
	defaultScanBatchSize = 100
	defaultKeyPrefix     = "shop:"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisResultCache implements ResultCache using Redis
type RedisResultCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	prefix     string
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisResultCacheOption is a functional option for configuring the cache
type RedisResultCacheOption func(*RedisResultCache)

// WithKeyPrefix namespaces every key of the cache
func WithKeyPrefix(prefix string) RedisResultCacheOption {
	return func(c *RedisResultCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithRedisTTL sets the default entry lifetime
func WithRedisTTL(ttl time.Duration) RedisResultCacheOption {
	return func(c *RedisResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisResultCacheOption {
	return func(c *RedisResultCache) {
		c.logger = logger
	}
}

// NewRedisResultCache connects to Redis and creates a cache owning the client.
func NewRedisResultCache(cfg RedisConfig, opts ...RedisResultCacheOption) (*RedisResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := NewRedisResultCacheWithClient(client, opts...)
	cache.ownsClient = true
	return cache, nil
}

// NewRedisResultCacheWithClient creates a cache with an existing Redis client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisResultCacheWithClient(client *redis.Client, opts ...RedisResultCacheOption) *RedisResultCache {
	cache := &RedisResultCache{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    defaultResultTTL,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get retrieves an entry
func (c *RedisResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Result cache miss", zap.String("key", key))
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error("Failed to get result from cache",
			zap.String("key", key),
			zap.Error(err))
		return nil, false, fmt.Errorf("failed to get result from cache: %w", err)
	}

	c.logger.Debug("Result cache hit", zap.String("key", key))
	return data, true, nil
}

// Set stores an entry
func (c *RedisResultCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		c.logger.Error("Failed to set result in cache",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to set result in cache: %w", err)
	}

	c.logger.Debug("Cached result",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate removes the entries under prefix
func (c *RedisResultCache) Invalidate(ctx context.Context, prefix string) error {
	// SCAN instead of KEYS so large keyspaces don't block the server
	var cursor uint64
	var deletedCount int64
	match := c.prefix + prefix + "*"

	for {
		var keys []string
		var err error
		keys, cursor, err = c.client.Scan(ctx, cursor, match, defaultScanBatchSize).Result()
		if err != nil {
			c.logger.Error("Failed to scan result keys", zap.Error(err))
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.logger.Error("Failed to delete result keys", zap.Error(err))
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}

		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Invalidated cached results",
		zap.String("prefix", prefix),
		zap.Int64("deleted_count", deletedCount))
	return nil
}

// Close releases the client if the cache created it
func (c *RedisResultCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ ResultCache = (*RedisResultCache)(nil)
