package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
)

// ResultCacheFactory creates result caches based on configuration
type ResultCacheFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ResultCacheFactoryOption is a functional option for configuring the factory
type ResultCacheFactoryOption func(*ResultCacheFactory)

// WithLogger sets the logger for the factory and the caches it creates
func WithLogger(logger *zap.Logger) ResultCacheFactoryOption {
	return func(f *ResultCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ResultCacheFactoryOption {
	return func(f *ResultCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewResultCacheFactory creates a new factory
func NewResultCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...ResultCacheFactoryOption) *ResultCacheFactory {
	f := &ResultCacheFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed result cache
func (f *ResultCacheFactory) CreateRedisCache() (*RedisResultCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	c, err := NewRedisResultCache(redisCfg,
		WithKeyPrefix(f.cacheConfig.Prefix),
		WithRedisTTL(f.cacheConfig.TTL),
		WithCacheLogger(f.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis result cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates an in-memory result cache
func (f *ResultCacheFactory) CreateInMemoryCache() *InMemoryResultCache {
	return NewInMemoryResultCache(
		WithInMemoryTTL(f.cacheConfig.TTL),
		WithInMemoryLogger(f.logger),
	)
}

// CreateCache creates the configured cache. A disabled cache stores
// nothing. The redis driver falls back to memory when Redis is
// unreachable and fallback is allowed.
func (f *ResultCacheFactory) CreateCache() (ResultCache, error) {
	if !f.cacheConfig.Enabled {
		return NopResultCache{}, nil
	}
	if f.cacheConfig.Driver != "redis" {
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis result cache")
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for result cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory result cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
