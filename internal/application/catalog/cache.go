package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Cache stores serialized read results. cache.ResultCache implements it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}

// CacheMetrics records cache lookups. telemetry.OperationMetrics
// implements it.
type CacheMetrics interface {
	RecordCacheLookup(ctx context.Context, cache string, hit bool)
}

// cachedList is the stored form of a list result.
type cachedList[T any] struct {
	Paginated bool                `json:"paginated"`
	Page      shared.Paginated[*T] `json:"page"`
	Items     []*T                `json:"items,omitempty"`
}

// listCache caches list results of schema T under prefix. A nil cache
// disables it.
type listCache[T any] struct {
	cache   Cache
	prefix  string
	ttl     time.Duration
	metrics CacheMetrics
}

// key derives the entry key of a query.
func (c *listCache[T]) key(op string, q any, paginated bool) (string, error) {
	data, err := json.Marshal(struct {
		Query     any  `json:"q"`
		Paginated bool `json:"p"`
	}{q, paginated})
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return c.prefix + op + ":" + hex.EncodeToString(sum[:]), nil
}

// load returns the cached result of key or stores what fetch returns.
// Cache failures are logged and fall through to fetch.
func (c *listCache[T]) load(ctx context.Context, key string, paginated bool, fetch func(context.Context) (any, error)) (any, error) {
	if c.cache == nil {
		return fetch(ctx)
	}

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.L(ctx).Warn("Result cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		var entry cachedList[T]
		if err := json.Unmarshal(data, &entry); err == nil {
			c.record(ctx, true)
			return entry.result(), nil
		}
		logger.L(ctx).Warn("Dropping corrupted cache entry", zap.String("key", key))
	}
	c.record(ctx, false)

	out, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := newCachedList[T](out, paginated)
	if !ok {
		return out, nil
	}
	if data, err := json.Marshal(entry); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			logger.L(ctx).Warn("Result cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// invalidate drops every entry of the cache.
func (c *listCache[T]) invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, c.prefix); err != nil {
		logger.L(ctx).Warn("Result cache invalidation failed", zap.String("prefix", c.prefix), zap.Error(err))
	}
}

func (c *listCache[T]) record(ctx context.Context, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(ctx, c.prefix, hit)
	}
}

// newCachedList captures out when every element is a *T.
func newCachedList[T any](out any, paginated bool) (cachedList[T], bool) {
	entry := cachedList[T]{Paginated: paginated}
	switch v := out.(type) {
	case shared.Paginated[any]:
		items, ok := typed[T](v.Results)
		if !ok {
			return entry, false
		}
		entry.Page = shared.Paginated[*T]{
			CurrentPage: v.CurrentPage,
			MaxPages:    v.MaxPages,
			Count:       v.Count,
			Size:        v.Size,
			Results:     items,
		}
	case []any:
		items, ok := typed[T](v)
		if !ok {
			return entry, false
		}
		entry.Items = items
	default:
		return entry, false
	}
	return entry, true
}

// result rebuilds the shape the interactor returns.
func (e cachedList[T]) result() any {
	if !e.Paginated {
		return untyped(e.Items)
	}
	return shared.Paginated[any]{
		CurrentPage: e.Page.CurrentPage,
		MaxPages:    e.Page.MaxPages,
		Count:       e.Page.Count,
		Size:        e.Page.Size,
		Results:     untyped(e.Page.Results),
	}
}

func typed[T any](items []any) ([]*T, bool) {
	out := make([]*T, 0, len(items))
	for _, item := range items {
		v, ok := item.(*T)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func untyped[T any](items []*T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
