package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ResultCache stores serialized read results by key.
type ResultCache interface {
	// Get returns the entry stored under key. ok is false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data under key. A zero ttl uses the cache default.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Invalidate removes every entry whose key starts with prefix.
	Invalidate(ctx context.Context, prefix string) error
	Close() error
}

// Key joins parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetJSON reads the entry under key into a new T.
func GetJSON[T any](ctx context.Context, c ResultCache, key string) (*T, bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return out, true, nil
}

// SetJSON stores v under key as JSON.
func SetJSON(ctx context.Context, c ResultCache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// NopResultCache never stores anything.
type NopResultCache struct{}

func (NopResultCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NopResultCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopResultCache) Invalidate(context.Context, string) error                 { return nil }
func (NopResultCache) Close() error                                             { return nil }

var _ ResultCache = NopResultCache{}
