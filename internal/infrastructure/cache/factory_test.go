package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func TestResultCacheFactory_CreateCache(t *testing.T) {
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	tests := []struct {
		name     string
		cacheCfg config.CacheConfig
		fallback bool
		wantType any
		wantErr  bool
	}{
		{name: "disabled", cacheCfg: config.CacheConfig{Enabled: false, Driver: "redis"}, fallback: true, wantType: NopResultCache{}},
		{name: "memory", cacheCfg: config.CacheConfig{Enabled: true, Driver: "memory", TTL: time.Minute}, fallback: true, wantType: &InMemoryResultCache{}},
		{name: "redis falls back", cacheCfg: config.CacheConfig{Enabled: true, Driver: "redis"}, fallback: true, wantType: &InMemoryResultCache{}},
		{name: "redis required", cacheCfg: config.CacheConfig{Enabled: true, Driver: "redis"}, fallback: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewResultCacheFactory(tt.cacheCfg, unreachable, WithInMemoryFallback(tt.fallback))
			c, err := f.CreateCache()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer c.Close()
			assert.IsType(t, tt.wantType, c)
		})
	}
}
