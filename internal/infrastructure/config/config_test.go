package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearShopEnv unsets every SHOP_ variable for the duration of the test.
func clearShopEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "SHOP_") {
			// registers the restore before unsetting
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearShopEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "storefront", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "shop", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowThreshold)
		assert.Equal(t, 2048, cfg.Database.MaxLoggedSQL)
		assert.Equal(t, "memory", cfg.Cache.Driver)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, "public", cfg.Media.Driver)
		assert.Equal(t, "storefront", cfg.Telemetry.ServiceName)
		assert.Equal(t, 16, cfg.Order.HashLength)
		assert.Equal(t, 20, cfg.Order.DefaultPageSize)
		assert.False(t, cfg.Pipeline.StrictRelations)
	})

	t.Run("loads values from environment variables with SHOP prefix", func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_APP_NAME", "test-shop")
		t.Setenv("SHOP_DATABASE_DRIVER", "sqlite")
		t.Setenv("SHOP_DATABASE_PATH", ":memory:")
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("SHOP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("SHOP_CACHE_DRIVER", "redis")
		t.Setenv("SHOP_CACHE_TTL", "30s")
		t.Setenv("SHOP_REDIS_PORT", "6380")
		t.Setenv("SHOP_PIPELINE_STRICT_RELATIONS", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-shop", cfg.App.Name)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.DSN())
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "redis", cfg.Cache.Driver)
		assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
		assert.Equal(t, "localhost:6380", cfg.Redis.Addr())
		assert.True(t, cfg.Pipeline.StrictRelations)
	})

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "idle connections cannot exceed open connections",
			env:  map[string]string{"SHOP_DATABASE_MAX_OPEN_CONNS": "10", "SHOP_DATABASE_MAX_IDLE_CONNS": "20"},
			want: "cannot exceed",
		},
		{
			name: "idle connections cannot be negative",
			env:  map[string]string{"SHOP_DATABASE_MAX_IDLE_CONNS": "-1"},
			want: "max_idle_conns cannot be negative",
		},
		{
			name: "unknown database driver",
			env:  map[string]string{"SHOP_DATABASE_DRIVER": "mysql"},
			want: "database.driver",
		},
		{
			name: "unknown cache driver",
			env:  map[string]string{"SHOP_CACHE_DRIVER": "memcached"},
			want: "cache.driver",
		},
		{
			name: "s3 media needs a bucket",
			env:  map[string]string{"SHOP_MEDIA_DRIVER": "s3"},
			want: "media.bucket is required",
		},
		{
			name: "short order hash",
			env:  map[string]string{"SHOP_ORDER_HASH_LENGTH": "4"},
			want: "order.hash_length",
		},
		{
			name: "sampling ratio out of range",
			env:  map[string]string{"SHOP_TELEMETRY_SAMPLING_RATIO": "1.5"},
			want: "sampling_ratio",
		},
		{
			name: "profiling without server",
			env:  map[string]string{"SHOP_TELEMETRY_PROFILING_ENABLED": "true"},
			want: "profiling_server",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearShopEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_APP_ENV", "production")
		t.Setenv("SHOP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SHOP_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("sqlite skips postgres checks", func(t *testing.T) {
		clearShopEnv(t)
		t.Setenv("SHOP_APP_ENV", "production")
		t.Setenv("SHOP_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.NoError(t, err)
	})

	t.Run("rejects full SQL in spans", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", Path: "/tmp/shop.db"}
		assert.Equal(t, "/tmp/shop.db", cfg.DSN())
	})
}
