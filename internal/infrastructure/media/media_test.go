package media

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func TestPublicResolver(t *testing.T) {
	r, err := NewPublicResolver("https://cdn.example.com/media/")
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		key  string
		want string
	}{
		{key: "products/tea.png", want: "https://cdn.example.com/media/products/tea.png"},
		{key: "/products/tea.png", want: "https://cdn.example.com/media/products/tea.png"},
		{key: "products/green tea.png", want: "https://cdn.example.com/media/products/green%20tea.png"},
		{key: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := r.URL(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = NewPublicResolver("")
	assert.Error(t, err)
}

func TestNewS3Resolver_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3Resolver(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3Resolver(&config.MediaConfig{AccessKeyID: "key", SecretAccessKey: "secret"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials returns error", func(t *testing.T) {
		_, err := NewS3Resolver(&config.MediaConfig{Bucket: "images"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials are required")
	})

	t.Run("default presign expiry is 15 minutes", func(t *testing.T) {
		r, err := NewS3Resolver(&config.MediaConfig{Bucket: "images", AccessKeyID: "key", SecretAccessKey: "secret"})
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, r.Expiry())
	})
}

func TestS3Resolver_URL(t *testing.T) {
	cfg := &config.MediaConfig{
		Driver:          "s3",
		Bucket:          "images",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		PresignExpiry:   time.Hour,
	}
	r, err := NewS3Resolver(cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	url, err := r.URL(context.Background(), "products/tea.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/images/products/tea.png?"))
	assert.Contains(t, url, "X-Amz-Expires=3600")

	url, err = r.URL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestNew(t *testing.T) {
	r, err := New(&config.MediaConfig{Driver: "public", BaseURL: "http://localhost:9000/media"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &PublicResolver{}, r)

	_, err = New(&config.MediaConfig{Driver: "ftp"}, nil)
	assert.Error(t, err)
}
