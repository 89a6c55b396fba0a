// Package media resolves product image object keys to URLs.
package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
)

// Resolver turns an object key into a URL a client can fetch. An empty key
// resolves to an empty URL.
type Resolver interface {
	URL(ctx context.Context, key string) (string, error)
}

// New creates the resolver selected by cfg.Driver.
func New(cfg *config.MediaConfig, logger *zap.Logger) (Resolver, error) {
	switch cfg.Driver {
	case "", "public":
		return NewPublicResolver(cfg.BaseURL)
	case "s3":
		return NewS3Resolver(cfg, WithLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported media driver %q", cfg.Driver)
	}
}

// PublicResolver serves objects from a public base URL.
type PublicResolver struct {
	base *url.URL
}

// NewPublicResolver creates a resolver joining keys onto baseURL.
func NewPublicResolver(baseURL string) (*PublicResolver, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("media base URL is required")
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid media base URL: %w", err)
	}
	return &PublicResolver{base: u}, nil
}

// URL implements Resolver
func (r *PublicResolver) URL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return r.base.JoinPath(strings.Split(strings.TrimPrefix(key, "/"), "/")...).String(), nil
}

var _ Resolver = (*PublicResolver)(nil)
