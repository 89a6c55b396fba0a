package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
)

const defaultPresignExpiry = 15 * time.Minute

// S3Resolver presigns GET URLs for objects in an S3-compatible bucket
// (AWS S3, MinIO, RustFS).
type S3Resolver struct {
	presignClient *s3.PresignClient
	bucket        string
	expiry        time.Duration
	logger        *zap.Logger
}

// S3ResolverOption is a functional option for configuring S3Resolver
type S3ResolverOption func(*S3Resolver)

// WithLogger sets a custom logger for S3Resolver
func WithLogger(logger *zap.Logger) S3ResolverOption {
	return func(r *S3Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPresignExpiry sets a custom presign expiration duration
func WithPresignExpiry(d time.Duration) S3ResolverOption {
	return func(r *S3Resolver) {
		r.expiry = d
	}
}

// NewS3Resolver creates a resolver from configuration.
func NewS3Resolver(cfg *config.MediaConfig, opts ...S3ResolverOption) (*S3Resolver, error) {
	if cfg == nil {
		return nil, errors.New("media configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("media bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("media credentials are required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (not used for static credentials)
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid media endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	r := &S3Resolver{
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		expiry:        cfg.PresignExpiry,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.expiry <= 0 {
		r.expiry = defaultPresignExpiry
	}
	return r, nil
}

// URL implements Resolver
func (r *S3Resolver) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	req, err := r.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.expiry))
	if err != nil {
		r.logger.Error("Failed to presign image URL",
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("failed to presign %q: %w", key, err)
	}
	return req.URL, nil
}

// Expiry returns how long presigned URLs stay valid.
func (r *S3Resolver) Expiry() time.Duration {
	return r.expiry
}

var _ Resolver = (*S3Resolver)(nil)
