package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/application/controller"
	"github.com/storefront/backend/internal/application/interactor"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/application/scope"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/media"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/repository"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// app holds everything a command needs, plus what has to be released when
// it finishes.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *controller.Registry

	closers []func(context.Context) error
}

// newApp builds the process from cfg. On error, everything already started
// is released.
func newApp(ctx context.Context, cfg *config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(ctx)
		}
	}()

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	// stdout carries command output
	if logCfg.Output == "" || logCfg.Output == "stdout" {
		logCfg.Output = "stderr"
	}
	base, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	a.log = base

	tel, err := telemetry.Setup(ctx, telemetrySetup(cfg), base)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}
	a.closers = append(a.closers, tel.Shutdown)

	if tel.Logs.IsEnabled() {
		if a.log, err = logger.New(logCfg, tel.Logs.Core()); err != nil {
			return nil, fmt.Errorf("initialize logger: %w", err)
		}
	}
	a.closers = append(a.closers, func(context.Context) error {
		_ = a.log.Sync()
		return nil
	})

	db, err := persistence.NewDatabase(&cfg.Database, a.log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, a.log); err != nil {
		return nil, fmt.Errorf("register database tracing: %w", err)
	}

	// postgres schemas come from cmd/migrate
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}

	repos := persistence.NewRepositories(db.Store(),
		repository.WithRecorder(tel.Metrics),
		repository.WithStrict(cfg.Pipeline.StrictRelations),
		repository.WithPrincipal(scope.Principal),
	)

	resultCache, err := cache.NewResultCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(a.log)).CreateCache()
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return resultCache.Close() })

	images, err := media.New(&cfg.Media, a.log)
	if err != nil {
		return nil, fmt.Errorf("create media resolver: %w", err)
	}

	a.registry, err = buildControllers(repos, catalogapp.Options{
		Cache:    resultCache,
		CacheTTL: catalogTTL(cfg, a.log),
		Metrics:  tel.Metrics,
		Images:   images,
	}, orderapp.Options{
		HashLength: cfg.Order.HashLength,
		Transactor: repos.Store(),
		Metrics:    tel.Metrics,
		Interactor: []interactor.Option{interactor.WithDefaultLimit(cfg.Order.DefaultPageSize)},
	})
	if err != nil {
		return nil, err
	}

	a.log.Debug("Storefront ready",
		zap.String("env", cfg.App.Env),
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Driver),
		zap.Strings("controllers", a.registry.Names()),
	)
	return a, nil
}

func buildControllers(repos *persistence.Repositories, catalogOpts catalogapp.Options, orderOpts orderapp.Options) (*controller.Registry, error) {
	categoryRepo, err := repos.Categories()
	if err != nil {
		return nil, err
	}
	productRepo, err := repos.Products()
	if err != nil {
		return nil, err
	}
	orderRepo, err := repos.Orders()
	if err != nil {
		return nil, err
	}
	itemRepo, err := repos.OrderItems()
	if err != nil {
		return nil, err
	}
	statusRepo, err := repos.OrderStatuses()
	if err != nil {
		return nil, err
	}

	categories, err := catalogapp.NewCategoryInteractor(categoryRepo, catalogOpts)
	if err != nil {
		return nil, err
	}
	products, err := catalogapp.NewProductInteractor(productRepo, catalogOpts)
	if err != nil {
		return nil, err
	}
	orders, err := orderapp.NewOrderInteractor(orderapp.Repositories{
		Orders:   orderRepo,
		Items:    itemRepo,
		Statuses: statusRepo,
		Products: productRepo,
	}, orderOpts)
	if err != nil {
		return nil, err
	}

	categoryCtl, err := catalogapp.NewCategoryController(categories)
	if err != nil {
		return nil, err
	}
	productCtl, err := catalogapp.NewProductController(products)
	if err != nil {
		return nil, err
	}
	orderCtl, err := orderapp.NewOrderController(orders)
	if err != nil {
		return nil, err
	}

	registry := controller.NewRegistry()
	if err := registry.Register(categoryCtl, productCtl, orderCtl); err != nil {
		return nil, err
	}
	return registry, nil
}

// catalogTTL keeps cached listings from outliving presigned image URLs.
func catalogTTL(cfg *config.Config, log *zap.Logger) time.Duration {
	ttl := cfg.Cache.TTL
	if cfg.Media.Driver == "s3" && ttl >= cfg.Media.PresignExpiry {
		ttl = cfg.Media.PresignExpiry / 2
		log.Warn("Cache TTL exceeds presigned URL expiry, shortening catalog TTL",
			zap.Duration("cache_ttl", cfg.Cache.TTL),
			zap.Duration("presign_expiry", cfg.Media.PresignExpiry),
			zap.Duration("catalog_ttl", ttl),
		)
	}
	return ttl
}

func telemetrySetup(cfg *config.Config) telemetry.SetupConfig {
	t := cfg.Telemetry
	service := t.ServiceName
	if service == "" {
		service = cfg.App.Name
	}
	return telemetry.SetupConfig{
		Tracing: telemetry.Config{
			Enabled:           t.Enabled,
			CollectorEndpoint: t.CollectorEndpoint,
			SamplingRatio:     t.SamplingRatio,
			ServiceName:       service,
			ServiceVersion:    cfg.App.Version,
			Insecure:          t.Insecure,
		},
		Metrics: telemetry.MetricsConfig{
			Enabled:           t.MetricsEnabled,
			CollectorEndpoint: t.CollectorEndpoint,
			ExportInterval:    t.MetricsInterval,
			ServiceName:       service,
			ServiceVersion:    cfg.App.Version,
			Insecure:          t.Insecure,
		},
		Logs: telemetry.LogsConfig{
			Enabled:           t.LogsEnabled,
			CollectorEndpoint: t.CollectorEndpoint,
			ServiceName:       service,
			ServiceVersion:    cfg.App.Version,
			Insecure:          t.Insecure,
			Level:             logger.ParseLevel(t.LogsLevel),
		},
		Profiler: telemetry.ProfilerConfig{
			Enabled:           t.ProfilingEnabled,
			ServerAddress:     t.ProfilingServer,
			ApplicationName:   service,
			BasicAuthUser:     t.ProfilingUser,
			BasicAuthPassword: t.ProfilingPassword,
			ProfileTypes:      t.ProfilingTypes,
		},
		SpanProfiles: t.SpanProfiles,
	}
}

// Close releases resources in reverse start order.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
