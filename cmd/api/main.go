package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agency_crm_backend/internal/adapters/storage"
	"agency_crm_backend/internal/automation"
	"agency_crm_backend/internal/events"
	"agency_crm_backend/internal/exports"
	apphttp "agency_crm_backend/internal/http"
	"agency_crm_backend/internal/http/router"
	"agency_crm_backend/internal/leads"
	"agency_crm_backend/platform/cache"
	"agency_crm_backend/platform/config"
	"agency_crm_backend/platform/db"
	"agency_crm_backend/platform/logger"
	"agency_crm_backend/platform/phone"
	"agency_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	storageSvc := initStorage(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule, err := leads.NewModule(pool, eventBus, val, phone.NewNormalizer(cfg.GetPhoneDefaultRegion()))
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	var forecastCache *automation.ForecastCache
	if redisClient != nil {
		forecastCache = automation.NewForecastCache(redisClient, cfg.GetForecastCacheTTL())
	}
	automationSvc, err := automation.NewConfiguredService(cfg, leadsModule.Repository(), forecastCache, val, log)
	if err != nil {
		log.Error("failed to initialize automation service", "error", err)
		panic("failed to initialize automation service: " + err.Error())
	}
	automationModule := automation.NewModule(automationSvc, eventBus)

	var archiveStore exports.ObjectStore
	if storageSvc != nil {
		archiveStore = storageSvc
	}
	exportsModule := exports.NewModule(exports.NewService(leadsModule.Repository(), archiveStore, eventBus, exports.Options{
		FilePrefix: cfg.GetExportFilePrefix(),
		Location:   cfg.GetAutomationLocation(),
		Bucket:     cfg.GetMinioBucketLeadExports(),
	}))

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	readiness := []apphttp.ReadinessCheck{{Name: "database", Ping: pool.Ping}}
	if redisClient != nil {
		readiness = append(readiness, apphttp.ReadinessCheck{
			Name:     "forecastCache",
			Ping:     func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			Optional: true,
		})
	}

	app := &apphttp.App{
		Config:    cfg,
		Logger:    log,
		Readiness: readiness,
		Modules: []apphttp.Module{
			leadsModule,
			automationModule,
			exportsModule,
		},
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
}

// initRedis connects the forecast cache. Without Redis the API serves
// uncached forecasts.
func initRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; forecast cache disabled")
		return nil
	}

	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis; forecast cache disabled", "error", err)
		return nil
	}
	return client
}

// initStorage connects MinIO for backup archives. Without it the archive
// endpoints answer 503.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) *storage.MinIOService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; backup archives disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketLeadExports()
	if err := withRetry(ctx, log, "ensure lead-exports bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "leadExportsBucket", bucket)
	return storageSvc
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
