package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agency_crm_backend/internal/adapters/storage"
	"agency_crm_backend/internal/automation"
	"agency_crm_backend/internal/email"
	"agency_crm_backend/internal/events"
	"agency_crm_backend/internal/exports"
	leadrepo "agency_crm_backend/internal/leads/repository"
	"agency_crm_backend/internal/scheduler"
	"agency_crm_backend/platform/config"
	"agency_crm_backend/platform/db"
	"agency_crm_backend/platform/logger"
	"agency_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	repo := leadrepo.New(pool)

	automationSvc, err := automation.NewConfiguredService(cfg, repo, nil, val, log)
	if err != nil {
		log.Error("failed to initialize automation service", "error", err)
		panic("failed to initialize automation service: " + err.Error())
	}

	var archiveStore exports.ObjectStore
	if cfg.IsMinIOEnabled() {
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
		archiveStore = storageSvc
	} else {
		log.Warn("MINIO_ENDPOINT not configured; nightly backups disabled")
	}
	exportSvc := exports.NewService(repo, archiveStore, eventBus, exports.Options{
		FilePrefix: cfg.GetExportFilePrefix(),
		Location:   cfg.GetAutomationLocation(),
		Bucket:     cfg.GetMinioBucketLeadExports(),
	})

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	sender := email.NewSender(cfg)
	if !cfg.IsSMTPEnabled() {
		log.Warn("SMTP not configured; drip messages are dropped")
	}
	sequences, err := automation.NewFileSequenceSource(cfg.GetSequencesFile(), val)
	if err != nil {
		log.Error("failed to initialize sequence source", "error", err)
		panic("failed to initialize sequence source: " + err.Error())
	}
	dispatcher := scheduler.NewDripDispatcher(repo, sequences, sender, log)

	worker, err := scheduler.NewWorker(cfg, dispatcher, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	backupCron := cfg.GetExportBackupCron()
	if archiveStore == nil {
		backupCron = ""
	}
	jobs := scheduler.NewJobs(scheduler.JobsDeps{
		Automation: automationSvc,
		Exports:    exportSvc,
		Enqueuer:   client,
		Location:   cfg.GetAutomationLocation(),
		SendHour:   cfg.GetSendHour(),
		Log:        log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		return jobs.Run(gctx, cfg.GetPlanCron(), backupCron)
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
		panic("scheduler stopped: " + err.Error())
	}
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
