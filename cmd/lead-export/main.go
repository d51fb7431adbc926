package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"agency_crm_backend/internal/adapters/storage"
	"agency_crm_backend/internal/exports"
	"agency_crm_backend/internal/leads/domain"
	leadrepo "agency_crm_backend/internal/leads/repository"
	"agency_crm_backend/platform/config"
	"agency_crm_backend/platform/db"
	"agency_crm_backend/platform/logger"
)

func main() {
	outDir := flag.String("out", ".", "directory to write the backup CSV into")
	archive := flag.Bool("archive", false, "store the full roster backup in object storage instead of a local file")
	status := flag.String("status", "", "comma separated statuses to include")
	tag := flag.String("tag", "", "only include leads carrying this tag")
	highQuality := flag.Bool("high-quality", false, "only include leads flagged as best quality")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead export")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	var store exports.ObjectStore
	if *archive {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketLeadExports()); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		store = storageSvc
	}

	svc := exports.NewService(leadrepo.New(pool), store, nil, exports.Options{
		FilePrefix: cfg.GetExportFilePrefix(),
		Location:   cfg.GetAutomationLocation(),
		Bucket:     cfg.GetMinioBucketLeadExports(),
	})

	if *archive {
		result, err := svc.Archive(ctx)
		if err != nil {
			log.Error("archive failed", "error", err)
			os.Exit(1)
		}
		log.Info("backup archived", "key", result.ObjectKey, "rows", result.Rows, "bytes", result.Bytes)
		return
	}

	predicates := make([]exports.Predicate, 0, 3)
	if *status != "" {
		statuses := make([]domain.Status, 0)
		for _, part := range strings.Split(*status, ",") {
			parsed, ok := domain.ParseStatus(part)
			if !ok {
				log.Error("unknown status", "status", part)
				os.Exit(2)
			}
			statuses = append(statuses, parsed)
		}
		predicates = append(predicates, exports.ByStatus(statuses...))
	}
	if *tag != "" {
		predicates = append(predicates, exports.ByTag(*tag))
	}
	if *highQuality {
		predicates = append(predicates, exports.HighQualityOnly)
	}

	var buf bytes.Buffer
	filename, rows, err := svc.WriteBackup(ctx, &buf, exports.And(predicates...))
	if err != nil {
		log.Error("export failed", "error", err)
		os.Exit(1)
	}

	path := filepath.Join(*outDir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		log.Error("failed to write backup", "path", path, "error", err)
		os.Exit(1)
	}
	log.Info("backup written", "path", path, "rows", rows)
}
