// Package bootstrap wires configuration into the running application. Every
// remote dependency is optional: without a database the store works offline,
// without S3 uploads land in memory, without an API key classification is
// heuristic, and without NATS events are dropped.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/expedium/mesa-partes/internal/catalog"
	"github.com/expedium/mesa-partes/internal/config"
	"github.com/expedium/mesa-partes/internal/core/docstore"
	"github.com/expedium/mesa-partes/internal/core/ports"
	"github.com/expedium/mesa-partes/internal/core/usecase"
	"github.com/expedium/mesa-partes/internal/infrastructure/blobstore"
	blobmemory "github.com/expedium/mesa-partes/internal/infrastructure/blobstore/memory"
	blobs3 "github.com/expedium/mesa-partes/internal/infrastructure/blobstore/s3"
	"github.com/expedium/mesa-partes/internal/infrastructure/classifier"
	"github.com/expedium/mesa-partes/internal/infrastructure/classifier/gemini"
	"github.com/expedium/mesa-partes/internal/infrastructure/classifier/heuristic"
	natsbus "github.com/expedium/mesa-partes/internal/infrastructure/eventbus/nats"
	"github.com/expedium/mesa-partes/internal/infrastructure/extractor"
	"github.com/expedium/mesa-partes/internal/infrastructure/resilience"
	"github.com/expedium/mesa-partes/internal/infrastructure/rowstore/postgres"
	"github.com/expedium/mesa-partes/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Store   *docstore.Store
	Intake  ports.DocumentIntake
	Roster  *catalog.Catalog
	Bus     *natsbus.Bus
	DB      *sql.DB
	Metrics *metrics.APIMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	guard := resilience.NewGuard(resilience.Config{
		BreakerEnabled:   cfg.BreakerEnabled,
		MinRequests:      uint32(cfg.BreakerMinRequests),
		FailureRatio:     float64(cfg.BreakerFailureRatioPct) / 100,
		OpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSecs) * time.Second,
		HalfOpenMaxCalls: uint32(cfg.BreakerHalfOpenMaxCalls),
	})

	var db *sql.DB
	var rows ports.DocumentRows
	if cfg.PostgresDSN != "" {
		var err error
		db, err = postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewDocumentRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		rows = repo
	} else {
		slog.Warn("postgres_dsn_unset", "mode", "offline")
	}

	var bus *natsbus.Bus
	var events ports.EventSink
	if cfg.NATSURL != "" {
		var err error
		bus, err = natsbus.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			slog.Warn("nats_unavailable", "error", err)
		} else {
			events = bus
		}
	}

	var primary blobstore.Uploader
	if cfg.S3Bucket != "" {
		s3store, err := blobs3.New(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.S3PublicBaseURL)
		if err != nil {
			slog.Warn("s3_unavailable", "bucket", cfg.S3Bucket, "error", err)
		} else {
			primary = s3store
		}
	}
	blobs := blobstore.NewAdapter(primary, blobmemory.New(), time.Duration(cfg.UploadTimeoutSeconds)*time.Second)

	m := metrics.NewAPIMetrics("mesa-partes-api")

	var strategy ports.Classifier
	strategyName := "heuristic"
	if cfg.GeminiAPIKey != "" {
		strategy = gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, guard)
		strategyName = "gemini"
	} else {
		strategy = heuristic.New()
	}
	classify := classifier.WithTimeout(strategy, time.Duration(cfg.ClassifierTimeoutSeconds)*time.Second)
	classify = classifier.WithObserver(classify, func(duration time.Duration, err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		m.RecordClassification("mesa-partes-api", strategyName, outcome, duration)
	})
	classify = classifier.WithFallback(classify)

	store := docstore.New(rows, events, guard)
	store.Observe(func(operation string, outcome docstore.Reconciliation) {
		m.RecordReconciliation("mesa-partes-api", operation, string(outcome))
	})
	if err := store.Refresh(ctx); err != nil {
		slog.Warn("initial_refresh_failed", "error", err)
	}

	roster, err := catalog.Load(cfg.AssigneeCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load assignee catalog: %w", err)
	}

	intake := usecase.NewIntake(blobs, extractor.New(), classify, store, cfg.SnippetMaxChars)

	return &App{
		Config:  cfg,
		Store:   store,
		Intake:  intake,
		Roster:  roster,
		Bus:     bus,
		DB:      db,
		Metrics: m,

		closeFn: func() {
			if bus != nil {
				bus.Close()
			}
			if db != nil {
				_ = db.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
