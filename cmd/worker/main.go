package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/expedium/mesa-partes/internal/config"
	"github.com/expedium/mesa-partes/internal/core/domain"
	natsbus "github.com/expedium/mesa-partes/internal/infrastructure/eventbus/nats"
	"github.com/expedium/mesa-partes/internal/infrastructure/rowstore/postgres"
	"github.com/expedium/mesa-partes/internal/observability/logging"
	"github.com/expedium/mesa-partes/internal/observability/metrics"
)

const serviceName = "mesa-partes-worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(serviceName, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PostgresDSN == "" {
		slog.Error("postgres_dsn_required")
		os.Exit(1)
	}
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		slog.Error("open_postgres_failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	events := postgres.NewEventRepository(db)
	if err := events.EnsureSchema(ctx); err != nil {
		slog.Error("ensure_schema_failed", "error", err)
		os.Exit(1)
	}

	bus, err := natsbus.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		slog.Error("nats_connect_failed", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	m := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: m.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = bus.Subscribe(ctx, func(handlerCtx context.Context, evt domain.Event) error {
		m.StartAudit()
		start := time.Now()
		m.ObserveEventLag(serviceName, start.Sub(evt.At))

		appendCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Second)
		defer cancel()
		appendErr := events.Append(appendCtx, evt)
		m.FinishAudit(serviceName, string(evt.Kind), time.Since(start), appendErr)
		return appendErr
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
