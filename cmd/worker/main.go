package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/hesabu-biz/hesabu/internal/app"
	"github.com/hesabu-biz/hesabu/internal/docgen/docnum"
	"github.com/hesabu-biz/hesabu/internal/documents"
	"github.com/hesabu-biz/hesabu/internal/inventory"
	jobmetrics "github.com/hesabu-biz/hesabu/internal/jobs"
	"github.com/hesabu-biz/hesabu/internal/observability"
	"github.com/hesabu-biz/hesabu/internal/platform/cache"
	"github.com/hesabu-biz/hesabu/internal/platform/db"
	"github.com/hesabu-biz/hesabu/internal/sales/customers"
	"github.com/hesabu-biz/hesabu/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	counterStore, err := app.NewCounterStore(cfg, pool, redisClient)
	if err != nil {
		logger.Error("counter store", slog.Any("error", err))
		os.Exit(1)
	}
	numbers := docnum.NewService(counterStore, logger)

	customersService := customers.NewService(customers.NewRepository(pool))
	inventoryService := inventory.NewService(inventory.NewRepository(pool))
	documentsService := documents.NewService(
		documents.NewRepository(pool), customersService, inventoryService, numbers,
		app.DocumentConfig(cfg), cfg.TaxRate, logger)

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	if cfg.WorkerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.WorkerMetricsAddr, mux); err != nil {
				logger.Warn("metrics listener", slog.Any("error", err))
			}
		}()
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{
				Type:    jobs.TaskTypeExportDocument,
				Handler: jobs.NewExportHandler(documentsService, cfg.ExportDir, jobMetrics, logger),
			},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("export_dir", cfg.ExportDir))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
