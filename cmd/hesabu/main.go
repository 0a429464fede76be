package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hesabu-biz/hesabu/internal/app"
	"github.com/hesabu-biz/hesabu/internal/docgen/docnum"
	"github.com/hesabu-biz/hesabu/internal/documents"
	"github.com/hesabu-biz/hesabu/internal/inventory"
	"github.com/hesabu-biz/hesabu/internal/observability"
	"github.com/hesabu-biz/hesabu/internal/platform/cache"
	"github.com/hesabu-biz/hesabu/internal/platform/db"
	"github.com/hesabu-biz/hesabu/internal/sales/customers"
	"github.com/hesabu-biz/hesabu/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	exportClient := jobs.NewClient(redisOpts, logger)
	defer func() {
		if err := exportClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	documentsRepo := documents.NewRepository(pool)
	documentsService := documents.NewService(
		documentsRepo, customersService, inventoryService, numbers,
		app.DocumentConfig(cfg), cfg.TaxRate, logger)
	documentsHandler := documents.NewHandler(logger, documentsService, exportClient)

	jobsHandler := jobs.NewHandler(asynq.NewInspector(redisOpts), logger)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CustomersHandler: customersHandler,
		InventoryHandler: inventoryHandler,
		DocumentsHandler: documentsHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
