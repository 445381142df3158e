// cmd/schedulerd/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	http_api "cronwell/internal/api/http"
	"cronwell/internal/config"
	gormstore "cronwell/internal/infra/gorm"
	"cronwell/internal/infra/queue"
	"cronwell/internal/scheduler"
	"cronwell/internal/task"
	"cronwell/internal/tracing"
	"cronwell/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Initialize logger and tracer
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer("cronwell-schedulerd")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	logger.Info("starting scheduler service")

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 3. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel, logger)

	// 4. Open the database and build the stores
	db, err := gormstore.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	definitions := gormstore.NewDefinitionStore(db, logger)
	executions := gormstore.NewExecutionStore(db, logger)
	ranges := gormstore.NewCutoffRangeStore(db, logger)
	cutoffs := gormstore.NewCutoffProvider(db)
	companies := gormstore.NewCompanyProvider(db)
	accounts := gormstore.NewAccountProvider(db)
	queueClient := queue.NewLoggingClient(logger)

	// 5. Build the task registry, executor and timer registry
	tasks, err := task.NewDefaultRegistry(task.Dependencies{
		Executions: executions,
		Defs:       definitions,
		Companies:  companies,
		Cutoffs:    cutoffs,
		Ranges:     ranges,
		Accounts:   accounts,
		Queue:      queueClient,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("failed to build task registry: %v", err)
	}

	executor := usecase.NewExecutor(definitions, executions, tasks, logger)
	registry := scheduler.NewRegistry(definitions, executor, logger)

	// 6. Reconcile the static catalog, then bring the timers up
	usecase.NewReconciler(definitions, registry, logger).Reconcile(rootCtx)

	go func() {
		if err := registry.Start(rootCtx); err != nil && err != context.Canceled {
			logger.Error("scheduler registry stopped", "error", err)
		}
	}()

	// 7. Management API and metrics endpoint
	schedulerService := usecase.NewSchedulerService(definitions, executions, registry, tasks, logger)
	handler := http_api.NewSchedulerHandler(schedulerService, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	logger.Info("starting HTTP API server", "addr", cfg.HttpListenAddr)
	server := &http.Server{
		Addr:    cfg.HttpListenAddr,
		Handler: mux,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 8. Block until shutdown
	<-rootCtx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}

	logger.Info("shut down")
}

func setupGracefulShutdown(cancel context.CancelFunc, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()
	}()
}
