package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"careerflow/domain/workspace"
	"careerflow/infrastructure/config"
	"careerflow/infrastructure/di"
	"careerflow/infrastructure/persistence"
	"careerflow/pkg/observability"
)

func main() {
	// Initialize context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	if cfg.EnableTracing {
		tp, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
			Endpoint:    cfg.OTLPEndpoint,
		})
		if err != nil {
			logger.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("Tracer shutdown error", zap.Error(err))
			}
		}()
	}

	// Pull the backend records into the tree. A failure leaves the
	// restored workspace in place.
	if !container.Sync.LocalOnly() {
		report, err := container.Sync.Reload(ctx)
		if err != nil {
			logger.Error("Initial reload failed", zap.Error(err))
		} else {
			logger.Info("Workspace reloaded from backend",
				zap.Int("added", report.Added),
				zap.Int("updated", report.Updated),
				zap.Int("removed", report.Removed),
			)
		}
	}

	// Follow edits made to the state file by other processes
	if container.StateStore.Enabled() {
		watcher, err := persistence.NewWatcher(container.StateStore, func(state workspace.State) {
			if err := container.Workspace.Replace(state); err != nil {
				logger.Error("Failed to apply state file", zap.Error(err))
			}
		}, logger)
		if err != nil {
			logger.Warn("State file watcher disabled", zap.Error(err))
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.TailorTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.Bool("local_only", container.Sync.LocalOnly()),
			zap.Strings("config_sources", cfg.LoadedFrom),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := container.StateStore.Save(container.Workspace.Snapshot()); err != nil {
		logger.Error("Failed to save workspace", zap.Error(err))
	}

	// Clean up resources
	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
