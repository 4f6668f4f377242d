package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	goerrors "github.com/go-errors/errors"
	"go.uber.org/zap"

	"github.com/mxschmitt/db-profile-resolver/internal/api"
	"github.com/mxschmitt/db-profile-resolver/internal/config"
	"github.com/mxschmitt/db-profile-resolver/internal/database"
	"github.com/mxschmitt/db-profile-resolver/internal/profile"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	environment := profile.ParseEnvironment(cfg.Environment)
	logger.Info("Starting database profile service", zap.String("environment", string(environment)))

	// Resolve only the active environment
	p, report, err := profile.Resolve(environment, profile.EnvFromOS())
	report.Log(logger)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			fields = append(fields, zap.String("stack", stackErr.ErrorStack()))
		}
		if errors.Is(err, profile.ErrNoDatabaseConfig) {
			logger.Fatal("Database configuration is required, refusing to start", fields...)
		}
		logger.Fatal("Failed to resolve database profile", fields...)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, p, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Create and start API server
	apiServer := api.New(cfg, p, report, db, logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	logger.Info("Service started successfully")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
}
