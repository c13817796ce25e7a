package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fracbond-investment-ledger/internal/access"
	"github.com/fracbond-investment-ledger/internal/api"
	"github.com/fracbond-investment-ledger/internal/config"
	"github.com/fracbond-investment-ledger/internal/data/postgres"
	"github.com/fracbond-investment-ledger/internal/ledger"
	"github.com/fracbond-investment-ledger/internal/logger"
	"github.com/fracbond-investment-ledger/internal/platform/persistence"
	"github.com/fracbond-investment-ledger/internal/portfolio"
	"github.com/fracbond-investment-ledger/internal/registry"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	bondRepo := postgres.NewBondRepository(log, postgresDB)
	positionRepo := postgres.NewPositionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	// Initialize services
	bondRegistry := registry.NewBondRegistry(log, postgresDB, bondRepo, positionRepo)
	investorLedger := ledger.NewLedger(log, postgresDB, bondRepo, positionRepo, outboxRepo)
	aggregator := portfolio.NewAggregator(log, bondRepo, positionRepo)

	// Initialize access control
	gate := access.NewGate()
	tokens := access.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize REST server
	server := api.NewServer(log, cfg, tokens, gate, bondRegistry, investorLedger, aggregator)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
