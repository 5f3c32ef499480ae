package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mikey/email-triage/internal/adapters/inbound"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/di"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	// A missing .env file is fine
	_ = godotenv.Load()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	api *inbound.HTTPAPI,
	smtp *inbound.SMTPIngest,
	res di.Resources,
) error {
	defer logger.Sync()
	defer res.Release()

	if api == nil && smtp == nil {
		return fmt.Errorf("no inbound surface enabled, enable server.http or server.smtp")
	}

	// Start the inbound surfaces
	if api != nil {
		if err := api.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP API: %w", err)
		}
	}
	if smtp != nil {
		if err := smtp.Start(); err != nil {
			return fmt.Errorf("failed to start SMTP ingest: %w", err)
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetServer().ShutdownTimeout)
	defer cancel()

	if api != nil {
		if err := api.Shutdown(ctx); err != nil {
			logger.Error("Failed to stop HTTP API", zap.Error(err))
		}
	}
	if smtp != nil {
		if err := smtp.Stop(); err != nil {
			logger.Error("Failed to stop SMTP ingest", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
