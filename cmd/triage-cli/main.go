package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mikey/email-triage/internal/adapters/inbound"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/di"
	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	flags := di.ParseFlags()

	// A missing .env file is fine
	_ = godotenv.Load()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	var failed int
	err = container.Invoke(func(
		cfg *config.Config,
		logger *zap.Logger,
		runner *inbound.CLIRunner,
		res di.Resources,
	) error {
		defer logger.Sync()
		defer res.Release()

		emails, err := readEmails(cfg, logger, flags)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		failed, err = runner.Run(ctx, emails)
		if err != nil {
			return err
		}
		logger.Info("Batch complete", zap.Int("emails", len(emails)), zap.Int("failed", failed))
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(2)
	}
}

// readEmails loads the batch from a scenario, a file or stdin
func readEmails(cfg *config.Config, logger *zap.Logger, flags *di.CLIFlags) ([]*core.Email, error) {
	if flags.Scenario != "" {
		path := cfg.GetServer().ScenariosPath
		set, err := inbound.LoadScenarios(path)
		if err != nil {
			return nil, err
		}
		sc, ok := set.Get(flags.Scenario)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q in %s", flags.Scenario, path)
		}
		logger.Info("Replaying scenario", zap.String("scenario", flags.Scenario))
		return sc.Emails, nil
	}

	var r io.Reader = os.Stdin
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		r = file
		logger.Info("Reading emails from file", zap.String("file", flags.InputFile))
	} else {
		logger.Info("Reading emails from stdin")
	}
	return inbound.DecodeBatch(r)
}
