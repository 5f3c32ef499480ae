package di

import (
	"flag"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/adapters/inbound"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Inference flags
	Provider          string
	EmbeddingProvider string
	Threshold         float64

	// Thread store flags
	Store string

	// Input flags
	InputFile  string
	Scenario   string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Inference flags
	flag.StringVar(&flags.Provider, "provider", "", "Inference provider (huggingface, openai, gemini, bedrock)")
	flag.StringVar(&flags.EmbeddingProvider, "embedding-provider", "", "Embedding provider (huggingface, openai, gemini, bedrock, none)")
	flag.Float64Var(&flags.Threshold, "threshold", -1, "Classification confidence threshold")

	// Thread store flags
	flag.StringVar(&flags.Store, "store", "", "Thread store (memory, sqlite, mysql, redis)")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input JSON batch file (use stdin if not specified)")
	flag.StringVar(&flags.Scenario, "scenario", "", "Replay a named scenario from server.scenarios_path instead of reading a batch")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		applyFlags(cfg, flags)
		return cfg, cfg.Validate()
	}); err != nil {
		return nil, err
	}

	if err := provideTriage(container); err != nil {
		return nil, err
	}

	// Register CLI runner
	if err := container.Provide(func(service *core.TriageService, logger *zap.Logger, flags *CLIFlags) *inbound.CLIRunner {
		return inbound.NewCLIRunner(service, logger, os.Stdout, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlags overrides configuration with the flags that were set
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	// The CLI is a one-shot run; keep SMTP and HTTP out of it
	cfg.Set("server.http.enabled", false)
	cfg.Set("server.smtp.enabled", false)

	if flags.Provider != "" {
		cfg.Set("llm.provider", flags.Provider)
	}
	if flags.EmbeddingProvider != "" {
		cfg.Set("embedding.provider", flags.EmbeddingProvider)
	}
	if flags.Threshold >= 0 {
		cfg.Set("pipeline.confidence_threshold", flags.Threshold)
	}
	if flags.Store != "" {
		cfg.Set("threads.store", flags.Store)
	}
}
