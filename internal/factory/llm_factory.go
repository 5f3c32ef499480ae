package factory

import (
	"fmt"
	"io"
	"sync"

	"github.com/mikey/email-triage/internal/adapters/bedrock"
	"github.com/mikey/email-triage/internal/adapters/gemini"
	"github.com/mikey/email-triage/internal/adapters/huggingface"
	"github.com/mikey/email-triage/internal/adapters/openai"
	"github.com/mikey/email-triage/internal/adapters/promptllm"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/resilience"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// inferenceBackend both classifies and generates
type inferenceBackend interface {
	core.TextClassifier
	core.FieldExtractor
}

// LLMFactory creates the classifier and extractor for the configured provider.
// Both share one backend client and one circuit breaker.
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor

	once    sync.Once
	backend inferenceBackend
	guard   *resilience.Guard
	closers []io.Closer
	err     error
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier returns the guarded text classifier
func (f *LLMFactory) CreateClassifier() (core.TextClassifier, error) {
	if err := f.init(); err != nil {
		return nil, err
	}
	return resilience.NewClassifier(f.backend, f.guard), nil
}

// CreateExtractor returns the guarded field extractor
func (f *LLMFactory) CreateExtractor() (core.FieldExtractor, error) {
	if err := f.init(); err != nil {
		return nil, err
	}
	return resilience.NewExtractor(f.backend, f.guard), nil
}

// Guard returns the backend guard once a classifier or extractor was created
func (f *LLMFactory) Guard() *resilience.Guard {
	return f.guard
}

// Close releases provider clients that hold connections
func (f *LLMFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *LLMFactory) init() error {
	f.once.Do(func() {
		provider := f.cfg.GetLLM().Provider
		f.backend, f.err = f.createBackend(provider)
		if f.err != nil {
			return
		}
		f.guard = newGuard(f.cfg, "llm."+provider, f.logger)
		f.logger.Info("Initialized inference backend", zap.String("provider", provider))
	})
	return f.err
}

func (f *LLMFactory) createBackend(provider string) (inferenceBackend, error) {
	switch provider {
	case "huggingface":
		hf := f.cfg.GetHuggingFace()
		return huggingface.NewClient(hf.BaseURL, hf.APIKey, huggingface.Models{
			Classifier: hf.ClassifierModel,
			Generator:  hf.GeneratorModel,
			Embedding:  hf.EmbeddingModel,
		}, hf.Temperature, hf.Timeout, f.logger), nil
	case "bedrock":
		client, err := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		return promptllm.NewAdapter(client, 0, f.logger), nil
	case "gemini":
		client, err := gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, client)
		return promptllm.NewAdapter(client, 0, f.logger), nil
	case "openai":
		client, err := openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		return promptllm.NewAdapter(client, 0, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// newGuard builds the retry policy and breaker from configuration
func newGuard(cfg *config.Config, name string, logger *zap.Logger) *resilience.Guard {
	retryCfg := cfg.GetRetry()
	policy := resilience.Policy{
		MaxAttempts:     retryCfg.MaxAttempts,
		InitialInterval: retryCfg.InitialInterval,
		Multiplier:      retryCfg.Multiplier,
	}

	var breaker *resilience.Breaker
	if breakerCfg := cfg.GetBreaker(); breakerCfg.Enabled {
		breaker = resilience.NewBreaker(name, resilience.BreakerSettings{
			Enabled:             true,
			MaxRequests:         breakerCfg.MaxRequests,
			Interval:            breakerCfg.Interval,
			Timeout:             breakerCfg.Timeout,
			ConsecutiveFailures: breakerCfg.ConsecutiveFailures,
		}, logger)
	}

	return resilience.NewGuard(name, policy, breaker, logger)
}
