package factory

import (
	"fmt"
	"io"

	"github.com/mikey/email-triage/internal/adapters/bedrock"
	"github.com/mikey/email-triage/internal/adapters/gemini"
	"github.com/mikey/email-triage/internal/adapters/huggingface"
	"github.com/mikey/email-triage/internal/adapters/openai"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/resilience"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// EmbeddingFactory creates the embedder used for semantic duplicate detection
type EmbeddingFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	closer        io.Closer
	guard         *resilience.Guard
}

// NewEmbeddingFactory creates a new embedding factory
func NewEmbeddingFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *EmbeddingFactory {
	return &EmbeddingFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbedder returns the guarded embedder, or nil when the provider is "none"
func (f *EmbeddingFactory) CreateEmbedder() (core.Embedder, error) {
	provider := f.cfg.GetEmbedding().Provider

	var embedder core.Embedder
	switch provider {
	case "none", "":
		f.logger.Info("Semantic duplicate detection disabled")
		return nil, nil
	case "huggingface":
		hf := f.cfg.GetHuggingFace()
		embedder = huggingface.NewClient(hf.BaseURL, hf.APIKey, huggingface.Models{
			Embedding: hf.EmbeddingModel,
		}, hf.Temperature, hf.Timeout, f.logger)
	case "bedrock":
		client, err := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		embedder = client
	case "gemini":
		client, err := gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		f.closer = client
		embedder = client
	case "openai":
		client, err := openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		embedder = client
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}

	f.logger.Info("Initialized embedder", zap.String("provider", provider))
	f.guard = newGuard(f.cfg, "embedding."+provider, f.logger)
	return resilience.NewEmbedder(embedder, f.guard), nil
}

// Guard returns the embedder guard, nil when no embedder was created
func (f *EmbeddingFactory) Guard() *resilience.Guard {
	return f.guard
}

// Close releases the embedding client, if it holds connections
func (f *EmbeddingFactory) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
