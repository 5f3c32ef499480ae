package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/adapters/inbound"
	"github.com/mikey/email-triage/internal/catalog"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/factory"
	"github.com/mikey/email-triage/internal/logging"
	"github.com/mikey/email-triage/internal/pipeline"
	"github.com/mikey/email-triage/internal/roles"
	"github.com/mikey/email-triage/internal/threads"
	"github.com/mikey/email-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container for the server
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideTriage(container); err != nil {
		return nil, err
	}

	// Register inbound surfaces
	if err := container.Provide(factory.NewInboundFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.InboundFactory) (*inbound.HTTPAPI, error) {
		return f.CreateHTTPAPI()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.InboundFactory) *inbound.SMTPIngest {
		return f.CreateSMTPIngest()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideTriage registers everything from the thread store up to the triage
// service. It needs a *config.Config and a *zap.Logger in the container.
func provideTriage(container *dig.Container) error {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewEmbeddingFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTriageFactory); err != nil {
		return err
	}

	// Register inference ports
	if err := container.Provide(func(f *factory.LLMFactory) (core.TextClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.LLMFactory) (core.FieldExtractor, error) {
		return f.CreateExtractor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.EmbeddingFactory) (core.Embedder, error) {
		return f.CreateEmbedder()
	}); err != nil {
		return err
	}

	// Register thread repository
	if err := container.Provide(func(f *factory.StoreFactory) (core.ThreadRepository, error) {
		return f.CreateThreadRepository()
	}); err != nil {
		return err
	}

	// Register catalog, attachments and roles
	if err := container.Provide(func(f *factory.TriageFactory) (*catalog.Catalog, error) {
		return f.CreateCatalog()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TriageFactory) (core.AttachmentSource, error) {
		return f.CreateAttachmentSource()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TriageFactory) *roles.Directory {
		return f.CreateRoleDirectory()
	}); err != nil {
		return err
	}

	// Register thread engine, pipeline and service
	if err := container.Provide(func(f *factory.TriageFactory, repo core.ThreadRepository, embedder core.Embedder) *threads.Engine {
		return f.CreateEngine(repo, embedder)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(
		f *factory.TriageFactory,
		cat *catalog.Catalog,
		classifier core.TextClassifier,
		extractor core.FieldExtractor,
		source core.AttachmentSource,
		tp *utils.TextProcessor,
	) *pipeline.Pipeline {
		return f.CreatePipeline(cat, classifier, extractor, source, tp)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TriageFactory, engine *threads.Engine, p *pipeline.Pipeline) *core.TriageService {
		return f.CreateService(engine, p)
	}); err != nil {
		return err
	}

	return nil
}

// Resources are the long-lived values a binary must release on exit
type Resources struct {
	dig.In

	Logger     *zap.Logger
	Repository core.ThreadRepository
	LLM        *factory.LLMFactory
	Embedding  *factory.EmbeddingFactory
}

// Release stops the thread store and closes provider clients
func (r Resources) Release() {
	if stopper, ok := r.Repository.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if err := r.LLM.Close(); err != nil {
		r.Logger.Warn("Failed to close inference client", zap.Error(err))
	}
	if err := r.Embedding.Close(); err != nil {
		r.Logger.Warn("Failed to close embedding client", zap.Error(err))
	}
}
