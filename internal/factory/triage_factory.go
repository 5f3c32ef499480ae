package factory

import (
	"github.com/mikey/email-triage/internal/attachments"
	"github.com/mikey/email-triage/internal/catalog"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/pipeline"
	"github.com/mikey/email-triage/internal/roles"
	"github.com/mikey/email-triage/internal/threads"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// TriageFactory creates the thread engine, the pipeline and their collaborators
type TriageFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTriageFactory creates a new triage factory
func NewTriageFactory(cfg *config.Config, logger *zap.Logger) *TriageFactory {
	return &TriageFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCatalog loads the request catalog, falling back to the built-in one
func (f *TriageFactory) CreateCatalog() (*catalog.Catalog, error) {
	path := f.cfg.GetCatalog().Path
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Loaded request catalog",
		zap.String("path", path),
		zap.Strings("request_types", cat.Names()))
	return cat, nil
}

// CreateAttachmentSource returns the attachment reader, or a no-op source when disabled
func (f *TriageFactory) CreateAttachmentSource() (core.AttachmentSource, error) {
	attCfg := f.cfg.GetAttachments()
	if !attCfg.Enabled {
		return attachments.NoopSource{}, nil
	}
	return attachments.NewDirectorySource(attCfg.Folder, f.logger)
}

// CreateRoleDirectory returns the sender role directory
func (f *TriageFactory) CreateRoleDirectory() *roles.Directory {
	rolesCfg := f.cfg.GetRoles()
	return roles.NewDirectory(rolesCfg.SupportDomains, rolesCfg.SupportAddresses, f.logger)
}

// CreateEngine returns the thread engine. embedder may be nil.
func (f *TriageFactory) CreateEngine(repo core.ThreadRepository, embedder core.Embedder) *threads.Engine {
	dedup := f.cfg.GetDedup()
	return threads.NewEngine(repo, embedder, threads.Options{
		FuzzyThreshold:    dedup.FuzzyThreshold,
		SemanticThreshold: dedup.SemanticThreshold,
	}, f.logger.Named("threads"))
}

// CreatePipeline returns the classification and extraction pipeline
func (f *TriageFactory) CreatePipeline(
	cat *catalog.Catalog,
	classifier core.TextClassifier,
	extractor core.FieldExtractor,
	source core.AttachmentSource,
	textProcessor *utils.TextProcessor,
) *pipeline.Pipeline {
	pipelineCfg := f.cfg.GetPipeline()
	return pipeline.New(cat, classifier, extractor, source, textProcessor, pipeline.Options{
		ConfidenceThreshold: pipelineCfg.ConfidenceThreshold,
		LabelSuffix:         pipelineCfg.LabelSuffix,
		MaxLength:           pipelineCfg.ExtractionMaxLength,
		MaxBodySize:         pipelineCfg.MaxBodySize,
		MaxAttachmentSize:   pipelineCfg.MaxAttachmentSize,
	}, f.logger.Named("pipeline"))
}

// CreateService returns the triage orchestrator
func (f *TriageFactory) CreateService(engine *threads.Engine, p *pipeline.Pipeline) *core.TriageService {
	return core.NewTriageService(engine, p, f.logger)
}
