package factory

import (
	"github.com/mikey/email-triage/internal/adapters/inbound"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/roles"
	"go.uber.org/zap"
)

// InboundFactory creates the surfaces that feed emails into the triage service
type InboundFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	service   *core.TriageService
	roles     *roles.Directory
	repo      core.ThreadRepository
	llm       *LLMFactory
	embedding *EmbeddingFactory
}

// NewInboundFactory creates a new inbound factory. repo and the inference
// factories feed the health endpoint.
func NewInboundFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.TriageService,
	directory *roles.Directory,
	repo core.ThreadRepository,
	llm *LLMFactory,
	embedding *EmbeddingFactory,
) *InboundFactory {
	return &InboundFactory{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		roles:     directory,
		repo:      repo,
		llm:       llm,
		embedding: embedding,
	}
}

// CreateHTTPAPI creates the HTTP API, or nil when it is disabled
func (f *InboundFactory) CreateHTTPAPI() (*inbound.HTTPAPI, error) {
	serverCfg := f.cfg.GetServer()
	if !serverCfg.HTTPEnabled {
		return nil, nil
	}

	scenarios, err := inbound.LoadScenarios(serverCfg.ScenariosPath)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Loaded scenarios",
		zap.String("path", serverCfg.ScenariosPath),
		zap.Strings("scenarios", scenarios.IDs()))

	api := inbound.NewHTTPAPI(f.service, scenarios, f.logger.Named("http"),
		serverCfg.HTTPAddress, serverCfg.MaxMessageBytes)
	return api.WithHealth(f.repo, f.breakers()...), nil
}

// breakers lists the guards created so far; a nil guard must not become a non-nil interface
func (f *InboundFactory) breakers() []inbound.BreakerReporter {
	var out []inbound.BreakerReporter
	if f.llm != nil {
		if g := f.llm.Guard(); g != nil {
			out = append(out, g)
		}
	}
	if f.embedding != nil {
		if g := f.embedding.Guard(); g != nil {
			out = append(out, g)
		}
	}
	return out
}

// CreateSMTPIngest creates the SMTP ingest server, or nil when it is disabled
func (f *InboundFactory) CreateSMTPIngest() *inbound.SMTPIngest {
	serverCfg := f.cfg.GetServer()
	if !serverCfg.SMTPEnabled {
		return nil
	}
	return inbound.NewSMTPIngest(
		f.service,
		f.roles,
		f.logger.Named("smtp"),
		serverCfg.SMTPAddress,
		serverCfg.SMTPDomain,
		serverCfg.MaxMessageBytes,
		0,
	)
}
