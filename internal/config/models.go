package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// LLMConfig represents the configuration for the classification and extraction provider
type LLMConfig struct {
	Provider string `validate:"oneof=huggingface openai gemini bedrock"`
}

// EmbeddingConfig selects the embedding backend used for semantic duplicate detection
type EmbeddingConfig struct {
	Provider string `validate:"oneof=huggingface openai gemini bedrock none"`
}

// HuggingFaceConfig represents the configuration for the HuggingFace inference API
type HuggingFaceConfig struct {
	APIKey          string
	BaseURL         string `validate:"required,url"`
	ClassifierModel string `validate:"required"`
	GeneratorModel  string `validate:"required"`
	EmbeddingModel  string
	Temperature     float32
	Timeout         time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region           string
	ModelID          string
	EmbeddingModelID string
	MaxTokens        int
	Temperature      float32
	TopP             float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey         string
	ModelName      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	ModelName      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
}

// PipelineConfig controls classification gating and extraction
type PipelineConfig struct {
	ConfidenceThreshold float64 `validate:"gte=0,lte=1"`
	ExtractionMaxLength int     `validate:"gte=1"`
	LabelSuffix         string
	MaxBodySize         int `validate:"gte=0"`
	MaxAttachmentSize   int `validate:"gte=0"`
}

// DedupConfig holds the duplicate detection thresholds
type DedupConfig struct {
	FuzzyThreshold    float64 `validate:"gte=0,lte=1"`
	SemanticThreshold float64 `validate:"gte=0,lte=1"`
}

// RetryConfig is the retry policy for inference calls
type RetryConfig struct {
	MaxAttempts     int           `validate:"gte=1"`
	InitialInterval time.Duration `validate:"gte=0"`
	Multiplier      float64       `validate:"gte=1"`
}

// BreakerConfig configures the circuit breakers in front of inference backends
type BreakerConfig struct {
	Enabled             bool
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32 `validate:"gte=1"`
}

// ThreadsConfig selects and configures the thread store
type ThreadsConfig struct {
	Store       string `validate:"oneof=memory sqlite mysql redis"`
	SQLitePath  string
	MySQLDSN    string
	RedisURL    string
	RedisPrefix string
}

// CatalogConfig points at an optional catalog file
type CatalogConfig struct {
	Path string
}

// AttachmentsConfig configures attachment text extraction
type AttachmentsConfig struct {
	Enabled bool
	Folder  string
}

// RolesConfig lists the senders treated as support staff
type RolesConfig struct {
	SupportDomains   []string
	SupportAddresses []string
}

// ServerConfig configures the inbound surfaces
type ServerConfig struct {
	HTTPEnabled     bool
	HTTPAddress     string
	SMTPEnabled     bool
	SMTPAddress     string
	SMTPDomain      string
	MaxMessageBytes int64
	ScenariosPath   string
	ShutdownTimeout time.Duration
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetEmbedding returns the embedding configuration
func (c *Config) GetEmbedding() EmbeddingConfig {
	return EmbeddingConfig{
		Provider: c.GetString("embedding.provider"),
	}
}

// GetHuggingFace returns the HuggingFace configuration
func (c *Config) GetHuggingFace() HuggingFaceConfig {
	return HuggingFaceConfig{
		APIKey:          c.GetString("huggingface.api_key"),
		BaseURL:         c.GetString("huggingface.base_url"),
		ClassifierModel: c.GetString("huggingface.classifier_model"),
		GeneratorModel:  c.GetString("huggingface.generator_model"),
		EmbeddingModel:  c.GetString("huggingface.embedding_model"),
		Temperature:     float32(c.GetFloat64("huggingface.temperature")),
		Timeout:         c.GetDuration("huggingface.timeout"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:           c.GetString("bedrock.region"),
		ModelID:          c.GetString("bedrock.model_id"),
		EmbeddingModelID: c.GetString("bedrock.embedding_model_id"),
		MaxTokens:        c.GetInt("bedrock.max_tokens"),
		Temperature:      float32(c.GetFloat64("bedrock.temperature")),
		TopP:             float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:         c.GetString("gemini.api_key"),
		ModelName:      c.GetString("gemini.model_name"),
		EmbeddingModel: c.GetString("gemini.embedding_model"),
		MaxTokens:      c.GetInt("gemini.max_tokens"),
		Temperature:    float32(c.GetFloat64("gemini.temperature")),
		TopP:           float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         c.GetString("openai.api_key"),
		BaseURL:        c.GetString("openai.base_url"),
		ModelName:      c.GetString("openai.model_name"),
		EmbeddingModel: c.GetString("openai.embedding_model"),
		MaxTokens:      c.GetInt("openai.max_tokens"),
		Temperature:    float32(c.GetFloat64("openai.temperature")),
		TopP:           float32(c.GetFloat64("openai.top_p")),
	}
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		ConfidenceThreshold: c.GetFloat64("pipeline.confidence_threshold"),
		ExtractionMaxLength: c.GetInt("pipeline.extraction_max_length"),
		LabelSuffix:         c.GetString("pipeline.label_suffix"),
		MaxBodySize:         c.GetInt("pipeline.max_body_size"),
		MaxAttachmentSize:   c.GetInt("pipeline.max_attachment_size"),
	}
}

// GetDedup returns the duplicate detection configuration
func (c *Config) GetDedup() DedupConfig {
	return DedupConfig{
		FuzzyThreshold:    c.GetFloat64("dedup.fuzzy_threshold"),
		SemanticThreshold: c.GetFloat64("dedup.semantic_threshold"),
	}
}

// GetRetry returns the retry policy
func (c *Config) GetRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:     c.GetInt("retry.max_attempts"),
		InitialInterval: c.GetDuration("retry.initial_interval"),
		Multiplier:      c.GetFloat64("retry.multiplier"),
	}
}

// GetBreaker returns the circuit breaker configuration
func (c *Config) GetBreaker() BreakerConfig {
	return BreakerConfig{
		Enabled:             c.GetBool("breaker.enabled"),
		MaxRequests:         uint32(c.GetInt("breaker.max_requests")),
		Interval:            c.GetDuration("breaker.interval"),
		Timeout:             c.GetDuration("breaker.timeout"),
		ConsecutiveFailures: uint32(c.GetInt("breaker.consecutive_failures")),
	}
}

// GetThreads returns the thread store configuration
func (c *Config) GetThreads() ThreadsConfig {
	return ThreadsConfig{
		Store:       c.GetString("threads.store"),
		SQLitePath:  c.GetString("threads.sqlite_path"),
		MySQLDSN:    c.GetString("threads.mysql_dsn"),
		RedisURL:    c.GetString("threads.redis_url"),
		RedisPrefix: c.GetString("threads.redis_prefix"),
	}
}

// GetCatalog returns the catalog configuration
func (c *Config) GetCatalog() CatalogConfig {
	return CatalogConfig{
		Path: c.GetString("catalog.path"),
	}
}

// GetAttachments returns the attachment configuration
func (c *Config) GetAttachments() AttachmentsConfig {
	return AttachmentsConfig{
		Enabled: c.GetBool("attachments.enabled"),
		Folder:  c.GetString("attachments.folder"),
	}
}

// GetRoles returns the sender role configuration
func (c *Config) GetRoles() RolesConfig {
	return RolesConfig{
		SupportDomains:   c.GetStringSlice("roles.support_domains"),
		SupportAddresses: c.GetStringSlice("roles.support_addresses"),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		HTTPEnabled:     c.GetBool("server.http.enabled"),
		HTTPAddress:     c.GetString("server.http.listen_address"),
		SMTPEnabled:     c.GetBool("server.smtp.enabled"),
		SMTPAddress:     c.GetString("server.smtp.listen_address"),
		SMTPDomain:      c.GetString("server.smtp.domain"),
		MaxMessageBytes: c.v.GetInt64("server.smtp.max_message_bytes"),
		ScenariosPath:   c.GetString("server.scenarios_path"),
		ShutdownTimeout: c.GetDuration("server.shutdown_timeout"),
	}
}

// Validate checks the configuration sections that have range constraints
func (c *Config) Validate() error {
	validate := validator.New()

	sections := []struct {
		name  string
		value interface{}
	}{
		{"llm", c.GetLLM()},
		{"embedding", c.GetEmbedding()},
		{"pipeline", c.GetPipeline()},
		{"dedup", c.GetDedup()},
		{"retry", c.GetRetry()},
		{"breaker", c.GetBreaker()},
		{"threads", c.GetThreads()},
	}
	if c.GetLLM().Provider == "huggingface" {
		sections = append(sections, struct {
			name  string
			value interface{}
		}{"huggingface", c.GetHuggingFace()})
	}

	for _, section := range sections {
		if err := validate.Struct(section.value); err != nil {
			return fmt.Errorf("invalid %s configuration: %w", section.name, err)
		}
	}
	return nil
}
