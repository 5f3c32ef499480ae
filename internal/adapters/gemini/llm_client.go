package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const providerName = "gemini"

// GeminiClient completes prompts and embeds texts with Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	embedder      *genai.EmbeddingModel
	modelName     string
	maxTokens     int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	embeddingModel string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	// Create a new Gemini client
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Create a generative model
	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"

	c := &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxTokens:     maxTokens,
		logger:        logger,
		textProcessor: textProcessor,
	}
	if embeddingModel != "" {
		c.embedder = client.EmbeddingModel(embeddingModel)
	}
	return c, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Complete generates an answer for the prompt. maxTokens is advisory here because
// the output limit is fixed on the model at construction.
func (c *GeminiClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(c.textProcessor.SanitizeUTF8(prompt)))
	if err != nil {
		return "", mapError("generate content", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	c.logger.Debug("Gemini completion",
		zap.String("model", c.modelName),
		zap.Int("requested_tokens", maxTokens))

	return b.String(), nil
}

// Embed returns one embedding per text
func (c *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("no Gemini embedding model configured")
	}

	batch := c.embedder.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := c.embedder.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, mapError("embed content", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

func mapError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s %s: %w: %v", providerName, op, core.ErrUnauthorized, err)
		default:
			return &core.InferenceError{Provider: providerName, StatusCode: apiErr.Code, Message: op + ": " + apiErr.Message}
		}
	}
	return fmt.Errorf("%s %s: %w", providerName, op, err)
}
