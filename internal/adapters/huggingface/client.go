// Package huggingface talks to the HuggingFace hosted inference API for
// zero-shot classification, text generation and feature extraction.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

const providerName = "huggingface"

// Models names the hosted models used for each task
type Models struct {
	Classifier string
	Generator  string
	Embedding  string
}

// Client implements core.TextClassifier, core.FieldExtractor and core.Embedder
type Client struct {
	baseURL     string
	apiKey      string
	models      Models
	temperature float32
	http        *http.Client
	logger      *zap.Logger
}

// NewClient creates a HuggingFace inference client. baseURL is the models endpoint,
// e.g. https://api-inference.huggingface.co/models/
func NewClient(baseURL, apiKey string, models Models, temperature float32, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/") + "/",
		apiKey:      apiKey,
		models:      models,
		temperature: temperature,
		http:        &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify runs zero-shot classification. Output that cannot be decoded yields an
// empty classification rather than an error.
func (c *Client) Classify(ctx context.Context, text string, labels []string, multiLabel bool) (core.Classification, error) {
	body, err := c.post(ctx, c.models.Classifier, zeroShotRequest{
		Inputs: text,
		Parameters: zeroShotParameters{
			CandidateLabels: labels,
			MultiLabel:      multiLabel,
		},
	})
	if err != nil {
		return core.Classification{}, err
	}

	pairs, ok := decodeLabelScores(body)
	if !ok {
		c.logger.Warn("Unrecognized zero-shot response",
			zap.String("model", c.models.Classifier),
			zap.Int("size", len(body)))
		return core.Classification{}, nil
	}

	// keep label/score pairing while ordering by score descending
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })

	result := core.Classification{
		Labels: make([]string, len(pairs)),
		Scores: make([]float64, len(pairs)),
	}
	for i, p := range pairs {
		result.Labels[i] = p.Label
		result.Scores[i] = p.Score
	}
	return result, nil
}

// decodeLabelScores accepts both the {labels, scores} and the [{label, score}] shapes
func decodeLabelScores(body []byte) ([]labelScore, bool) {
	var obj zeroShotResponse
	if err := json.Unmarshal(body, &obj); err == nil && len(obj.Labels) > 0 {
		n := len(obj.Labels)
		if len(obj.Scores) < n {
			n = len(obj.Scores)
		}
		pairs := make([]labelScore, n)
		for i := 0; i < n; i++ {
			pairs[i] = labelScore{Label: obj.Labels[i], Score: obj.Scores[i]}
		}
		return pairs, n > 0
	}

	var list []labelScore
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return list, true
	}
	return nil, false
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float32 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

// Generate runs text generation and returns the generated text
func (c *Client) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	body, err := c.post(ctx, c.models.Generator, generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			MaxNewTokens:   maxLength,
			Temperature:    c.temperature,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &out); err == nil {
		if len(out) == 0 {
			return "", nil
		}
		return out[0].GeneratedText, nil
	}

	var single struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(body, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}

	// the caller scans free text for JSON, so pass the raw body through
	return string(body), nil
}

type featureRequest struct {
	Inputs []string `json:"inputs"`
}

// Embed runs feature extraction. Token-level outputs are mean-pooled.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.models.Embedding == "" {
		return nil, fmt.Errorf("no embedding model configured")
	}

	body, err := c.post(ctx, c.models.Embedding, featureRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}

	var sentence [][]float32
	if err := json.Unmarshal(body, &sentence); err == nil {
		if len(sentence) != len(texts) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(sentence))
		}
		return sentence, nil
	}

	var tokens [][][]float32
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("parsing feature extraction response: %w", err)
	}
	if len(tokens) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(tokens))
	}
	out := make([][]float32, len(tokens))
	for i, t := range tokens {
		out[i] = meanPool(t)
	}
	return out, nil
}

func meanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]float32, len(tokens[0]))
	for _, tok := range tokens {
		for j := range out {
			if j < len(tok) {
				out[j] += tok[j]
			}
		}
	}
	for j := range out {
		out[j] /= float32(len(tokens))
	}
	return out
}

// post sends one inference request and returns the 2xx response body
func (c *Client) post(ctx context.Context, model string, payload interface{}) ([]byte, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+model, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("Inference call completed",
		zap.String("model", model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.InferenceError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
