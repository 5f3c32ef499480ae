// Package promptllm turns a chat or completion model into a zero-shot
// classifier and a field extractor by prompting for JSON.
package promptllm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// Completer is a text-in, text-out language model
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Adapter implements core.TextClassifier and core.FieldExtractor over a Completer
type Adapter struct {
	model           Completer
	classifyTokens  int
	logger          *zap.Logger
	promptFormat    string
	multiLabelHint  string
	singleLabelHint string
}

// NewAdapter wraps a completer. classifyTokens bounds the classification answer.
func NewAdapter(model Completer, classifyTokens int, logger *zap.Logger) *Adapter {
	if classifyTokens <= 0 {
		classifyTokens = 500
	}
	return &Adapter{
		model:          model,
		classifyTokens: classifyTokens,
		logger:         logger,
		promptFormat: `You are a classification system for customer service emails of a loan servicing team.
Score how well the text below matches each candidate label.
%s
Respond with a JSON object containing:
- labels: array of the candidate labels, ordered from best to worst match
- scores: array of numbers between 0 and 1, one per label in the same order

Candidate labels:
%s

Text:
%s

Respond only with the JSON object and nothing else.`,
		multiLabelHint:  "Several labels may apply; score each label independently.",
		singleLabelHint: "Exactly one label applies; the scores must sum to 1.",
	}
}

type classificationAnswer struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Classify asks the model to score the candidate labels. Answers that cannot be
// parsed, or that name no candidate label, yield an empty classification.
func (a *Adapter) Classify(ctx context.Context, text string, labels []string, multiLabel bool) (core.Classification, error) {
	hint := a.singleLabelHint
	if multiLabel {
		hint = a.multiLabelHint
	}
	prompt := fmt.Sprintf(a.promptFormat, hint, "- "+strings.Join(labels, "\n- "), text)

	output, err := a.model.Complete(ctx, prompt, a.classifyTokens)
	if err != nil {
		return core.Classification{}, err
	}

	answer, ok := parseAnswer(output)
	if !ok {
		a.logger.Warn("Classification answer was not valid JSON", zap.Int("size", len(output)))
		return core.Classification{}, nil
	}
	return filterToCandidates(answer, labels), nil
}

// Generate returns the model's raw answer to an extraction prompt
func (a *Adapter) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	return a.model.Complete(ctx, prompt, maxLength)
}

func parseAnswer(output string) (classificationAnswer, bool) {
	obj, ok := utils.ExtractJSONObject(output)
	if !ok {
		return classificationAnswer{}, false
	}

	var answer classificationAnswer
	if raw, present := obj["labels"]; present {
		if err := json.Unmarshal(raw, &answer.Labels); err != nil {
			return classificationAnswer{}, false
		}
	}
	if raw, present := obj["scores"]; present {
		if err := json.Unmarshal(raw, &answer.Scores); err != nil {
			return classificationAnswer{}, false
		}
	}
	return answer, len(answer.Labels) > 0
}

// filterToCandidates drops invented labels, restores canonical spelling and sorts by score
func filterToCandidates(answer classificationAnswer, candidates []string) core.Classification {
	canonical := make(map[string]string, len(candidates))
	for _, c := range candidates {
		canonical[strings.ToLower(strings.TrimSpace(c))] = c
	}

	type pair struct {
		label string
		score float64
	}
	var pairs []pair
	seen := make(map[string]bool)
	n := len(answer.Labels)
	if len(answer.Scores) < n {
		n = len(answer.Scores)
	}
	for i := 0; i < n; i++ {
		label, ok := canonical[strings.ToLower(strings.TrimSpace(answer.Labels[i]))]
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		score := answer.Scores[i]
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		pairs = append(pairs, pair{label, score})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	out := core.Classification{
		Labels: make([]string, len(pairs)),
		Scores: make([]float64, len(pairs)),
	}
	for i, p := range pairs {
		out.Labels[i] = p.label
		out.Scores[i] = p.score
	}
	return out
}
