package resilience

import (
	"context"

	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// Guard applies a breaker and a retry policy to calls against one backend
type Guard struct {
	name    string
	policy  Policy
	breaker *Breaker
	logger  *zap.Logger
}

// NewGuard creates a guard. breaker may be nil.
func NewGuard(name string, policy Policy, breaker *Breaker, logger *zap.Logger) *Guard {
	return &Guard{name: name, policy: policy, breaker: breaker, logger: logger}
}

// Name returns the backend name the guard was created for
func (g *Guard) Name() string {
	return g.name
}

// BreakerState reports the state of the guard's breaker, "disabled" without one
func (g *Guard) BreakerState() string {
	return g.breaker.State()
}

// Do runs one guarded call. Each attempt passes through the breaker so an open
// breaker stops the remaining attempts.
func Do[T any](ctx context.Context, g *Guard, op string, fn func(context.Context) (T, error)) (T, error) {
	return Retry(ctx, g.policy, g.logger, g.name+"."+op, func(ctx context.Context) (T, error) {
		return Execute(g.breaker, func() (T, error) {
			return fn(ctx)
		})
	})
}

// Classifier guards a core.TextClassifier
type Classifier struct {
	next  core.TextClassifier
	guard *Guard
}

// NewClassifier wraps a classifier
func NewClassifier(next core.TextClassifier, guard *Guard) *Classifier {
	return &Classifier{next: next, guard: guard}
}

func (c *Classifier) Classify(ctx context.Context, text string, labels []string, multiLabel bool) (core.Classification, error) {
	return Do(ctx, c.guard, "classify", func(ctx context.Context) (core.Classification, error) {
		return c.next.Classify(ctx, text, labels, multiLabel)
	})
}

// Extractor guards a core.FieldExtractor
type Extractor struct {
	next  core.FieldExtractor
	guard *Guard
}

// NewExtractor wraps an extractor
func NewExtractor(next core.FieldExtractor, guard *Guard) *Extractor {
	return &Extractor{next: next, guard: guard}
}

func (e *Extractor) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	return Do(ctx, e.guard, "generate", func(ctx context.Context) (string, error) {
		return e.next.Generate(ctx, prompt, maxLength)
	})
}

// Embedder guards a core.Embedder
type Embedder struct {
	next  core.Embedder
	guard *Guard
}

// NewEmbedder wraps an embedder
func NewEmbedder(next core.Embedder, guard *Guard) *Embedder {
	return &Embedder{next: next, guard: guard}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return Do(ctx, e.guard, "embed", func(ctx context.Context) ([][]float32, error) {
		return e.next.Embed(ctx, texts)
	})
}
