// Package threads tracks email threads, finds the single actionable customer
// email of a thread and detects duplicate customer requests.
package threads

import (
	"context"
	"fmt"
	"sync"

	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// Default similarity thresholds
const (
	DefaultFuzzyThreshold    = 0.90
	DefaultSemanticThreshold = 0.85
)

// Options configures duplicate detection
type Options struct {
	FuzzyThreshold    float64
	SemanticThreshold float64
}

// DefaultOptions returns the standard thresholds
func DefaultOptions() Options {
	return Options{
		FuzzyThreshold:    DefaultFuzzyThreshold,
		SemanticThreshold: DefaultSemanticThreshold,
	}
}

// Engine maintains per-thread email history. Calls are serialized per thread key.
type Engine struct {
	repo     core.ThreadRepository
	embedder core.Embedder
	opts     Options
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a thread engine. embedder may be nil, which disables the semantic check.
func NewEngine(repo core.ThreadRepository, embedder core.Embedder, opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		repo:     repo,
		embedder: embedder,
		opts:     opts,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lock(key string) func() {
	e.mu.Lock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Record appends the email to its thread
func (e *Engine) Record(ctx context.Context, email *core.Email) error {
	defer e.lock(email.ThreadKey())()
	return e.record(ctx, email)
}

func (e *Engine) record(ctx context.Context, email *core.Email) error {
	if err := e.repo.Append(ctx, email); err != nil {
		return fmt.Errorf("failed to record email %s: %w", email.ID, err)
	}
	return nil
}

// ActionableEmail returns the newest customer email of the thread that has no
// later support reply, together with every strictly older customer email.
// An unknown thread yields (nil, nil).
func (e *Engine) ActionableEmail(ctx context.Context, threadKey string) (*core.Email, []*core.Email, error) {
	defer e.lock(threadKey)()
	return e.actionable(ctx, threadKey)
}

func (e *Engine) actionable(ctx context.Context, threadKey string) (*core.Email, []*core.Email, error) {
	emails, err := e.repo.Thread(ctx, threadKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load thread %s: %w", threadKey, err)
	}
	actionable, prior := FindActionable(emails)
	return actionable, prior, nil
}

// FindActionable scans a thread from newest to oldest. The first customer email
// found is the candidate; it is actionable only if no support email follows it.
// All older customer emails are returned as the comparison pool.
func FindActionable(emails []*core.Email) (*core.Email, []*core.Email) {
	var candidate *core.Email
	repliedAfter := false
	var prior []*core.Email

	for i := len(emails) - 1; i >= 0; i-- {
		email := emails[i]
		switch {
		case candidate == nil && email.Role == core.RoleSupport:
			repliedAfter = true
		case candidate == nil && email.Role == core.RoleCustomer:
			candidate = email
		case candidate != nil && email.Role == core.RoleCustomer:
			prior = append(prior, email)
		}
	}

	if candidate == nil || repliedAfter {
		return nil, nil
	}
	return candidate, prior
}

// IsDuplicate reports whether body matches any prior email exactly, lexically
// or semantically after normalization. It has no side effects. The semantic
// check embeds the candidate and every prior body in one call; if that call
// fails the email is treated as not a duplicate.
func (e *Engine) IsDuplicate(ctx context.Context, body string, prior []*core.Email) bool {
	if len(prior) == 0 {
		return false
	}

	candidate := Normalize(body)
	texts := make([]string, 0, len(prior)+1)
	texts = append(texts, candidate)

	for _, p := range prior {
		other := Normalize(p.Body)

		if candidate == other {
			e.logger.Debug("Exact duplicate", zap.String("prior_email_id", p.ID))
			return true
		}

		if ratio := FuzzyRatio(candidate, other); ratio > e.opts.FuzzyThreshold {
			e.logger.Debug("Fuzzy duplicate",
				zap.String("prior_email_id", p.ID),
				zap.Float64("ratio", ratio))
			return true
		}
		texts = append(texts, other)
	}

	if e.embedder == nil {
		return false
	}

	vecs, err := e.embedder.Embed(ctx, texts)
	if err != nil || len(vecs) != len(texts) {
		e.logger.Warn("Semantic duplicate check unavailable",
			zap.Int("texts", len(texts)),
			zap.Int("embeddings", len(vecs)),
			zap.Error(err))
		return false
	}

	for i, p := range prior {
		if sim := CosineSimilarity(vecs[0], vecs[i+1]); sim > e.opts.SemanticThreshold {
			e.logger.Debug("Semantic duplicate",
				zap.String("prior_email_id", p.ID),
				zap.Float64("similarity", sim))
			return true
		}
	}
	return false
}

// Evaluate records the email and, for customer emails, determines the thread's
// actionable email and whether it duplicates an older customer request. The
// whole sequence runs under the thread's lock.
func (e *Engine) Evaluate(ctx context.Context, email *core.Email) (core.Decision, error) {
	key := email.ThreadKey()
	defer e.lock(key)()

	if err := e.record(ctx, email); err != nil {
		return core.Decision{}, err
	}

	if email.Role == core.RoleSupport {
		return core.Decision{}, nil
	}

	actionable, prior, err := e.actionable(ctx, key)
	if err != nil {
		return core.Decision{}, err
	}
	if actionable == nil {
		return core.Decision{}, nil
	}

	return core.Decision{
		Actionable: actionable,
		Prior:      prior,
		Duplicate:  e.IsDuplicate(ctx, actionable.Body, prior),
	}, nil
}
