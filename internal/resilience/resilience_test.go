package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialInterval: time.Millisecond, Multiplier: 2}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastPolicy(3), zaptest.NewLogger(t), "test",
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("503")
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(3), zaptest.NewLogger(t), "test",
		func(context.Context) (int, error) {
			calls++
			return 0, errors.New("timeout")
		})

	require.Error(t, err)
	assert.Equal(t, "timeout", err.Error())
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unauthorized", &core.InferenceError{Provider: "huggingface", StatusCode: 401, Message: "bad token"}},
		{"wrapped unauthorized", fmt.Errorf("openai chat: %w", core.ErrUnauthorized)},
		{"circuit open", core.ErrCircuitOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := Retry(context.Background(), fastPolicy(5), zaptest.NewLogger(t), "test",
				func(context.Context) (int, error) {
					calls++
					return 0, tt.err
				})
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, Policy{MaxAttempts: 3, InitialInterval: time.Hour, Multiplier: 2}, zaptest.NewLogger(t), "test",
		func(context.Context) (int, error) {
			calls++
			return 0, errors.New("boom")
		})
	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("test", BreakerSettings{
		Enabled:             true,
		MaxRequests:         1,
		Timeout:             time.Hour,
		ConsecutiveFailures: 2,
	}, zaptest.NewLogger(t))

	fail := func() (int, error) { return 0, errors.New("500") }
	for i := 0; i < 2; i++ {
		_, err := Execute(b, fail)
		require.EqualError(t, err, "500")
	}

	called := false
	_, err := Execute(b, func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, core.ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, "open", b.State())
}

func TestBreakerIgnoresUnauthorized(t *testing.T) {
	b := NewBreaker("test", BreakerSettings{MaxRequests: 1, Timeout: time.Hour, ConsecutiveFailures: 1}, zaptest.NewLogger(t))

	_, err := Execute(b, func() (int, error) { return 0, core.ErrUnauthorized })
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, "closed", b.State())
}

type flakyClassifier struct {
	failures int
	calls    int
}

func (f *flakyClassifier) Classify(context.Context, string, []string, bool) (core.Classification, error) {
	f.calls++
	if f.calls <= f.failures {
		return core.Classification{}, errors.New("connection refused")
	}
	return core.Classification{Labels: []string{"A"}, Scores: []float64{0.9}}, nil
}

func TestClassifierDecorator(t *testing.T) {
	logger := zaptest.NewLogger(t)
	inner := &flakyClassifier{failures: 2}
	guard := NewGuard("hf", fastPolicy(3), NewBreaker("hf", DefaultBreakerSettings(), logger), logger)

	got, err := NewClassifier(inner, guard).Classify(context.Background(), "text", []string{"A"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got.Labels)
	assert.Equal(t, 3, inner.calls)
}

type countingExtractor struct{ calls int }

func (c *countingExtractor) Generate(context.Context, string, int) (string, error) {
	c.calls++
	return "", &core.InferenceError{Provider: "hf", StatusCode: 401, Message: "invalid token"}
}

func TestExtractorDecoratorFailsFastOnAuth(t *testing.T) {
	logger := zaptest.NewLogger(t)
	inner := &countingExtractor{}

	_, err := NewExtractor(inner, NewGuard("hf", fastPolicy(3), nil, logger)).Generate(context.Background(), "p", 10)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, 1, inner.calls)
}

func TestGuardReportsBreakerState(t *testing.T) {
	g := NewGuard("llm.test", DefaultPolicy(), nil, zaptest.NewLogger(t))
	assert.Equal(t, "llm.test", g.Name())
	assert.Equal(t, "disabled", g.BreakerState())

	b := NewBreaker("llm.test", DefaultBreakerSettings(), zaptest.NewLogger(t))
	assert.Equal(t, "closed", NewGuard("llm.test", DefaultPolicy(), b, zaptest.NewLogger(t)).BreakerState())
}
