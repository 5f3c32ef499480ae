package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings configures a circuit breaker
type BreakerSettings struct {
	Enabled             bool
	MaxRequests         uint32        // allowed through while half-open
	Interval            time.Duration // closed-state counts are cleared this often
	Timeout             time.Duration // time spent open before probing again
	ConsecutiveFailures uint32        // failures in a row that trip the breaker
}

// DefaultBreakerSettings returns the standard breaker configuration
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Enabled:             true,
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker stops calling a backend that keeps failing
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreaker creates a named circuit breaker
func NewBreaker(name string, settings BreakerSettings, logger *zap.Logger) *Breaker {
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerSettings().ConsecutiveFailures
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// credential and cancellation errors say nothing about backend health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, core.ErrUnauthorized) ||
				errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{cb: cb, logger: logger}
}

// Execute runs fn through the breaker. An open breaker yields core.ErrCircuitOpen.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}

	result, err := b.cb.Execute(func() (interface{}, error) {
		v, err := fn()
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, core.ErrCircuitOpen
	}
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}

// State reports the breaker state: closed, half-open or open
func (b *Breaker) State() string {
	if b == nil {
		return "disabled"
	}
	return b.cb.State().String()
}
