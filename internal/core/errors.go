package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when an inference backend rejects the credentials. It is never retried.
	ErrUnauthorized = errors.New("inference backend rejected credentials")
	// ErrCircuitOpen is returned while the circuit breaker in front of a backend is open
	ErrCircuitOpen = errors.New("inference backend circuit open")
)

// InferenceError is a non-2xx response from an inference backend
type InferenceError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrUnauthorized for 401 responses
func (e *InferenceError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// IsPermanent reports whether an inference error must not be retried
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrCircuitOpen)
}

// StatusCoder is implemented by SDK errors that expose the HTTP status of the failed call
type StatusCoder interface {
	HTTPStatusCode() int
}

// WrapProviderError maps an SDK error onto the inference error taxonomy
func WrapProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var coder StatusCoder
	if errors.As(err, &coder) && coder.HTTPStatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w: %v", provider, op, ErrUnauthorized, err)
	}
	return fmt.Errorf("%s %s: %w", provider, op, err)
}
