package core

import (
	"context"
)

// TextClassifier scores candidate labels against a text
type TextClassifier interface {
	// Classify returns the labels ordered by score descending. A hard failure
	// (transport, credentials) is returned as an error; unusable model output is
	// returned as an empty Classification.
	Classify(ctx context.Context, text string, labels []string, multiLabel bool) (Classification, error)
}

// FieldExtractor generates free-form text expected to contain one JSON object
type FieldExtractor interface {
	Generate(ctx context.Context, prompt string, maxLength int) (string, error)
}

// Embedder turns texts into embedding vectors
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ThreadRepository stores thread histories in arrival order
type ThreadRepository interface {
	// Append adds an email to the end of its thread
	Append(ctx context.Context, email *Email) error

	// Thread returns the emails of a thread, oldest first. Unknown threads yield an empty slice.
	Thread(ctx context.Context, key string) ([]*Email, error)

	// Threads lists known thread keys
	Threads(ctx context.Context) ([]string, error)
}

// AttachmentSource resolves attachment identifiers to extracted text
type AttachmentSource interface {
	Texts(ctx context.Context, ids []string) []string
}

// ThreadTracker decides whether the current state of a thread needs processing
type ThreadTracker interface {
	Evaluate(ctx context.Context, email *Email) (Decision, error)
}

// RequestProcessor classifies an actionable email and extracts its fields
type RequestProcessor interface {
	Process(ctx context.Context, email *Email) Outcome
}

// Decision is the thread engine's verdict for a newly recorded email
type Decision struct {
	Actionable *Email
	Prior      []*Email
	Duplicate  bool
}
