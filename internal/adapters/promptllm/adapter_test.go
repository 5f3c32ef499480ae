package promptllm

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/email-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scriptedModel struct {
	answer    string
	err       error
	prompts   []string
	maxTokens []int
}

func (m *scriptedModel) Complete(_ context.Context, prompt string, maxTokens int) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.maxTokens = append(m.maxTokens, maxTokens)
	return m.answer, m.err
}

func TestClassify(t *testing.T) {
	model := &scriptedModel{answer: "Here is my answer:\n" +
		`{"labels": ["adjustment request", "Invented Request", "Fee Payment Request"], "scores": [0.4, 0.99, 0.8]}`}
	a := NewAdapter(model, 0, zaptest.NewLogger(t))

	got, err := a.Classify(context.Background(), "Subject: fee", []string{"Adjustment Request", "Fee Payment Request"}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"Fee Payment Request", "Adjustment Request"}, got.Labels)
	assert.Equal(t, []float64{0.8, 0.4}, got.Scores)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "- Adjustment Request\n- Fee Payment Request")
	assert.Contains(t, model.prompts[0], "Several labels may apply")
	assert.Equal(t, 500, model.maxTokens[0])
}

func TestClassifyUnparseableAnswerIsEmpty(t *testing.T) {
	for _, answer := range []string{"I cannot help with that", `{"labels": "A"}`, `{"scores": [1]}`} {
		a := NewAdapter(&scriptedModel{answer: answer}, 100, zaptest.NewLogger(t))
		got, err := a.Classify(context.Background(), "x", []string{"A"}, false)
		require.NoError(t, err, answer)
		assert.Equal(t, 0, got.Len(), answer)
	}
}

func TestClassifyPropagatesHardErrors(t *testing.T) {
	a := NewAdapter(&scriptedModel{err: core.ErrUnauthorized}, 100, zaptest.NewLogger(t))
	_, err := a.Classify(context.Background(), "x", []string{"A"}, true)
	assert.True(t, errors.Is(err, core.ErrUnauthorized))
}

func TestGeneratePassesThrough(t *testing.T) {
	model := &scriptedModel{answer: `{"A": "1"}`}
	a := NewAdapter(model, 100, zaptest.NewLogger(t))

	got, err := a.Generate(context.Background(), "prompt", 200)
	require.NoError(t, err)
	assert.Equal(t, `{"A": "1"}`, got)
	assert.Equal(t, []int{200}, model.maxTokens)
}
