package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mikey/email-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "hf_test", Models{
		Classifier: "facebook/bart-large-mnli",
		Generator:  "mistralai/Mistral-7B-Instruct-v0.1",
		Embedding:  "sentence-transformers/all-MiniLM-L6-v2",
	}, 0.2, 0, zaptest.NewLogger(t))
}

func TestClassify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/facebook/bart-large-mnli", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		var req zeroShotRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Adjustment Request", "Fee Payment Request"}, req.Parameters.CandidateLabels)
		assert.True(t, req.Parameters.MultiLabel)

		// deliberately unsorted
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sequence": req.Inputs,
			"labels":   []string{"Adjustment Request", "Fee Payment Request"},
			"scores":   []float64{0.2, 0.9},
		})
	})

	got, err := client.Classify(context.Background(), "Subject: fees", []string{"Adjustment Request", "Fee Payment Request"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fee Payment Request", "Adjustment Request"}, got.Labels)
	assert.Equal(t, []float64{0.9, 0.2}, got.Scores)
}

func TestClassifyListShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":"B","score":0.3},{"label":"A","score":0.6}]`))
	})

	got, err := client.Classify(context.Background(), "x", []string{"A", "B"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Labels)
}

func TestClassifyMalformedIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"warnings": ["model loading"]}`))
	})

	got, err := client.Classify(context.Background(), "x", []string{"A"}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestErrorsMapToTaxonomy(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		unauthorized bool
	}{
		{"unauthorized", http.StatusUnauthorized, true},
		{"unavailable", http.StatusServiceUnavailable, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": "nope"}`))
			})

			_, err := client.Classify(context.Background(), "x", []string{"A"}, true)
			require.Error(t, err)

			var inf *core.InferenceError
			require.True(t, errors.As(err, &inf))
			assert.Equal(t, tt.status, inf.StatusCode)
			assert.Equal(t, "nope", inf.Message)
			assert.Equal(t, tt.unauthorized, errors.Is(err, core.ErrUnauthorized))
		})
	}
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mistralai/Mistral-7B-Instruct-v0.1", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 200, req.Parameters.MaxNewTokens)
		assert.False(t, req.Parameters.ReturnFullText)

		w.Write([]byte(`[{"generated_text": "{\"Payment Date\": \"2025-04-01\"}"}]`))
	})

	got, err := client.Generate(context.Background(), "Extract", 200)
	require.NoError(t, err)
	assert.Equal(t, `{"Payment Date": "2025-04-01"}`, got)
}

func TestEmbed(t *testing.T) {
	t.Run("sentence level", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[[1, 0], [0, 1]]`))
		})
		got, err := client.Embed(context.Background(), []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
	})

	t.Run("token level is mean pooled", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[[[1, 2], [3, 4]]]`))
		})
		got, err := client.Embed(context.Background(), []string{"a"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{2, 3}}, got)
	})

	t.Run("count mismatch", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[[1, 0]]`))
		})
		_, err := client.Embed(context.Background(), []string{"a", "b"})
		assert.Error(t, err)
	})
}
