package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	rows := []RequestResult{{
		RequestType:    "Money Movement-Inbound",
		SubRequestType: "Principal",
		Fields:         Fields{{Name: "amount", Value: Provided("$10,000")}},
		Confidence:     0.91,
	}}

	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{"processed", Processed{Requests: rows},
			`{"status":"processed","responses":[{"requestType":"Money Movement-Inbound","subRequestType":"Principal","extractedFields":{"amount":"$10,000"},"confidenceScore":0.91}]}`},
		{"processed without rows", Processed{}, `{"status":"processed","responses":[]}`},
		{"skipped", Skipped{Reason: ReasonDuplicate},
			`{"status":"skipped","reasonForNotProcessing":"duplicate customer request","responses":[]}`},
		{"unclassified", Unclassified{Reason: ReasonUnclassified},
			`{"status":"unclassified","reasonForNotProcessing":"no valid classification found","responses":[]}`},
		{"failed falls back to error text", Failed{Err: errors.New("HTTP 503")},
			`{"status":"failed","reasonForNotProcessing":"HTTP 503","responses":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(Envelope(tt.outcome))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestFieldsJSON(t *testing.T) {
	fields := Fields{
		{Name: "zeta", Value: Provided("last letter")},
		{Name: "deal_name", Value: NotApplicable()},
		{Name: "amount", Value: NotProvided()},
	}

	data, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"last letter","deal_name":null,"amount":"Not Provided"}`, string(data))

	var decoded Fields
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, fields, decoded)
	assert.Equal(t, []string{"zeta", "deal_name", "amount"}, decoded.Names())

	v, ok := decoded.Get("deal_name")
	require.True(t, ok)
	assert.Equal(t, "N/A", v.String())
	_, ok = decoded.Get("missing")
	assert.False(t, ok)

	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &decoded))
}

func TestEmptyFieldsEncodeAsObject(t *testing.T) {
	data, err := json.Marshal(Fields{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestThreadKey(t *testing.T) {
	assert.Equal(t, "T1", (&Email{ThreadID: " T1 ", Sender: "a@b.c"}).ThreadKey())
	assert.Equal(t, "someone@example.com", (&Email{Sender: " Someone@Example.com"}).ThreadKey())
}

func TestSenderRoleValid(t *testing.T) {
	assert.True(t, RoleCustomer.Valid())
	assert.True(t, RoleSupport.Valid())
	assert.False(t, SenderRole("agent").Valid())
}

func TestClassificationLen(t *testing.T) {
	assert.Equal(t, 1, Classification{Labels: []string{"a", "b"}, Scores: []float64{0.5}}.Len())
	assert.Equal(t, 0, Classification{}.Len())
}

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestInferenceErrors(t *testing.T) {
	unauthorized := &InferenceError{Provider: "huggingface", StatusCode: 401, Message: "bad token"}
	assert.ErrorIs(t, unauthorized, ErrUnauthorized)
	assert.True(t, IsPermanent(fmt.Errorf("classify: %w", unauthorized)))

	unavailable := &InferenceError{Provider: "huggingface", StatusCode: 503, Message: "loading"}
	assert.NotErrorIs(t, unavailable, ErrUnauthorized)
	assert.False(t, IsPermanent(unavailable))
	assert.Equal(t, "huggingface: HTTP 503: loading", unavailable.Error())

	assert.True(t, IsPermanent(ErrCircuitOpen))

	assert.NoError(t, WrapProviderError("openai", "embed", nil))
	assert.ErrorIs(t, WrapProviderError("openai", "embed", statusErr(401)), ErrUnauthorized)
	wrapped := WrapProviderError("openai", "embed", statusErr(500))
	assert.False(t, IsPermanent(wrapped))
	var coder StatusCoder
	assert.True(t, errors.As(wrapped, &coder))
}
