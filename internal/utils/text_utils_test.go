package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Please   adjust\n\tmy loan. ", "Please adjust my loan."},
		{"html", "<p>Hello <b>team</b>,</p><p>pay the fee!</p>", "Hello team, pay the fee!"},
		{"entities", "Fees &amp; charges", "Fees charges"},
		{"script dropped", "<script>alert(1)</script>Body", "Body"},
		{"special characters", "Amount: $5,000 (USD) #42", "Amount 5,000 USD 42"},
		{"keeps punctuation", "Is it due? Yes - today.", "Is it due? Yes - today."},
		{"unicode letters", "Café déjà vu", "Café déjà vu"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "jane@example.com", ExtractAddress("Jane Doe <jane@example.com>"))
	assert.Equal(t, "jane@example.com", ExtractAddress("jane@example.com"))
	assert.Equal(t, "not an address", ExtractAddress("  not an address "))
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		ok     bool
		fields []string
	}{
		{"bare object", `{"a": "1"}`, true, []string{"a"}},
		{"prose around", "Sure! Here it is:\n{\"a\": \"1\", \"b\": null}\nHope this helps.", true, []string{"a", "b"}},
		{"first valid wins", `{"a": "1"} and also {"b": "2"}`, true, []string{"a"}},
		{"skips broken prefix", `{broken {"b": "2"}`, true, []string{"b"}},
		{"nested braces", `{"a": {"x": 1}}`, true, []string{"a"}},
		{"truncated", `{"a": "1", "b": `, false, nil},
		{"no braces", "nothing to see", false, nil},
		{"array is not an object", `[{"a": 1}]`, true, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := ExtractJSONObject(tt.in)
			require.Equal(t, tt.ok, ok)
			for _, f := range tt.fields {
				assert.Contains(t, obj, f)
			}
			assert.Len(t, obj, len(tt.fields))
		})
	}
}

func TestCompactJSON(t *testing.T) {
	assert.Equal(t, `{"x":1}`, CompactJSON([]byte("{ \"x\" : 1 }")))
	assert.Equal(t, "42", CompactJSON([]byte("42")))
}

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "short", tp.TruncateText("short", 0))

	out := tp.TruncateText(strings.Repeat("é", 10), 5)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "éé"))
	assert.Contains(t, out, "truncated")
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
	assert.Equal(t, "ok", tp.SanitizeUTF8("ok"))
}
