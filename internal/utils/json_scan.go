package utils

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ExtractJSONObject returns the first syntactically valid JSON object embedded
// in free-form text. Each '{' is tried in order with a streaming decoder, so
// prose before the object, trailing fragments and stray braces are tolerated.
func ExtractJSONObject(text string) (map[string]json.RawMessage, bool) {
	for i := 0; i < len(text); i++ {
		j := strings.IndexByte(text[i:], '{')
		if j < 0 {
			return nil, false
		}
		i += j

		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var obj map[string]json.RawMessage
		if err := dec.Decode(&obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

// CompactJSON renders a raw JSON value without insignificant whitespace
func CompactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
