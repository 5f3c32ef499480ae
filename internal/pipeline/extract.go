package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
)

const notApplicable = "N/A"

// ExtractionPrompt asks the extractor for a single JSON object holding the named fields
func ExtractionPrompt(fields []string, subject, body, attachments string) string {
	var b strings.Builder
	b.WriteString("Extract the following fields from this customer email:\n")
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Subject: %s\n\n", subject)
	fmt.Fprintf(&b, "Body:\n%s\n\n", body)
	if attachments != "" {
		fmt.Fprintf(&b, "Attachments:\n%s\n\n", attachments)
	}
	fmt.Fprintf(&b, "Use the exact field names as keys and %q for fields that do not apply.\n", notApplicable)
	b.WriteString("Return only a valid JSON object with no extra text.")
	return b.String()
}

// ParseFields maps the extractor's output onto the requested fields. Output without a
// JSON object marks every field not provided; it never fails.
func ParseFields(output string, names []string) core.Fields {
	fields := make(core.Fields, 0, len(names))
	obj, ok := utils.ExtractJSONObject(output)

	for _, name := range names {
		value := core.NotProvided()
		if ok {
			if raw, present := obj[name]; present {
				value = fieldValue(raw)
			}
		}
		fields = append(fields, core.Field{Name: name, Value: value})
	}
	return fields
}

func fieldValue(raw json.RawMessage) core.FieldValue {
	if string(raw) == "null" {
		return core.NotApplicable()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// numbers, booleans and nested values are kept as compact JSON text
		return core.Provided(utils.CompactJSON(raw))
	}

	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, notApplicable):
		return core.NotApplicable()
	case s == core.NotProvidedMarker:
		return core.NotProvided()
	}
	return core.Provided(s)
}
