package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NotProvidedMarker is the serialized value of a field that was expected but not found
const NotProvidedMarker = "Not Provided"

// FieldState distinguishes extracted values from the two kinds of missing value
type FieldState int

const (
	// FieldNotProvided means the field was requested but the model output did not contain it
	FieldNotProvided FieldState = iota
	// FieldNotApplicable means the model explicitly answered N/A
	FieldNotApplicable
	// FieldProvided means the model returned a value
	FieldProvided
)

// FieldValue is the value of one extracted field
type FieldValue struct {
	State FieldState
	Value string
}

// Provided returns a FieldValue holding an extracted value
func Provided(v string) FieldValue {
	return FieldValue{State: FieldProvided, Value: v}
}

// NotApplicable returns the explicit "none" value
func NotApplicable() FieldValue {
	return FieldValue{State: FieldNotApplicable}
}

// NotProvided returns the "Not Provided" sentinel
func NotProvided() FieldValue {
	return FieldValue{State: FieldNotProvided}
}

// String renders the value the way it is shown to operators
func (v FieldValue) String() string {
	switch v.State {
	case FieldProvided:
		return v.Value
	case FieldNotApplicable:
		return "N/A"
	default:
		return NotProvidedMarker
	}
}

// MarshalJSON encodes provided values as strings, N/A as null and the sentinel as "Not Provided"
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.State {
	case FieldProvided:
		return json.Marshal(v.Value)
	case FieldNotApplicable:
		return []byte("null"), nil
	default:
		return json.Marshal(NotProvidedMarker)
	}
}

// UnmarshalJSON is the inverse of MarshalJSON
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = NotApplicable()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("field value must be a string or null: %w", err)
	}
	if s == NotProvidedMarker {
		*v = NotProvided()
		return nil
	}
	*v = Provided(s)
	return nil
}

// Field is a named field value
type Field struct {
	Name  string
	Value FieldValue
}

// Fields is an ordered field name to value mapping
type Fields []Field

// Get returns the value of the named field
func (f Fields) Get(name string) (FieldValue, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return FieldValue{}, false
}

// Names returns the field names in order
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// MarshalJSON encodes the fields as a JSON object preserving order
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}
		val, err := field.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields must be a JSON object")
	}

	var out Fields
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected field key %v", tok)
		}
		var value FieldValue
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		out = append(out, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}
