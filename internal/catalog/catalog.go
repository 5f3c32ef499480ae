// Package catalog holds the read-only taxonomy of service request types, their
// sub-types and the fields to extract for each.
package catalog

import (
	"fmt"
	"strings"
)

// FixedFields are extracted for every request type
var FixedFields = []string{"Loan Account ID", "Request Date"}

// Definition describes one request type or sub-type
type Definition struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	Fields      []string     `yaml:"fields" json:"fields"`
	Optional    []string     `yaml:"optional_fields,omitempty" json:"optionalFields,omitempty"`
	SubTypes    []Definition `yaml:"sub_types,omitempty" json:"subTypes,omitempty"`
}

// AllFields returns the fixed fields followed by the definition's own fields
func (d *Definition) AllFields() []string {
	return dedupe(FixedFields, d.Fields, d.Optional)
}

// SubType finds a sub-type by name
func (d *Definition) SubType(name string) (*Definition, bool) {
	for i := range d.SubTypes {
		if d.SubTypes[i].Name == name {
			return &d.SubTypes[i], true
		}
	}
	return nil, false
}

// SubTypeNames lists the sub-type names in declaration order
func (d *Definition) SubTypeNames() []string {
	names := make([]string, len(d.SubTypes))
	for i, sub := range d.SubTypes {
		names[i] = sub.Name
	}
	return names
}

// Catalog is an ordered set of request type definitions. It is immutable after construction
// and safe for concurrent use.
type Catalog struct {
	definitions []Definition
	index       map[string]int
}

// New builds a catalog, rejecting empty or duplicate names
func New(definitions []Definition) (*Catalog, error) {
	c := &Catalog{
		definitions: make([]Definition, 0, len(definitions)),
		index:       make(map[string]int, len(definitions)),
	}
	for _, def := range definitions {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, fmt.Errorf("request type without a name")
		}
		if _, exists := c.index[name]; exists {
			return nil, fmt.Errorf("duplicate request type %q", name)
		}
		seen := make(map[string]bool, len(def.SubTypes))
		for _, sub := range def.SubTypes {
			if strings.TrimSpace(sub.Name) == "" {
				return nil, fmt.Errorf("request type %q has a sub-type without a name", name)
			}
			if seen[sub.Name] {
				return nil, fmt.Errorf("request type %q has duplicate sub-type %q", name, sub.Name)
			}
			seen[sub.Name] = true
		}
		def.Name = name
		c.index[name] = len(c.definitions)
		c.definitions = append(c.definitions, def)
	}
	return c, nil
}

// Names lists request type names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.definitions))
	for i, def := range c.definitions {
		names[i] = def.Name
	}
	return names
}

// Definitions returns a copy of the definitions in catalog order
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.definitions))
	copy(out, c.definitions)
	return out
}

// Lookup finds a request type by name
func (c *Catalog) Lookup(name string) (*Definition, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return &c.definitions[i], true
}

// Fields returns the ordered, de-duplicated set of fields to extract for a request type
// and optional sub-type. An unknown request type yields nil.
func (c *Catalog) Fields(requestType, subType string) []string {
	def, ok := c.Lookup(requestType)
	if !ok {
		return nil
	}
	if subType == "" {
		return def.AllFields()
	}
	sub, ok := def.SubType(subType)
	if !ok {
		return def.AllFields()
	}
	return dedupe(def.AllFields(), sub.AllFields())
}

func dedupe(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, field := range list {
			if seen[field] {
				continue
			}
			seen[field] = true
			out = append(out, field)
		}
	}
	return out
}
