package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SchemaType is the JSON type of a schema node
type SchemaType string

const (
	TypeString SchemaType = "string"
	TypeObject SchemaType = "object"
	TypeArray  SchemaType = "array"
)

// Schema is the provider-neutral subset of JSON schema used to constrain
// structured responses. Each provider translates it to its own form.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// JSON returns the schema as standard JSON schema text
func (s *Schema) JSON() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Schema only holds strings, maps and slices
		return "{}"
	}
	return string(data)
}

// Map returns the schema as a generic JSON object, as expected by APIs
// that take the raw schema in a request body.
func (s *Schema) Map() map[string]any {
	var out map[string]any
	_ = json.Unmarshal([]byte(s.JSON()), &out)
	return out
}

// orderedProperties lists required properties first, in declared order,
// then the remaining ones sorted by name
func (s *Schema) orderedProperties() []string {
	seen := make(map[string]bool, len(s.Properties))
	names := make([]string, 0, len(s.Properties))
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var rest []string
	for name := range s.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// envelopeKey holds array payloads for APIs that need an object root
const envelopeKey = "items"

// objectRoot returns s when it is an object, otherwise an object holding s
// under envelopeKey. wrapped reports the second case.
func objectRoot(s *Schema) (root *Schema, wrapped bool) {
	if s.Type == TypeObject {
		return s, false
	}
	return &Schema{
		Type:       TypeObject,
		Properties: map[string]*Schema{envelopeKey: s},
		Required:   []string{envelopeKey},
	}, true
}

// unwrapEnvelope returns the envelopeKey member of a JSON object
func unwrapEnvelope(text string) (string, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return "", fmt.Errorf("decode structured envelope: %w", err)
	}
	inner, ok := envelope[envelopeKey]
	if !ok {
		return "", fmt.Errorf("decode structured envelope: missing %q", envelopeKey)
	}
	return string(inner), nil
}

// stripCodeFence removes a markdown code fence some models wrap around JSON
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
