package schema

import "encoding/json"

// JSONSchema is the subset of JSON Schema the structured-output transport
// consumes: objects with typed properties, arrays with a single element
// type, enums, and required lists. Field types beyond this subset are
// refused at schema load time, so translation never fails.
type JSONSchema struct {
	Type                 string                 `json:"type,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Enum                 []any                  `json:"enum,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
}

// MarshalIndent renders the schema for prompt embedding.
func (j *JSONSchema) MarshalIndent() string {
	raw, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// JSONSchema translates the field descriptors into the structured-output
// schema shape. Optional fields are emitted as properties without being
// listed in required; unknown extra keys remain permitted.
func (s *Schema) JSONSchema() *JSONSchema {
	out := &JSONSchema{
		Type:       "object",
		Properties: make(map[string]*JSONSchema, len(s.fields)),
	}
	for _, f := range s.fields {
		out.Properties[f.Name] = fieldJSONSchema(f)
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func fieldJSONSchema(f Field) *JSONSchema {
	js := &JSONSchema{
		Type:        jsonType(f.Type),
		Description: f.Description,
	}
	if f.Type == TypeArray {
		js.Items = &JSONSchema{Type: jsonType(f.Elem)}
	}
	return js
}

func jsonType(t FieldType) string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeMap:
		return "object"
	case TypeArray:
		return "array"
	case TypeAny:
		// "any" is expressed by omitting the type constraint.
		return ""
	}
	return ""
}
