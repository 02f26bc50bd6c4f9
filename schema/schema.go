package schema

import (
	"fmt"

	"github.com/BaSui01/hiveflow/types"
)

// FieldType enumerates the declarable field types.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeBoolean FieldType = "boolean"
	TypeMap     FieldType = "map"
	TypeArray   FieldType = "array"
	TypeAny     FieldType = "any"
)

// Field describes one schema field.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Default     any
	Description string

	// Elem is the element type for TypeArray fields. Elements of type
	// TypeArray are not supported; nesting stops at one level.
	Elem FieldType
}

// Schema is an ordered set of field descriptors. Schemas are immutable
// after New and safe for concurrent use.
type Schema struct {
	fields []Field
	byName map[string]int
}

// Empty is the zero-field schema. It accepts any data map.
var Empty = &Schema{byName: map[string]int{}}

// New builds a schema from the given fields, rejecting declarations the
// engine cannot honor: duplicate names, a required field carrying a
// default, unknown types, and arrays without a valid element type.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, types.NewError(types.ErrInvalidAgent, "schema field with empty name")
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, types.NewError(types.ErrInvalidAgent,
				fmt.Sprintf("duplicate schema field %q", f.Name))
		}
		if !validType(f.Type) {
			return nil, types.NewError(types.ErrInvalidAgent,
				fmt.Sprintf("field %q: unknown type %q", f.Name, f.Type))
		}
		if f.Type == TypeArray {
			if f.Elem == TypeArray || !validType(f.Elem) {
				return nil, types.NewError(types.ErrInvalidAgent,
					fmt.Sprintf("field %q: array requires a primitive, map, or any element type", f.Name))
			}
		}
		if f.Required && f.Default != nil {
			return nil, types.NewError(types.ErrInvalidAgent,
				fmt.Sprintf("field %q: required fields cannot declare a default", f.Name))
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustNew is New for static declarations; it panics on invalid fields.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the field descriptors in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup returns the field descriptor for name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of declared fields.
func (s *Schema) Len() int { return len(s.fields) }

func validType(t FieldType) bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeMap, TypeArray, TypeAny:
		return true
	}
	return false
}
