package schema

import (
	"fmt"
	"reflect"

	"github.com/BaSui01/hiveflow/types"
)

// Validate checks data against the schema and reports the first violation:
// a missing required field, a wrong top-level type, or an array element
// type mismatch. Validation is shallow-structural; map fields accept any
// associative value without recursing, and unknown extra keys pass.
func (s *Schema) Validate(data types.DataMap) error {
	for _, f := range s.fields {
		v, present := data[f.Name]
		if !present {
			if f.Required {
				return types.NewError(types.ErrValidation,
					fmt.Sprintf("missing required field %q", f.Name))
			}
			continue
		}
		if err := checkValue(f.Name, f.Type, f.Elem, v); err != nil {
			return err
		}
	}
	return nil
}

// MergeDefaults returns a copy of data with every absent optional field
// set to its declared default. The input map is not mutated.
func (s *Schema) MergeDefaults(data types.DataMap) types.DataMap {
	out := data.Clone()
	for _, f := range s.fields {
		if f.Default == nil {
			continue
		}
		if _, present := out[f.Name]; !present {
			out[f.Name] = f.Default
		}
	}
	return out
}

func checkValue(name string, t FieldType, elem FieldType, v any) error {
	if t == TypeAny {
		return nil
	}
	if !matchesType(t, v) {
		return types.NewError(types.ErrValidation,
			fmt.Sprintf("field %q: expected %s, got %T", name, t, v))
	}
	if t == TypeArray {
		rv := reflect.ValueOf(v)
		for i := 0; i < rv.Len(); i++ {
			ev := rv.Index(i).Interface()
			if elem == TypeAny || matchesType(elem, ev) {
				continue
			}
			return types.NewError(types.ErrValidation,
				fmt.Sprintf("field %q: element %d: expected %s, got %T", name, i, elem, ev))
		}
	}
	return nil
}

func matchesType(t FieldType, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeInteger:
		return isInteger(v)
	case TypeFloat:
		return isFloat(v)
	case TypeMap:
		if v == nil {
			return false
		}
		return reflect.ValueOf(v).Kind() == reflect.Map
	case TypeArray:
		if v == nil {
			return false
		}
		k := reflect.ValueOf(v).Kind()
		return k == reflect.Slice || k == reflect.Array
	case TypeAny:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		// JSON decoding yields float64 for every number; accept
		// integral values so round-tripped data still validates.
		return n == float64(int64(n))
	case float32:
		return float64(n) == float64(int64(n))
	default:
		return false
	}
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		// Integers are acceptable where a float is declared.
		return true
	default:
		return false
	}
}
