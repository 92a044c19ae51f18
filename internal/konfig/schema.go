package konfig

import (
	"fmt"
	"regexp"
)

// FieldKind is the closed set of primitive kinds a record field may hold.
type FieldKind string

const (
	FieldBool   FieldKind = "bool"
	FieldString FieldKind = "string"
	FieldInt    FieldKind = "int"
	FieldDouble FieldKind = "double"
	FieldArray  FieldKind = "array"
	FieldObject FieldKind = "object"
)

// Field describes one member of a structured-record schema: its
// primitive type, bounds, enumerations, and (for arrays) its element
// type. A schema engine is deliberately hand-rolled here rather than
// built on a reflection-based validation library: the set of fields is
// not known until the embedding host declares its features, and
// discriminated unions need a shape no struct-tag validator expresses.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool

	Min, Max *float64       // FieldInt / FieldDouble bounds, inclusive
	Pattern  *regexp.Regexp // FieldString regex constraint
	Enum     []string       // FieldString enumeration constraint
	Elem     *Field         // FieldArray element schema
	Object   *RecordSchema  // FieldObject nested schema
}

// RecordSchema describes a structured-record value type: its fields,
// and, for discriminated unions, the discriminator property name and
// the schema variant selected by each discriminator value.
type RecordSchema struct {
	Fields        []Field
	Discriminator string
	Variants      map[string]*RecordSchema // keyed by discriminator value
}

// Validate checks a decoded JSON object (map[string]any, as produced by
// encoding/json) against the schema. It never inspects a "class name"
// or type tag embedded in the payload for variant selection beyond the
// schema's own named discriminator property — selection is always
// driven by the trusted schema, never by untrusted payload metadata.
func (s *RecordSchema) Validate(path string, value map[string]any) error {
	if s == nil {
		return nil
	}
	if s.Discriminator != "" {
		return s.validateUnion(path, value)
	}
	for _, f := range s.Fields {
		if err := f.validate(path, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecordSchema) validateUnion(path string, value map[string]any) error {
	raw, ok := value[s.Discriminator]
	if !ok {
		return fmt.Errorf("%s: missing discriminator %q", path, s.Discriminator)
	}
	tag, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%s.%s: discriminator must be a string", path, s.Discriminator)
	}
	variant, ok := s.Variants[tag]
	if !ok {
		return fmt.Errorf("%s.%s: unknown variant %q", path, s.Discriminator, tag)
	}
	return variant.Validate(path, value)
}

func (f *Field) validate(path string, obj map[string]any) error {
	fieldPath := path + "." + f.Name
	raw, present := obj[f.Name]
	if !present || raw == nil {
		if f.Required {
			return fmt.Errorf("%s: required field missing", fieldPath)
		}
		return nil
	}
	return f.validateValue(fieldPath, raw)
}

func (f *Field) validateValue(path string, raw any) error {
	switch f.Kind {
	case FieldBool:
		if _, ok := raw.(bool); !ok {
			return fmt.Errorf("%s: expected bool", path)
		}
	case FieldString:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%s: expected string", path)
		}
		if f.Pattern != nil && !f.Pattern.MatchString(s) {
			return fmt.Errorf("%s: %q does not match pattern %s", path, s, f.Pattern.String())
		}
		if len(f.Enum) > 0 && !stringIn(s, f.Enum) {
			return fmt.Errorf("%s: %q is not one of %v", path, s, f.Enum)
		}
	case FieldInt, FieldDouble:
		n, ok := toFloat64(raw)
		if !ok {
			return fmt.Errorf("%s: expected numeric value", path)
		}
		if f.Kind == FieldInt && n != float64(int64(n)) {
			return fmt.Errorf("%s: expected integer, got %v", path, n)
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Errorf("%s: %v is below minimum %v", path, n, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Errorf("%s: %v is above maximum %v", path, n, *f.Max)
		}
	case FieldArray:
		arr, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array", path)
		}
		if f.Elem != nil {
			for i, item := range arr {
				if err := f.Elem.validateValue(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
					return err
				}
			}
		}
	case FieldObject:
		m, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object", path)
		}
		if f.Object != nil {
			return f.Object.Validate(path, m)
		}
	default:
		return fmt.Errorf("%s: unknown field kind %q", path, f.Kind)
	}
	return nil
}

func stringIn(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
