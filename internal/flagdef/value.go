// Package flagdef holds the runtime-mutable configuration of a feature:
// its flag definition, rules, constraints, and the value type that
// flows through evaluation. Feature identity itself lives in konfig;
// flagdef is what a snapshot replaces wholesale on every load.
package flagdef

import (
	"fmt"

	"github.com/amichne/konditional/internal/konfig"
)

// Value is a tagged union over the value kinds a feature may carry.
// A single struct with a Kind discriminator is used instead of an
// interface or generic parameter: Go has no sum types, and a handful of
// primitive kinds plus a keyed enum/record payload is simpler as one
// shape than as five concrete implementations of a marker interface.
type Value struct {
	Kind konfig.ValueType

	boolValue   bool
	stringValue string
	intValue    int64
	doubleValue float64
	enumValue   string
	recordValue map[string]any
}

// BoolValue constructs a BOOLEAN value.
func BoolValue(v bool) Value { return Value{Kind: konfig.Boolean, boolValue: v} }

// StringValue constructs a STRING value.
func StringValue(v string) Value { return Value{Kind: konfig.String, stringValue: v} }

// IntValue constructs an INT value.
func IntValue(v int64) Value { return Value{Kind: konfig.Int, intValue: v} }

// DoubleValue constructs a DOUBLE value.
func DoubleValue(v float64) Value { return Value{Kind: konfig.Double, doubleValue: v} }

// EnumValue constructs an ENUM value naming one member of the feature's enum spec.
func EnumValue(name string) Value { return Value{Kind: konfig.Enum, enumValue: name} }

// RecordValue constructs a DATA_CLASS value from a decoded JSON object.
func RecordValue(fields map[string]any) Value {
	return Value{Kind: konfig.Record, recordValue: fields}
}

// Bool returns the boolean payload and whether Kind is Boolean.
func (v Value) Bool() (bool, bool) { return v.boolValue, v.Kind == konfig.Boolean }

// String returns the string payload and whether Kind is String.
func (v Value) String() (string, bool) { return v.stringValue, v.Kind == konfig.String }

// Int returns the integer payload and whether Kind is Int.
func (v Value) Int() (int64, bool) { return v.intValue, v.Kind == konfig.Int }

// Double returns the double payload and whether Kind is Double.
func (v Value) Double() (float64, bool) { return v.doubleValue, v.Kind == konfig.Double }

// Enum returns the enum member name and whether Kind is Enum.
func (v Value) Enum() (string, bool) { return v.enumValue, v.Kind == konfig.Enum }

// Record returns the record payload and whether Kind is Record.
func (v Value) Record() (map[string]any, bool) { return v.recordValue, v.Kind == konfig.Record }

// ConformsTo reports whether v is valid for the given feature: its kind
// matches the feature's declared value type, its enum member (if any)
// belongs to the feature's enum spec, and its record payload (if any)
// validates against the feature's schema.
func (v Value) ConformsTo(f *konfig.Feature) error {
	if v.Kind != f.Type {
		return fmt.Errorf("flagdef: value kind %q does not match feature %s type %q", v.Kind, f.ID, f.Type)
	}
	switch f.Type {
	case konfig.Enum:
		if f.Enum == nil {
			return fmt.Errorf("flagdef: feature %s has no enum spec", f.ID)
		}
		member := false
		for _, name := range f.Enum.Values {
			if name == v.enumValue {
				member = true
				break
			}
		}
		if !member {
			return fmt.Errorf("flagdef: %q is not a member of enum %q", v.enumValue, f.Enum.Name)
		}
	case konfig.Record:
		if f.Schema != nil {
			if err := f.Schema.Validate(f.ID.String(), v.recordValue); err != nil {
				return fmt.Errorf("flagdef: record value for %s: %w", f.ID, err)
			}
		}
	}
	return nil
}

// Equal reports structural equality between two values of the same kind.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case konfig.Boolean:
		return v.boolValue == other.boolValue
	case konfig.String:
		return v.stringValue == other.stringValue
	case konfig.Int:
		return v.intValue == other.intValue
	case konfig.Double:
		return v.doubleValue == other.doubleValue
	case konfig.Enum:
		return v.enumValue == other.enumValue
	case konfig.Record:
		return recordsEqual(v.recordValue, other.recordValue)
	default:
		return false
	}
}

func recordsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if !valuesEqual(av, bv) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch at := a.(type) {
	case map[string]any:
		bt, ok := b.(map[string]any)
		return ok && recordsEqual(at, bt)
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !valuesEqual(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
