// Package konfig declares the compile-time identity of features: their
// namespace, key, and value type. Feature identities never change during
// process lifetime; only the flag definitions that configure them (held
// in a registry.Snapshot) are swapped at runtime.
package konfig

import "fmt"

// ValueType is the closed set of value kinds a feature may carry.
type ValueType string

const (
	Boolean ValueType = "BOOLEAN"
	String  ValueType = "STRING"
	Int     ValueType = "INT"
	Double  ValueType = "DOUBLE"
	Enum    ValueType = "ENUM"
	Record  ValueType = "DATA_CLASS"
)

func (t ValueType) valid() bool {
	switch t {
	case Boolean, String, Int, Double, Enum, Record:
		return true
	default:
		return false
	}
}

// FeatureID uniquely identifies a feature by its owning namespace and key.
type FeatureID struct {
	NamespaceID string
	Key         string
}

func (id FeatureID) String() string {
	return id.NamespaceID + "/" + id.Key
}

// EnumSpec names the enumerated set of values a Enum-typed feature accepts.
type EnumSpec struct {
	Name   string
	Values []string
}

func (e *EnumSpec) has(name string) bool {
	for _, v := range e.Values {
		if v == name {
			return true
		}
	}
	return false
}

// Feature is the compile-time-declared identity of a configurable value:
// a fixed (namespace, key) pair with a fixed value type. For Enum and
// Record value types it also pins the schema that every flag
// definition and rule value for this feature must conform to.
type Feature struct {
	ID     FeatureID
	Type   ValueType
	Enum   *EnumSpec
	Schema *RecordSchema
}

// NewFeature builds a Feature, validating that the identity is non-empty
// and that the value type is one of the declared set. It does not check
// Enum/Record schemas; those are attached afterwards with WithEnum and
// WithSchema.
func NewFeature(namespaceID, key string, valueType ValueType) (*Feature, error) {
	if namespaceID == "" || key == "" {
		return nil, fmt.Errorf("konfig: feature requires non-empty namespace and key")
	}
	if !valueType.valid() {
		return nil, fmt.Errorf("konfig: unknown value type %q", valueType)
	}
	return &Feature{ID: FeatureID{NamespaceID: namespaceID, Key: key}, Type: valueType}, nil
}

// WithEnum attaches the enumerated value set to an Enum-typed feature.
func (f *Feature) WithEnum(name string, values ...string) *Feature {
	f.Enum = &EnumSpec{Name: name, Values: values}
	return f
}

// WithSchema attaches a structured-record schema to a Record-typed feature.
func (f *Feature) WithSchema(schema *RecordSchema) *Feature {
	f.Schema = schema
	return f
}

// Namespace is an isolation domain owning a fixed set of features. The
// feature set is frozen at construction; it is never mutated afterward,
// matching spec.md's "namespace's feature set is fixed" invariant.
type Namespace struct {
	id       string
	features map[string]*Feature // keyed by Feature.ID.Key
}

// NewNamespace freezes a namespace's feature set. Duplicate keys are rejected.
func NewNamespace(id string, features ...*Feature) (*Namespace, error) {
	if id == "" {
		return nil, fmt.Errorf("konfig: namespace id must not be empty")
	}
	set := make(map[string]*Feature, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		if f.ID.NamespaceID != id {
			return nil, fmt.Errorf("konfig: feature %s does not belong to namespace %q", f.ID, id)
		}
		if _, exists := set[f.ID.Key]; exists {
			return nil, fmt.Errorf("konfig: duplicate feature key %q in namespace %q", f.ID.Key, id)
		}
		set[f.ID.Key] = f
	}
	return &Namespace{id: id, features: set}, nil
}

// ID returns the namespace identifier.
func (n *Namespace) ID() string { return n.id }

// Feature looks up a feature by key within this namespace.
func (n *Namespace) Feature(key string) (*Feature, bool) {
	f, ok := n.features[key]
	return f, ok
}

// Features returns the frozen feature set keyed by feature key. The
// returned map must not be mutated by callers.
func (n *Namespace) Features() map[string]*Feature {
	return n.features
}
