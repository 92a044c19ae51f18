package flagdef

import "github.com/amichne/konditional/internal/evalctx"

// Equal reports structural equality between two Constraints values.
// Custom predicates compare by identity (same underlying implementation
// instance), since predicate bodies are opaque functions the engine
// cannot inspect.
func (c Constraints) Equal(other Constraints) bool {
	if !stringSetEqual(c.Locales, other.Locales) {
		return false
	}
	if !stringSetEqual(c.Platforms, other.Platforms) {
		return false
	}
	if c.VersionRange != other.VersionRange {
		return false
	}
	if len(c.Axes) != len(other.Axes) {
		return false
	}
	for i := range c.Axes {
		if c.Axes[i].Axis != other.Axes[i].Axis {
			return false
		}
		if !stringSetEqual(c.Axes[i].Values, other.Axes[i].Values) {
			return false
		}
	}
	return c.Custom == other.Custom
}

func stringSetEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func stableIDSetEqual(a, b map[evalctx.StableID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Equal reports structural equality between two Rules.
func (r Rule) Equal(other Rule) bool {
	return r.Value.Equal(other.Value) &&
		r.Constraints.Equal(other.Constraints) &&
		r.RampUp == other.RampUp &&
		stableIDSetEqual(r.Allowlist, other.Allowlist) &&
		r.Note == other.Note
}

// Equal reports structural equality between two FlagDefinitions,
// including their rule lists in declaration order.
func (fd *FlagDefinition) Equal(other *FlagDefinition) bool {
	if fd == nil || other == nil {
		return fd == other
	}
	if fd.FeatureID != other.FeatureID {
		return false
	}
	if !fd.Default.Equal(other.Default) {
		return false
	}
	if fd.Active != other.Active {
		return false
	}
	if fd.Salt != other.Salt {
		return false
	}
	if !stableIDSetEqual(fd.Allowlist, other.Allowlist) {
		return false
	}
	if len(fd.Rules) != len(other.Rules) {
		return false
	}
	for i := range fd.Rules {
		if !fd.Rules[i].Equal(other.Rules[i]) {
			return false
		}
	}
	return true
}
