package flagdef

import (
	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/version"
)

// CustomPredicate is an opaque extension match over a context, bound at
// the Rule level rather than at feature declaration: a feature's
// (namespace, key, value type) identity never mentions a context type,
// but individual rules may close over one. A predicate that panics is
// caught by the engine and reported as a PredicateError, never
// propagated.
type CustomPredicate interface {
	Match(ctx evalctx.Context) (bool, error)
}

// AxisConstraint restricts a rule to contexts whose value for Axis
// belongs to the allowed set.
type AxisConstraint struct {
	Axis   string
	Values map[string]struct{}
}

// NewAxisConstraint builds an AxisConstraint from a variadic value list.
func NewAxisConstraint(axis string, values ...string) AxisConstraint {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return AxisConstraint{Axis: axis, Values: set}
}

func (a AxisConstraint) matches(ctx evalctx.Context) bool {
	val, ok := ctx.AxisValue(a.Axis)
	if !ok {
		return false
	}
	_, allowed := a.Values[val]
	return allowed
}

// Constraints is the full set of base-match conditions a rule may carry.
// An empty Locales or Platforms set matches every value of that axis;
// a zero-value VersionRange (Unbounded) matches every version.
type Constraints struct {
	Locales      map[string]struct{}
	Platforms    map[string]struct{}
	VersionRange version.Range
	Axes         []AxisConstraint
	Custom       CustomPredicate
}

// NewConstraints builds an empty, universally-matching Constraints value.
func NewConstraints() Constraints {
	return Constraints{VersionRange: version.UnboundedRange()}
}

// WithLocales returns a copy of c restricted to the given locale set.
func (c Constraints) WithLocales(locales ...string) Constraints {
	c.Locales = toSet(locales)
	return c
}

// WithPlatforms returns a copy of c restricted to the given platform set.
func (c Constraints) WithPlatforms(platforms ...string) Constraints {
	c.Platforms = toSet(platforms)
	return c
}

// WithVersionRange returns a copy of c restricted to the given version range.
func (c Constraints) WithVersionRange(r version.Range) Constraints {
	c.VersionRange = r
	return c
}

// WithAxis returns a copy of c with an additional axis constraint appended.
func (c Constraints) WithAxis(axis AxisConstraint) Constraints {
	c.Axes = append(append([]AxisConstraint{}, c.Axes...), axis)
	return c
}

// WithCustom returns a copy of c with the given custom predicate attached.
func (c Constraints) WithCustom(p CustomPredicate) Constraints {
	c.Custom = p
	return c
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// baseMatch reports whether ctx satisfies every non-custom constraint:
// empty locale/platform sets match everything, the version range
// contains ctx's version, and every declared axis constraint is met.
func (c Constraints) baseMatch(ctx evalctx.Context) bool {
	if len(c.Locales) > 0 {
		if _, ok := c.Locales[ctx.Locale()]; !ok {
			return false
		}
	}
	if len(c.Platforms) > 0 {
		if _, ok := c.Platforms[ctx.Platform()]; !ok {
			return false
		}
	}
	if !c.VersionRange.Contains(ctx.Version()) {
		return false
	}
	for _, axis := range c.Axes {
		if !axis.matches(ctx) {
			return false
		}
	}
	return true
}

// specificity is the sum defined for rule ordering: +1 for a non-empty
// locale set, +1 for a non-empty platform set, +1 if the version range
// is bounded on at least one side, +1 per axis constraint, +1 if a
// custom predicate is present.
func (c Constraints) specificity() int {
	score := 0
	if len(c.Locales) > 0 {
		score++
	}
	if len(c.Platforms) > 0 {
		score++
	}
	if c.VersionRange.Kind != version.Unbounded && c.VersionRange.Kind != "" {
		score++
	}
	score += len(c.Axes)
	if c.Custom != nil {
		score++
	}
	return score
}
