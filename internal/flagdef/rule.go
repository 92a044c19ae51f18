package flagdef

import (
	"fmt"
	"sort"

	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/konfig"
)

// Rule is a conditional mapping from context constraints and a rollout
// percentage to a value.
type Rule struct {
	Value       Value
	Constraints Constraints
	RampUp      float64 // percentage in [0.0, 100.0]
	Allowlist   map[evalctx.StableID]struct{}
	Note        string
}

// NewRule builds a Rule with the given value, constraints, and rampup
// percentage. RampUp must be finite and within [0.0, 100.0].
func NewRule(value Value, constraints Constraints, rampUp float64) (Rule, error) {
	if rampUp != rampUp || rampUp < 0.0 || rampUp > 100.0 {
		return Rule{}, fmt.Errorf("flagdef: rampup %v out of range [0, 100]", rampUp)
	}
	return Rule{Value: value, Constraints: constraints, RampUp: rampUp}, nil
}

// WithAllowlist returns a copy of r with the given rule-scope allowlist attached.
func (r Rule) WithAllowlist(ids ...evalctx.StableID) Rule {
	set := make(map[evalctx.StableID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	r.Allowlist = set
	return r
}

// WithNote returns a copy of r with a free-text, purely informational note attached.
func (r Rule) WithNote(note string) Rule {
	r.Note = note
	return r
}

// Allows reports whether id is present in the rule-scope allowlist,
// bypassing the rollout bucket check for this rule.
func (r Rule) Allows(id evalctx.StableID) bool {
	if r.Allowlist == nil {
		return false
	}
	_, ok := r.Allowlist[id]
	return ok
}

// baseMatch reports the non-custom constraint match.
func (r Rule) baseMatch(ctx evalctx.Context) bool {
	return r.Constraints.baseMatch(ctx)
}

// customMatch reports the custom predicate match; a nil predicate
// always matches. A panic inside the predicate is recovered and
// surfaced as an error, never propagated to the caller.
func (r Rule) customMatch(ctx evalctx.Context) (matched bool, err error) {
	if r.Constraints.Custom == nil {
		return true, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			matched = false
			err = fmt.Errorf("flagdef: custom predicate panicked: %v", rec)
		}
	}()
	return r.Constraints.Custom.Match(ctx)
}

func (r Rule) specificity() int {
	return r.Constraints.specificity()
}

// FlagDefinition holds a feature's runtime-mutable configuration:
// default value, kill-switch, salt, feature-scope allowlist, and
// ordered rules. FlagDefinitions live only inside snapshots; they are
// never mutated in place, only replaced wholesale.
type FlagDefinition struct {
	FeatureID konfig.FeatureID
	Default   Value
	Active    bool
	Salt      string
	Allowlist map[evalctx.StableID]struct{}
	Rules     []Rule

	ordered []Rule // precomputed descending-specificity order, stable ties
}

// NewFlagDefinition builds a FlagDefinition and precomputes its rule
// ordering once, amortizing the sort over every subsequent evaluation
// (spec's rule-ordering cache requirement).
func NewFlagDefinition(id konfig.FeatureID, def Value, active bool, salt string, rules ...Rule) *FlagDefinition {
	fd := &FlagDefinition{
		FeatureID: id,
		Default:   def,
		Active:    active,
		Salt:      salt,
		Rules:     rules,
	}
	fd.ordered = orderRules(rules)
	return fd
}

// WithAllowlist returns a copy of fd with the given feature-scope
// allowlist attached. Allowlisted stable identifiers bypass the
// rollout bucket check for any rule that matches by constraints.
func (fd *FlagDefinition) WithAllowlist(ids ...evalctx.StableID) *FlagDefinition {
	set := make(map[evalctx.StableID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	clone := *fd
	clone.Allowlist = set
	return &clone
}

// Allows reports whether id is present in the feature-scope allowlist,
// bypassing the rollout bucket check for any rule that matches by
// constraints.
func (fd *FlagDefinition) Allows(id evalctx.StableID) bool {
	if fd.Allowlist == nil {
		return false
	}
	_, ok := fd.Allowlist[id]
	return ok
}

// OrderedRules returns the rules in descending-specificity order, ties
// broken by declaration order. The order is computed once at
// construction and treated as part of the definition's immutable
// structure.
func (fd *FlagDefinition) OrderedRules() []Rule {
	return fd.ordered
}

// orderRules performs a stable sort by descending specificity so that
// declaration order survives as the tie-break, matching spec.md §4.1's
// "ties broken by insertion order (stable)" requirement.
func orderRules(rules []Rule) []Rule {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].specificity() > ordered[j].specificity()
	})
	return ordered
}
