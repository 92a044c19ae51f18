// Package version provides the glue Version and VersionRange types used
// by context projection and rule constraints. Parsing and comparison
// are delegated to github.com/Masterminds/semver/v3, the same library
// the teacher uses for its version_gt/version_lt operators
// (internal/engine/operators.go) — here it backs the full bounded
// range containment spec.md §3/§6 require instead of a single
// pairwise comparison operator.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is a non-negative (major, minor, patch) triple.
type Version struct {
	Major, Minor, Patch uint64
}

// Zero is Version{0, 0, 0}.
var Zero = Version{}

// Parse parses a semantic version string into a Version. Pre-release
// and build-metadata suffixes are accepted (delegated to semver) but
// only the numeric triple is retained: rule constraints in this engine
// compare only major.minor.patch, per spec.md §3's "non-negative
// integers" invariant.
func Parse(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("version: invalid version %q: %w", s, err)
	}
	return Version{Major: v.Major(), Minor: v.Minor(), Patch: v.Patch()}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) toSemver() *semver.Version {
	sv, _ := semver.NewVersion(v.String())
	return sv
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other, comparing only major.minor.patch.
func (v Version) Compare(other Version) int {
	return v.toSemver().Compare(other.toSemver())
}

// RangeKind tags how a VersionRange is bounded.
type RangeKind string

const (
	Unbounded      RangeKind = "UNBOUNDED"
	MinBound       RangeKind = "MIN_BOUND"
	MaxBound       RangeKind = "MAX_BOUND"
	MinAndMaxBound RangeKind = "MIN_AND_MAX_BOUND"
)

// Range is a version constraint: unbounded, bounded below, above, or
// both. Bounds are inclusive at both ends (spec.md §8).
type Range struct {
	Kind     RangeKind
	Min, Max Version
}

// UnboundedRange matches every version.
func UnboundedRange() Range { return Range{Kind: Unbounded} }

// MinBoundRange matches every version >= min.
func MinBoundRange(min Version) Range { return Range{Kind: MinBound, Min: min} }

// MaxBoundRange matches every version <= max.
func MaxBoundRange(max Version) Range { return Range{Kind: MaxBound, Max: max} }

// BoundedRange matches every version in [min, max].
func BoundedRange(min, max Version) Range {
	return Range{Kind: MinAndMaxBound, Min: min, Max: max}
}

// Contains reports whether v falls within the range, inclusive at both
// bounds. An unbounded range contains every version, including
// Version{0,0,0} (spec.md §8).
func (r Range) Contains(v Version) bool {
	switch r.Kind {
	case Unbounded, "":
		return true
	case MinBound:
		return v.Compare(r.Min) >= 0
	case MaxBound:
		return v.Compare(r.Max) <= 0
	case MinAndMaxBound:
		return v.Compare(r.Min) >= 0 && v.Compare(r.Max) <= 0
	default:
		return false
	}
}
