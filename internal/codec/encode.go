package codec

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
	"github.com/amichne/konditional/internal/version"
)

// Encode is Decode's inverse: encoding then decoding a snapshot yields a
// structurally equal snapshot (spec.md §8 round-trip identity).
//
// registry.Snapshot holds its features in a Go map, which has no
// intrinsic order; the canonical form spec.md §6 asks for ("feature
// entries appear in insertion order") is approximated here by a stable
// lexical sort on feature key, since insertion order is not tracked
// past a snapshot's construction. Round-trip identity is unaffected:
// it is defined over structural equality, not byte-for-byte output.
func Encode(snap *registry.Snapshot, ns *konfig.Namespace) ([]byte, error) {
	root := wireRoot{
		Meta: wireMeta{
			Version:                snap.Version,
			GeneratedAtEpochMillis: snap.GeneratedAt.UnixMilli(),
			Source:                 snap.Source,
		},
	}

	keys := make([]string, 0, len(snap.Features))
	for k := range snap.Features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fd := snap.Features[key]
		feature, ok := ns.Feature(key)
		if !ok {
			return nil, fmt.Errorf("codec: encode: feature %q has no declared type", key)
		}
		wf, err := encodeFlag(key, fd, feature)
		if err != nil {
			return nil, err
		}
		root.Flags = append(root.Flags, wf)
	}

	return json.Marshal(root)
}

func encodeFlag(key string, fd *flagdef.FlagDefinition, feature *konfig.Feature) (wireFlag, error) {
	defaultValue, err := encodeValue(fd.Default, feature)
	if err != nil {
		return wireFlag{}, err
	}

	wf := wireFlag{
		Key:             key,
		DefaultValue:    defaultValue,
		Salt:            fd.Salt,
		IsActive:        fd.Active,
		RampUpAllowlist: encodeStableIDs(fd.Allowlist),
	}

	for _, rule := range fd.Rules {
		wr, err := encodeRule(rule, feature)
		if err != nil {
			return wireFlag{}, err
		}
		wf.Rules = append(wf.Rules, wr)
	}

	return wf, nil
}

func encodeRule(rule flagdef.Rule, feature *konfig.Feature) (wireRule, error) {
	value, err := encodeValue(rule.Value, feature)
	if err != nil {
		return wireRule{}, err
	}

	wr := wireRule{
		Value:           value,
		RampUp:          rule.RampUp,
		RampUpAllowlist: encodeStableIDs(rule.Allowlist),
		Locales:         setToSortedSlice(rule.Constraints.Locales),
		Platforms:       setToSortedSlice(rule.Constraints.Platforms),
		VersionRange:    encodeVersionRange(rule.Constraints.VersionRange),
	}
	if rule.Note != "" {
		note := rule.Note
		wr.Note = &note
	}
	if len(rule.Constraints.Axes) > 0 {
		wr.Axes = make(map[string][]string, len(rule.Constraints.Axes))
		for _, axis := range rule.Constraints.Axes {
			wr.Axes[axis.Axis] = setToSortedSlice(axis.Values)
		}
	}

	return wr, nil
}

func encodeValue(v flagdef.Value, feature *konfig.Feature) (wireValue, error) {
	wv := wireValue{Type: string(feature.Type)}
	var raw any
	switch feature.Type {
	case konfig.Boolean:
		raw, _ = v.Bool()
	case konfig.String:
		raw, _ = v.String()
	case konfig.Int:
		raw, _ = v.Int()
	case konfig.Double:
		raw, _ = v.Double()
	case konfig.Enum:
		raw, _ = v.Enum()
		if feature.Enum != nil {
			wv.EnumClassName = feature.Enum.Name
		}
	case konfig.Record:
		raw, _ = v.Record()
	default:
		return wireValue{}, fmt.Errorf("codec: encode: unknown value type %q", feature.Type)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return wireValue{}, fmt.Errorf("codec: encode: %w", err)
	}
	wv.Value = encoded
	return wv, nil
}

func encodeVersionRange(r version.Range) wireVersionRange {
	switch r.Kind {
	case version.MinBound:
		min := encodeVersion(r.Min)
		return wireVersionRange{Type: string(version.MinBound), Min: &min}
	case version.MaxBound:
		max := encodeVersion(r.Max)
		return wireVersionRange{Type: string(version.MaxBound), Max: &max}
	case version.MinAndMaxBound:
		min, max := encodeVersion(r.Min), encodeVersion(r.Max)
		return wireVersionRange{Type: string(version.MinAndMaxBound), Min: &min, Max: &max}
	default:
		return wireVersionRange{Type: string(version.Unbounded)}
	}
}

func encodeVersion(v version.Version) wireVersion {
	return wireVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

func encodeStableIDs(set map[evalctx.StableID]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}

func setToSortedSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
