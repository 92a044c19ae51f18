// Package codec is the parse boundary between external JSON payloads
// and the trusted domain types in flagdef/registry. It follows
// "parse, don't validate": a decode either yields a Snapshot whose
// every value already conforms to its feature's declared type and
// schema, or it fails with a typed ParseError — there is no
// intermediate, partially-trusted representation a caller can observe.
package codec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
	"github.com/amichne/konditional/internal/version"
)

// Options configures a decode.
type Options struct {
	// SkipUnknown, when true, silently drops payload flag entries whose
	// key is not in the namespace's frozen feature set instead of
	// failing the whole decode with FeatureNotFound.
	SkipUnknown bool
}

// Decode parses data against the explicit, trusted feature set of ns.
// A nil namespace is rejected outright: decode always requires an
// explicit scope, never infers feature identity from the payload.
func Decode(data []byte, ns *konfig.Namespace, opts Options) (*registry.Snapshot, error) {
	if ns == nil {
		return nil, newParseError(ErrInvalidSnapshot, "", "explicit feature scope required")
	}

	var root wireRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, newParseError(ErrInvalidJSON, "", err.Error())
	}

	features, err := decodeFlags(root.Flags, ns, opts)
	if err != nil {
		return nil, err
	}

	generatedAt := time.Now().UTC()
	if root.Meta.GeneratedAtEpochMillis != 0 {
		generatedAt = time.UnixMilli(root.Meta.GeneratedAtEpochMillis).UTC()
	}

	return &registry.Snapshot{
		NamespaceID: ns.ID(),
		Version:     root.Meta.Version,
		GeneratedAt: generatedAt,
		Source:      root.Meta.Source,
		Features:    features,
	}, nil
}

func decodeFlags(wireFlags []wireFlag, ns *konfig.Namespace, opts Options) (map[string]*flagdef.FlagDefinition, error) {
	features := make(map[string]*flagdef.FlagDefinition, len(wireFlags))
	for i, wf := range wireFlags {
		path := fmt.Sprintf("flags[%d]", i)
		feature, known := ns.Feature(wf.Key)
		if !known {
			if opts.SkipUnknown {
				continue
			}
			return nil, newParseError(ErrFeatureNotFound, path, fmt.Sprintf("feature %q not in namespace %q", wf.Key, ns.ID()))
		}
		fd, err := decodeFlag(wf, feature, path+"."+wf.Key)
		if err != nil {
			return nil, err
		}
		features[wf.Key] = fd
	}
	return features, nil
}

func decodeFlag(wf wireFlag, feature *konfig.Feature, path string) (*flagdef.FlagDefinition, error) {
	defaultValue, err := decodeValue(wf.DefaultValue, feature, path+".defaultValue")
	if err != nil {
		return nil, err
	}

	rules := make([]flagdef.Rule, 0, len(wf.Rules))
	for i, wr := range wf.Rules {
		rule, err := decodeRule(wr, feature, fmt.Sprintf("%s.rules[%d]", path, i))
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	fd := flagdef.NewFlagDefinition(feature.ID, defaultValue, wf.IsActive, wf.Salt, rules...)

	if len(wf.RampUpAllowlist) > 0 {
		ids, err := decodeStableIDs(wf.RampUpAllowlist, path+".rampUpAllowlist")
		if err != nil {
			return nil, err
		}
		fd = fd.WithAllowlist(ids...)
	}

	return fd, nil
}

func decodeRule(wr wireRule, feature *konfig.Feature, path string) (flagdef.Rule, error) {
	value, err := decodeValue(wr.Value, feature, path+".value")
	if err != nil {
		return flagdef.Rule{}, err
	}

	if wr.RampUp < 0.0 || wr.RampUp > 100.0 {
		return flagdef.Rule{}, newParseError(ErrInvalidRollout, path+".rampUp", fmt.Sprintf("%v out of range [0, 100]", wr.RampUp))
	}

	constraints := flagdef.NewConstraints()

	if len(wr.Locales) > 0 {
		locales, err := decodeLocales(wr.Locales, path+".locales")
		if err != nil {
			return flagdef.Rule{}, err
		}
		constraints = constraints.WithLocales(locales...)
	}
	if len(wr.Platforms) > 0 {
		constraints = constraints.WithPlatforms(wr.Platforms...)
	}

	vr, err := decodeVersionRange(wr.VersionRange, path+".versionRange")
	if err != nil {
		return flagdef.Rule{}, err
	}
	constraints = constraints.WithVersionRange(vr)

	for _, axisID := range sortedKeys(wr.Axes) {
		constraints = constraints.WithAxis(flagdef.NewAxisConstraint(axisID, wr.Axes[axisID]...))
	}

	rule, err := flagdef.NewRule(value, constraints, wr.RampUp)
	if err != nil {
		return flagdef.Rule{}, newParseError(ErrInvalidRollout, path+".rampUp", err.Error())
	}

	if len(wr.RampUpAllowlist) > 0 {
		ids, err := decodeStableIDs(wr.RampUpAllowlist, path+".rampUpAllowlist")
		if err != nil {
			return flagdef.Rule{}, err
		}
		rule = rule.WithAllowlist(ids...)
	}
	if wr.Note != nil {
		rule = rule.WithNote(*wr.Note)
	}

	return rule, nil
}

func decodeValue(wv wireValue, feature *konfig.Feature, path string) (flagdef.Value, error) {
	if wv.Type != string(feature.Type) {
		return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, fmt.Sprintf("declared value type %q does not match feature %s type %q", wv.Type, feature.ID, feature.Type))
	}

	var value flagdef.Value
	switch feature.Type {
	case konfig.Boolean:
		var b bool
		if err := json.Unmarshal(wv.Value, &b); err != nil {
			return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, "expected a boolean: "+err.Error())
		}
		value = flagdef.BoolValue(b)
	case konfig.String:
		var s string
		if err := json.Unmarshal(wv.Value, &s); err != nil {
			return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, "expected a string: "+err.Error())
		}
		value = flagdef.StringValue(s)
	case konfig.Int:
		var n int64
		if err := json.Unmarshal(wv.Value, &n); err != nil {
			return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, "expected an integer: "+err.Error())
		}
		value = flagdef.IntValue(n)
	case konfig.Double:
		var f float64
		if err := json.Unmarshal(wv.Value, &f); err != nil {
			return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, "expected a number: "+err.Error())
		}
		value = flagdef.DoubleValue(f)
	case konfig.Enum:
		// enumClassName is informational only; decoding never branches
		// on it, so a forged class name cannot redirect decoding.
		var name string
		if err := json.Unmarshal(wv.Value, &name); err != nil {
			return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, "expected an enum member name: "+err.Error())
		}
		value = flagdef.EnumValue(name)
	case konfig.Record:
		// dataClassName is informational only, same reasoning as above.
		var rec map[string]any
		if err := json.Unmarshal(wv.Value, &rec); err != nil {
			return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, "expected an object: "+err.Error())
		}
		value = flagdef.RecordValue(rec)
	default:
		return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, fmt.Sprintf("unknown value type %q", feature.Type))
	}

	if err := value.ConformsTo(feature); err != nil {
		return flagdef.Value{}, newParseError(ErrInvalidSnapshot, path, err.Error())
	}
	return value, nil
}

func decodeVersion(wv wireVersion) version.Version {
	return version.Version{Major: wv.Major, Minor: wv.Minor, Patch: wv.Patch}
}

func decodeVersionRange(wvr wireVersionRange, path string) (version.Range, error) {
	switch wvr.Type {
	case "", string(version.Unbounded):
		return version.UnboundedRange(), nil
	case string(version.MinBound):
		if wvr.Min == nil {
			return version.Range{}, newParseError(ErrInvalidVersion, path, "MIN_BOUND range requires a min version")
		}
		return version.MinBoundRange(decodeVersion(*wvr.Min)), nil
	case string(version.MaxBound):
		if wvr.Max == nil {
			return version.Range{}, newParseError(ErrInvalidVersion, path, "MAX_BOUND range requires a max version")
		}
		return version.MaxBoundRange(decodeVersion(*wvr.Max)), nil
	case string(version.MinAndMaxBound):
		if wvr.Min == nil || wvr.Max == nil {
			return version.Range{}, newParseError(ErrInvalidVersion, path, "MIN_AND_MAX_BOUND range requires both min and max versions")
		}
		return version.BoundedRange(decodeVersion(*wvr.Min), decodeVersion(*wvr.Max)), nil
	default:
		return version.Range{}, newParseError(ErrInvalidVersion, path, fmt.Sprintf("unknown version range kind %q", wvr.Type))
	}
}

func decodeStableIDs(hexIDs []string, path string) ([]evalctx.StableID, error) {
	ids := make([]evalctx.StableID, 0, len(hexIDs))
	for i, raw := range hexIDs {
		id, err := decodeStableID(raw)
		if err != nil {
			return nil, newParseError(ErrInvalidHexID, fmt.Sprintf("%s[%d]", path, i), err.Error())
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeStableID(raw string) (evalctx.StableID, error) {
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("%q is not valid hexadecimal: %w", raw, err)
	}
	return evalctx.StableID(strings.ToLower(raw)), nil
}

func decodeLocales(locales []string, path string) ([]string, error) {
	out := make([]string, 0, len(locales))
	for i, l := range locales {
		if strings.TrimSpace(l) == "" {
			return nil, newParseError(ErrInvalidLocale, fmt.Sprintf("%s[%d]", path, i), "locale identifier must not be blank")
		}
		out = append(out, l)
	}
	return out, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
