package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
)

func mustNamespace(t *testing.T) *konfig.Namespace {
	t.Helper()
	darkMode, err := konfig.NewFeature("app", "darkMode", konfig.Boolean)
	if err != nil {
		t.Fatalf("NewFeature darkMode: %v", err)
	}
	apiEndpoint, err := konfig.NewFeature("app", "apiEndpoint", konfig.String)
	if err != nil {
		t.Fatalf("NewFeature apiEndpoint: %v", err)
	}
	ns, err := konfig.NewNamespace("app", darkMode, apiEndpoint)
	if err != nil {
		t.Fatalf("NewNamespace: %v", err)
	}
	return ns
}

const fullPayload = `{
  "meta": {"version": "v1", "source": "test"},
  "flags": [
    {
      "key": "darkMode",
      "defaultValue": {"type": "BOOLEAN", "value": false},
      "salt": "salt-1",
      "isActive": true,
      "rampUpAllowlist": ["74657374"],
      "rules": [
        {
          "value": {"type": "BOOLEAN", "value": true},
          "rampUp": 100,
          "note": "ios rollout",
          "platforms": ["IOS"],
          "versionRange": {"type": "UNBOUNDED"}
        }
      ]
    },
    {
      "key": "apiEndpoint",
      "defaultValue": {"type": "STRING", "value": "https://api.example.com"},
      "salt": "",
      "isActive": true,
      "rules": []
    }
  ]
}`

func TestDecode_FullPayload(t *testing.T) {
	ns := mustNamespace(t)
	snap, err := Decode([]byte(fullPayload), ns, Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(snap.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(snap.Features))
	}
	fd := snap.Features["darkMode"]
	if fd == nil {
		t.Fatal("expected darkMode flag definition")
	}
	if v, _ := fd.Default.Bool(); v {
		t.Fatal("expected default false")
	}
	if len(fd.Rules) != 1 || fd.Rules[0].Note != "ios rollout" {
		t.Fatalf("expected 1 rule with note carried through, got %+v", fd.Rules)
	}
	if !fd.Allows("74657374") {
		t.Fatal("expected rampUpAllowlist hex id to decode and be present")
	}
}

func TestDecode_NilNamespaceRejected(t *testing.T) {
	_, err := Decode([]byte(fullPayload), nil, Options{})
	if err == nil {
		t.Fatal("expected an error for a nil namespace")
	}
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte("{not json"), mustNamespace(t), Options{})
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestDecode_UnknownFeatureRejectedByDefault(t *testing.T) {
	payload := `{"meta":{},"flags":[{"key":"doesNotExist","defaultValue":{"type":"BOOLEAN","value":true},"isActive":true}]}`
	_, err := Decode([]byte(payload), mustNamespace(t), Options{})
	if !errors.Is(err, ErrFeatureNotFound) {
		t.Fatalf("expected ErrFeatureNotFound, got %v", err)
	}
}

func TestDecode_UnknownFeatureSkipped(t *testing.T) {
	payload := `{"meta":{},"flags":[{"key":"doesNotExist","defaultValue":{"type":"BOOLEAN","value":true},"isActive":true}]}`
	snap, err := Decode([]byte(payload), mustNamespace(t), Options{SkipUnknown: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Features) != 0 {
		t.Fatalf("expected unknown feature to be skipped, got %d features", len(snap.Features))
	}
}

func TestDecode_TypeMismatchRejected(t *testing.T) {
	payload := `{"meta":{},"flags":[{"key":"darkMode","defaultValue":{"type":"STRING","value":"nope"},"isActive":true}]}`
	_, err := Decode([]byte(payload), mustNamespace(t), Options{})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestDecode_ForgedEnumClassNameIgnored(t *testing.T) {
	// darkMode is BOOLEAN; a forged enumClassName on a boolean payload
	// must not redirect decoding away from the feature's trusted type.
	payload := `{"meta":{},"flags":[{"key":"darkMode","defaultValue":{"type":"BOOLEAN","value":true,"enumClassName":"NotARealEnum"},"isActive":true}]}`
	snap, err := Decode([]byte(payload), mustNamespace(t), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := snap.Features["darkMode"].Default.Bool(); !v {
		t.Fatal("expected boolean true despite forged enumClassName")
	}
}

func TestDecode_ForgedEnumClassNameDoesNotRedirectDecoding(t *testing.T) {
	// theme is ENUM with a fixed member set; a forged enumClassName must
	// not cause decoding to branch into treating the payload as some
	// other enum's member names or validate against a different schema.
	theme, err := konfig.NewFeature("app", "theme", konfig.Enum)
	if err != nil {
		t.Fatalf("NewFeature theme: %v", err)
	}
	theme.WithEnum("Theme", "LIGHT", "DARK")
	ns, err := konfig.NewNamespace("app", theme)
	if err != nil {
		t.Fatalf("NewNamespace: %v", err)
	}

	payload := `{"meta":{},"flags":[{"key":"theme","defaultValue":{"type":"ENUM","value":"DARK","enumClassName":"NotARealEnum"},"isActive":true}]}`
	snap, err := Decode([]byte(payload), ns, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := snap.Features["theme"].Default.Enum(); v != "DARK" {
		t.Fatalf("expected enum value DARK despite forged enumClassName, got %q", v)
	}
}

func TestDecode_ForgedEnumClassNameStillRejectsUnknownMember(t *testing.T) {
	// A forged enumClassName must not let an out-of-schema member name
	// slip past validation either: the feature's own Enum spec, not the
	// untrusted tag, is what decoding validates against.
	theme, err := konfig.NewFeature("app", "theme", konfig.Enum)
	if err != nil {
		t.Fatalf("NewFeature theme: %v", err)
	}
	theme.WithEnum("Theme", "LIGHT", "DARK")
	ns, err := konfig.NewNamespace("app", theme)
	if err != nil {
		t.Fatalf("NewNamespace: %v", err)
	}

	payload := `{"meta":{},"flags":[{"key":"theme","defaultValue":{"type":"ENUM","value":"SOLARIZED","enumClassName":"Theme"},"isActive":true}]}`
	_, err = Decode([]byte(payload), ns, Options{})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot for an out-of-schema enum member, got %v", err)
	}
}

func TestDecode_InvalidRampUp(t *testing.T) {
	payload := `{"meta":{},"flags":[{"key":"darkMode","defaultValue":{"type":"BOOLEAN","value":true},"isActive":true,"rules":[{"value":{"type":"BOOLEAN","value":true},"rampUp":150,"versionRange":{"type":"UNBOUNDED"}}]}]}`
	_, err := Decode([]byte(payload), mustNamespace(t), Options{})
	if !errors.Is(err, ErrInvalidRollout) {
		t.Fatalf("expected ErrInvalidRollout, got %v", err)
	}
}

func TestDecode_InvalidHexAllowlist(t *testing.T) {
	payload := `{"meta":{},"flags":[{"key":"darkMode","defaultValue":{"type":"BOOLEAN","value":true},"isActive":true,"rampUpAllowlist":["not-hex!"]}]}`
	_, err := Decode([]byte(payload), mustNamespace(t), Options{})
	if !errors.Is(err, ErrInvalidHexID) {
		t.Fatalf("expected ErrInvalidHexID, got %v", err)
	}
}

func TestDecode_BlankLocaleRejected(t *testing.T) {
	payload := `{"meta":{},"flags":[{"key":"darkMode","defaultValue":{"type":"BOOLEAN","value":true},"isActive":true,"rules":[{"value":{"type":"BOOLEAN","value":true},"rampUp":100,"locales":["  "],"versionRange":{"type":"UNBOUNDED"}}]}]}`
	_, err := Decode([]byte(payload), mustNamespace(t), Options{})
	if !errors.Is(err, ErrInvalidLocale) {
		t.Fatalf("expected ErrInvalidLocale, got %v", err)
	}
}

func TestEncodeDecode_RoundTripIdentity(t *testing.T) {
	ns := mustNamespace(t)
	snap, err := Decode([]byte(fullPayload), ns, Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	encoded, err := Encode(snap, ns)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	roundTripped, err := Decode(encoded, ns, Options{})
	if err != nil {
		t.Fatalf("Decode(Encode(...)): %v", err)
	}

	if !snap.Equal(roundTripped) {
		t.Fatalf("expected structural equality after round trip:\noriginal: %+v\nroundTripped: %+v", snap, roundTripped)
	}
}

func TestApplyPatchJSON_AllOrNothing(t *testing.T) {
	ns := mustNamespace(t)
	current := registry.NewSnapshot("app", "v1", "test", nil)

	badPatch := `{"flags":[{"key":"nope","defaultValue":{"type":"BOOLEAN","value":true},"isActive":true}]}`
	_, err := ApplyPatchJSON(current, []byte(badPatch), ns, Options{})
	if !errors.Is(err, ErrFeatureNotFound) {
		t.Fatalf("expected ErrFeatureNotFound, got %v", err)
	}

	goodPatch := `{"flags":[{"key":"darkMode","defaultValue":{"type":"BOOLEAN","value":true},"isActive":true}]}`
	next, err := ApplyPatchJSON(current, []byte(goodPatch), ns, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next.Features) != 1 {
		t.Fatalf("expected 1 feature after patch, got %d", len(next.Features))
	}
	if len(current.Features) != 0 {
		t.Fatal("expected the original snapshot to remain untouched (pure function)")
	}
}

func TestApplyPatchJSON_RemoveKeys(t *testing.T) {
	ns := mustNamespace(t)
	snap, err := Decode([]byte(fullPayload), ns, Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	next, err := ApplyPatchJSON(snap, []byte(`{"removeKeys":["darkMode"]}`), ns, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := next.Features["darkMode"]; ok {
		t.Fatal("expected darkMode to be removed")
	}
	if _, ok := next.Features["apiEndpoint"]; !ok {
		t.Fatal("expected apiEndpoint to remain")
	}
}

func TestDiff_ProducesAddsAndRemoves(t *testing.T) {
	ns := mustNamespace(t)
	a, err := Decode([]byte(fullPayload), ns, Options{})
	if err != nil {
		t.Fatalf("Decode a: %v", err)
	}
	b, err := ApplyPatchJSON(a, []byte(`{"removeKeys":["apiEndpoint"]}`), ns, Options{})
	if err != nil {
		t.Fatalf("ApplyPatchJSON: %v", err)
	}

	patchJSON, err := Diff(a, b, ns)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(string(patchJSON), `"apiEndpoint"`) {
		t.Fatalf("expected diff to mention removed key apiEndpoint, got %s", patchJSON)
	}

	replayed, err := ApplyPatchJSON(a, patchJSON, ns, Options{})
	if err != nil {
		t.Fatalf("replaying diff as a patch: %v", err)
	}
	if !replayed.Equal(b) {
		t.Fatal("expected replaying the diff patch onto a to reproduce b")
	}
}
