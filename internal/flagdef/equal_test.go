package flagdef

import (
	"testing"

	"github.com/amichne/konditional/internal/konfig"
)

func TestFlagDefinition_Equal(t *testing.T) {
	rule, _ := NewRule(BoolValue(true), NewConstraints().WithPlatforms("IOS"), 50)
	a := NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, BoolValue(false), true, "salt", rule)
	b := NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, BoolValue(false), true, "salt", rule)

	if !a.Equal(b) {
		t.Fatal("expected structurally identical flag definitions to be Equal")
	}

	c := NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, BoolValue(true), true, "salt", rule)
	if a.Equal(c) {
		t.Fatal("expected differing defaults to be unequal")
	}
}

func TestZeroValue_PerKind(t *testing.T) {
	boolF, _ := konfig.NewFeature("app", "b", konfig.Boolean)
	if v, _ := ZeroValue(boolF).Bool(); v {
		t.Fatal("expected false zero value for boolean feature")
	}

	enumF, _ := konfig.NewFeature("app", "e", konfig.Enum)
	enumF.WithEnum("Theme", "LIGHT", "DARK")
	if v, _ := ZeroValue(enumF).Enum(); v != "LIGHT" {
		t.Fatalf("expected first enum member as zero value, got %q", v)
	}
}
