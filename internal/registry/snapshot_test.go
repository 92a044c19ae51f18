package registry

import (
	"testing"

	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/konfig"
)

func TestSnapshot_EqualIgnoresGeneratedAt(t *testing.T) {
	fd := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "darkMode"}, flagdef.BoolValue(true), true, "salt")
	a := NewSnapshot("app", "v1", "test", map[string]*flagdef.FlagDefinition{"darkMode": fd})
	b := NewSnapshot("app", "v1", "test", map[string]*flagdef.FlagDefinition{"darkMode": fd})

	if !a.Equal(b) {
		t.Fatal("expected structurally identical snapshots with different GeneratedAt to be Equal")
	}
}

func TestSnapshot_NotEqualOnDifferentContent(t *testing.T) {
	fdA := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "darkMode"}, flagdef.BoolValue(true), true, "salt")
	fdB := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "darkMode"}, flagdef.BoolValue(false), true, "salt")
	a := NewSnapshot("app", "v1", "test", map[string]*flagdef.FlagDefinition{"darkMode": fdA})
	b := NewSnapshot("app", "v1", "test", map[string]*flagdef.FlagDefinition{"darkMode": fdB})

	if a.Equal(b) {
		t.Fatal("expected differing feature content to be unequal")
	}
}
