package demo

import "testing"

func TestBuildNamespace_DeclaresExpectedFeatures(t *testing.T) {
	ns, err := BuildNamespace("app")
	if err != nil {
		t.Fatalf("BuildNamespace failed: %v", err)
	}

	for _, key := range []string{"darkMode", "apiEndpoint", "checkoutVariant"} {
		if _, ok := ns.Feature(key); !ok {
			t.Errorf("expected feature %q to be declared", key)
		}
	}
}

func TestBuildNamespace_CheckoutVariantIsEnum(t *testing.T) {
	ns, err := BuildNamespace("app")
	if err != nil {
		t.Fatalf("BuildNamespace failed: %v", err)
	}

	feature, ok := ns.Feature("checkoutVariant")
	if !ok {
		t.Fatal("expected checkoutVariant to be declared")
	}
	if feature.Enum == nil {
		t.Fatal("expected checkoutVariant to carry an enum spec")
	}
	want := map[string]bool{"CONTROL": true, "EXPRESS": true, "ONE_CLICK": true}
	if len(feature.Enum.Values) != len(want) {
		t.Fatalf("expected %d enum values, got %d", len(want), len(feature.Enum.Values))
	}
	for _, v := range feature.Enum.Values {
		if !want[v] {
			t.Errorf("unexpected enum value %q", v)
		}
	}
}
