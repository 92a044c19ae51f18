// Package demo declares the compile-time feature set the reference
// host (cmd/konditionald, cmd/konditionalctl) serves. A real embedding
// application declares its own namespace in its own code the same
// way; this package exists only so both reference binaries share one
// declaration instead of drifting apart.
package demo

import (
	"fmt"

	"github.com/amichne/konditional/internal/konfig"
)

// BuildNamespace declares the reference host's feature set. Feature
// identities and value types are fixed here at compile time; nothing
// in the HTTP or CLI surface can create a new one at runtime (spec.md §1).
func BuildNamespace(namespaceID string) (*konfig.Namespace, error) {
	darkMode, err := konfig.NewFeature(namespaceID, "darkMode", konfig.Boolean)
	if err != nil {
		return nil, fmt.Errorf("declare darkMode: %w", err)
	}

	apiEndpoint, err := konfig.NewFeature(namespaceID, "apiEndpoint", konfig.String)
	if err != nil {
		return nil, fmt.Errorf("declare apiEndpoint: %w", err)
	}

	checkoutVariant, err := konfig.NewFeature(namespaceID, "checkoutVariant", konfig.Enum)
	if err != nil {
		return nil, fmt.Errorf("declare checkoutVariant: %w", err)
	}
	checkoutVariant = checkoutVariant.WithEnum("CheckoutVariant", "CONTROL", "EXPRESS", "ONE_CLICK")

	return konfig.NewNamespace(namespaceID, darkMode, apiEndpoint, checkoutVariant)
}
