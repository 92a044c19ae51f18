package registry

import (
	"fmt"

	"github.com/amichne/konditional/internal/flagdef"
)

// Patch describes features to remove and flag definitions to add or
// replace, applied atomically to the registry's current snapshot.
type Patch struct {
	Upserts    map[string]*flagdef.FlagDefinition // keyed by feature key
	RemoveKeys []string
}

// ApplyPatch validates and applies p against the current snapshot,
// publishing the result via Load. Application is all-or-nothing: if
// any element fails validation, the registry is left unchanged and an
// error is returned.
func (r *Registry) ApplyPatch(p Patch) (*Snapshot, error) {
	next, err := r.composePatch(p)
	if err != nil {
		return nil, err
	}
	r.Load(next)
	return next, nil
}

// composePatch builds the next snapshot off to the side, validating
// every element before anything is published, so a failed patch never
// disturbs the current snapshot.
func (r *Registry) composePatch(p Patch) (*Snapshot, error) {
	current := r.Snapshot()
	features := make(map[string]*flagdef.FlagDefinition, len(current.Features))
	for k, v := range current.Features {
		features[k] = v
	}

	for key, fd := range p.Upserts {
		if err := r.validateUpsert(key, fd); err != nil {
			return nil, err
		}
	}
	for key, fd := range p.Upserts {
		features[key] = fd
	}
	for _, key := range p.RemoveKeys {
		delete(features, key)
	}

	return &Snapshot{
		NamespaceID: current.NamespaceID,
		Version:     current.Version,
		GeneratedAt: current.GeneratedAt,
		Source:      "patch",
		Features:    features,
	}, nil
}

func (r *Registry) validateUpsert(key string, fd *flagdef.FlagDefinition) error {
	feature, known := r.namespace.Feature(key)
	if !known {
		return fmt.Errorf("registry: patch references feature %q unknown to namespace %q", key, r.namespace.ID())
	}
	if fd.FeatureID != feature.ID {
		return fmt.Errorf("registry: patch entry for %q carries mismatched feature identity %s", key, fd.FeatureID)
	}
	if err := fd.Default.ConformsTo(feature); err != nil {
		return fmt.Errorf("registry: patch entry for %q: default value: %w", key, err)
	}
	for i, rule := range fd.Rules {
		if err := rule.Value.ConformsTo(feature); err != nil {
			return fmt.Errorf("registry: patch entry for %q: rule %d value: %w", key, i, err)
		}
	}
	return nil
}
