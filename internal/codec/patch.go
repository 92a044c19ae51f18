package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
)

// ApplyPatchJSON decodes patchJSON against ns's trusted feature set and
// composes it onto current, returning the resulting snapshot. It is a
// pure function: current is never mutated, and on any failure the
// caller's existing snapshot remains exactly as valid as before the
// call (all-or-nothing). Publishing the result, if desired, is the
// caller's job via registry.Load.
func ApplyPatchJSON(current *registry.Snapshot, patchJSON []byte, ns *konfig.Namespace, opts Options) (*registry.Snapshot, error) {
	if ns == nil {
		return nil, newParseError(ErrInvalidSnapshot, "", "explicit feature scope required")
	}

	var wp wirePatch
	if err := json.Unmarshal(patchJSON, &wp); err != nil {
		return nil, newParseError(ErrInvalidJSON, "", err.Error())
	}

	upserts, err := decodeFlags(wp.Flags, ns, opts)
	if err != nil {
		return nil, err
	}

	features := make(map[string]*flagdef.FlagDefinition, len(current.Features)+len(upserts))
	for k, v := range current.Features {
		features[k] = v
	}
	for k, v := range upserts {
		features[k] = v
	}
	for _, key := range wp.RemoveKeys {
		if _, known := ns.Feature(key); !known && !opts.SkipUnknown {
			return nil, newParseError(ErrFeatureNotFound, "removeKeys", fmt.Sprintf("feature %q not in namespace %q", key, ns.ID()))
		}
		delete(features, key)
	}

	return &registry.Snapshot{
		NamespaceID: current.NamespaceID,
		Version:     current.Version,
		GeneratedAt: time.Now().UTC(),
		Source:      "patch",
		Features:    features,
	}, nil
}
