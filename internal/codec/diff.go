package codec

import (
	"encoding/json"
	"sort"

	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
)

// Diff produces the minimal patch JSON that would turn a into b: every
// key present in b whose flag definition differs from (or is absent
// from) a becomes a flags entry, and every key present in a but absent
// from b becomes a removeKeys entry. Feature types are resolved from
// ns. Neither snapshot is mutated.
func Diff(a, b *registry.Snapshot, ns *konfig.Namespace) ([]byte, error) {
	wp := wirePatch{}

	changedKeys := make([]string, 0, len(b.Features))
	for key := range b.Features {
		changedKeys = append(changedKeys, key)
	}
	sort.Strings(changedKeys)

	for _, key := range changedKeys {
		bFd := b.Features[key]
		aFd, existed := a.Features[key]
		if existed && aFd.Equal(bFd) {
			continue
		}
		feature, ok := ns.Feature(key)
		if !ok {
			continue
		}
		wf, err := encodeFlag(key, bFd, feature)
		if err != nil {
			return nil, err
		}
		wp.Flags = append(wp.Flags, wf)
	}

	removedKeys := make([]string, 0)
	for key := range a.Features {
		if _, ok := b.Features[key]; !ok {
			removedKeys = append(removedKeys, key)
		}
	}
	sort.Strings(removedKeys)
	wp.RemoveKeys = removedKeys

	return json.Marshal(wp)
}
