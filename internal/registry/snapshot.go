// Package registry holds the per-namespace current snapshot, publishes
// new snapshots atomically, and maintains a bounded rollback history,
// override map, and kill-all switch. It is the only place a snapshot
// is ever replaced; flag definitions inside it are never mutated.
package registry

import (
	"time"

	"github.com/amichne/konditional/internal/flagdef"
)

// Snapshot is an immutable map from feature key to flag definition,
// plus generation metadata. Two snapshots with identical content are
// equal by structural comparison, not by pointer identity.
type Snapshot struct {
	NamespaceID string
	Version     string
	GeneratedAt time.Time
	Source      string
	Features    map[string]*flagdef.FlagDefinition // keyed by Feature.ID.Key
}

// NewSnapshot builds a Snapshot. A nil features map is normalized to
// empty so Features is never nil.
func NewSnapshot(namespaceID, version, source string, features map[string]*flagdef.FlagDefinition) *Snapshot {
	if features == nil {
		features = map[string]*flagdef.FlagDefinition{}
	}
	return &Snapshot{
		NamespaceID: namespaceID,
		Version:     version,
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Features:    features,
	}
}

// empty returns the zero-feature snapshot used when a namespace has
// never loaded and when disable_all is invoked.
func empty(namespaceID string) *Snapshot {
	return &Snapshot{
		NamespaceID: namespaceID,
		GeneratedAt: time.Now().UTC(),
		Source:      "disabled",
		Features:    map[string]*flagdef.FlagDefinition{},
	}
}

// Equal reports structural equality: same namespace, version, source,
// and an identical feature map (by flagdef.FlagDefinition.Equal).
// GeneratedAt is excluded, since it is wall-clock metadata, not content.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.NamespaceID != other.NamespaceID || s.Version != other.Version || s.Source != other.Source {
		return false
	}
	if len(s.Features) != len(other.Features) {
		return false
	}
	for key, fd := range s.Features {
		otherFd, ok := other.Features[key]
		if !ok || !fd.Equal(otherFd) {
			return false
		}
	}
	return true
}
