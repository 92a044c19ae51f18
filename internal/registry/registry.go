package registry

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/amichne/konditional/internal/engine"
	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/hooks"
	"github.com/amichne/konditional/internal/konfig"
)

// DefaultHistoryDepth is the rollback history depth used when a
// Registry is constructed without WithHistoryDepth.
const DefaultHistoryDepth = 8

// Option configures a Registry at construction.
type Option func(*Registry)

// WithHistoryDepth bounds the rollback history to the given number of
// prior snapshots. Values below 1 are clamped to 1.
func WithHistoryDepth(depth int) Option {
	return func(r *Registry) {
		if depth < 1 {
			depth = 1
		}
		r.historyDepth = depth
	}
}

// WithHooks installs the hook slot that Load, Rollback, and DisableAll
// report ConfigLoad events to. A Registry built without this option has
// a nil hook slot, which is a documented no-op.
func WithHooks(h *hooks.Hooks) Option {
	return func(r *Registry) { r.hooks = h }
}

// Registry is the per-namespace holder of the current snapshot, its
// rollback history, and its override map. Readers obtain the current
// snapshot through a single atomic pointer load; writers publish the
// next snapshot via atomic store. No partial state is ever observable.
type Registry struct {
	namespace *konfig.Namespace

	current unsafe.Pointer // *Snapshot, accessed only via atomic

	historyMu    sync.Mutex
	history      []*Snapshot // bottom = oldest, top = most recent
	historyDepth int

	overridesMu sync.RWMutex
	overrides   map[string]flagdef.Value // keyed by feature key

	notify *notifier
	hooks  *hooks.Hooks
}

// New constructs a Registry for the given namespace, initialized to an
// empty snapshot (every feature evaluates its compile-time zero value
// until a first Load).
func New(namespace *konfig.Namespace, opts ...Option) *Registry {
	r := &Registry{
		namespace:    namespace,
		historyDepth: DefaultHistoryDepth,
		overrides:    make(map[string]flagdef.Value),
		notify:       newNotifier(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.store(empty(namespace.ID()))
	return r
}

func (r *Registry) store(snap *Snapshot) {
	atomic.StorePointer(&r.current, unsafe.Pointer(snap))
}

// Snapshot returns the current snapshot by shared immutable reference.
// It never blocks and never allocates.
func (r *Registry) Snapshot() *Snapshot {
	p := atomic.LoadPointer(&r.current)
	if p == nil {
		return empty(r.namespace.ID())
	}
	return (*Snapshot)(p)
}

// Load replaces the current snapshot atomically. The prior snapshot is
// pushed onto the rollback stack, evicting the oldest entry once the
// configured depth is exceeded.
func (r *Registry) Load(next *Snapshot) {
	prev := r.Snapshot()
	r.store(next)
	r.pushHistory(prev)
	r.notify.publish(next)
	r.hooks.EmitConfigLoad(len(next.Features), next.Source, "ok")
}

func (r *Registry) pushHistory(snap *Snapshot) {
	r.historyMu.Lock()
	defer r.historyMu.Unlock()
	r.history = append(r.history, snap)
	if excess := len(r.history) - r.historyDepth; excess > 0 {
		r.history = r.history[excess:]
	}
}

// Rollback pops steps entries from the history stack and publishes the
// one at that depth. It returns false without mutating state if the
// history is insufficient. The restored snapshot is not re-pushed onto
// the history.
func (r *Registry) Rollback(steps int) bool {
	if steps < 1 {
		return false
	}
	r.historyMu.Lock()
	if steps > len(r.history) {
		r.historyMu.Unlock()
		return false
	}
	target := r.history[len(r.history)-steps]
	r.history = r.history[:len(r.history)-steps]
	r.historyMu.Unlock()

	r.store(target)
	r.notify.publish(target)
	r.hooks.EmitConfigLoad(len(target.Features), target.Source, "rollback")
	return true
}

// DisableAll returns the registry to an empty snapshot (every feature
// evaluates its compile-time zero value) while preserving rollback
// history.
func (r *Registry) DisableAll() {
	r.Load(empty(r.namespace.ID()))
}

// SetOverride forces a feature's evaluation to value, bypassing both
// rules and the kill-switch, until cleared. Overrides are held outside
// the snapshot and never round-trip through the codec.
func (r *Registry) SetOverride(featureKey string, value flagdef.Value) {
	r.overridesMu.Lock()
	r.overrides[featureKey] = value
	r.overridesMu.Unlock()
}

// ClearOverride removes a previously set override, if any.
func (r *Registry) ClearOverride(featureKey string) {
	r.overridesMu.Lock()
	delete(r.overrides, featureKey)
	r.overridesMu.Unlock()
}

func (r *Registry) override(featureKey string) (flagdef.Value, bool) {
	r.overridesMu.RLock()
	defer r.overridesMu.RUnlock()
	v, ok := r.overrides[featureKey]
	return v, ok
}

// Subscribe registers a listener for snapshot changes and returns its
// channel and an unsubscribe function. Notification is non-blocking: a
// slow subscriber misses intermediate updates rather than stalling the
// writer.
func (r *Registry) Subscribe() (<-chan *Snapshot, func()) {
	ch, unsub := r.notify.subscribe()
	return ch, unsub
}

// FlagDefinition returns the current snapshot's flag definition for
// featureKey, synthesizing one from an active override when present.
// The second return reports whether featureKey names a known feature
// in this registry's namespace; it does not report whether a snapshot
// entry exists (see Evaluate, which degrades to the zero value for
// known-but-unloaded features).
func (r *Registry) FlagDefinition(featureKey string) (*flagdef.FlagDefinition, bool) {
	feature, known := r.namespace.Feature(featureKey)
	if !known {
		return nil, false
	}

	if overrideValue, ok := r.override(featureKey); ok {
		return flagdef.NewFlagDefinition(feature.ID, overrideValue, true, ""), true
	}

	if fd, ok := r.Snapshot().Features[featureKey]; ok {
		return fd, true
	}

	return flagdef.NewFlagDefinition(feature.ID, flagdef.ZeroValue(feature), true, ""), true
}

// Evaluate resolves featureKey for ctx: overrides take precedence over
// everything, then a missing flag definition degrades to the feature's
// compile-time zero value as FlagNotFound, then normal rule evaluation
// runs against the current snapshot.
func (r *Registry) Evaluate(featureKey string, ctx evalctx.Context) engine.Decision {
	feature, known := r.namespace.Feature(featureKey)

	if overrideValue, ok := r.override(featureKey); ok {
		var id konfig.FeatureID
		if known {
			id = feature.ID
		} else {
			id = konfig.FeatureID{NamespaceID: r.namespace.ID(), Key: featureKey}
		}
		synthetic := flagdef.NewFlagDefinition(id, overrideValue, true, "")
		return engine.Evaluate(synthetic, ctx)
	}

	if !known {
		return engine.Decision{Outcome: engine.OutcomeFlagNotFound, MatchedAt: -1}
	}

	fd, ok := r.Snapshot().Features[featureKey]
	if !ok {
		return engine.Decision{Value: flagdef.ZeroValue(feature), Outcome: engine.OutcomeFlagNotFound, MatchedAt: -1}
	}

	return engine.Evaluate(fd, ctx)
}
