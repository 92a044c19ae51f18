package hooks

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amichne/konditional/internal/engine"
)

// Clock is the testable source of event timestamps, the same seam
// internal/audit uses for its SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator is the testable source of event IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator implements IDGenerator using a real UUID v4, matching
// internal/audit's use of github.com/google/uuid for event identity.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string { return uuid.NewString() }

// Option configures a Hooks instance at construction.
type Option func(*Hooks)

// WithClock overrides the default SystemClock, for deterministic tests.
func WithClock(c Clock) Option { return func(h *Hooks) { h.clock = c } }

// WithIDGenerator overrides the default UUIDGenerator, for deterministic tests.
func WithIDGenerator(g IDGenerator) Option { return func(h *Hooks) { h.idGen = g } }

// Hooks is the per-namespace slot of registered sinks. Register is
// concurrency-safe; Emit* methods invoke every registered sink inline,
// synchronously, recovering and logging any panic so one misbehaving sink
// never affects another or the caller.
type Hooks struct {
	namespaceID string
	clock       Clock
	idGen       IDGenerator

	mu    sync.RWMutex
	sinks []Sink
}

// New builds an empty Hooks slot for namespaceID.
func New(namespaceID string, opts ...Option) *Hooks {
	h := &Hooks{namespaceID: namespaceID, clock: SystemClock{}, idGen: UUIDGenerator{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a sink. Sinks are invoked in registration order.
func (h *Hooks) Register(sink Sink) {
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

func (h *Hooks) snapshotSinks() []Sink {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sinks
}

// EmitConfigLoad notifies sinks that namespaceID published a new snapshot.
func (h *Hooks) EmitConfigLoad(featureCount int, source, result string) {
	if h == nil {
		return
	}
	ev := ConfigLoadEvent{
		ID:           h.idGen.Generate(),
		OccurredAt:   h.clock.Now(),
		NamespaceID:  h.namespaceID,
		FeatureCount: featureCount,
		Source:       source,
		Result:       result,
	}
	for _, s := range h.snapshotSinks() {
		h.safeCall(s, func(s Sink) { s.OnConfigLoad(ev) })
	}
}

// EmitEvaluation notifies sinks of one evaluate/evaluate_shadow call.
func (h *Hooks) EmitEvaluation(mode Mode, featureKey string, decision engine.Decision, duration time.Duration) {
	if h == nil {
		return
	}
	ev := EvaluationEvent{
		ID:            h.idGen.Generate(),
		OccurredAt:    h.clock.Now(),
		NamespaceID:   h.namespaceID,
		FeatureKey:    featureKey,
		Mode:          mode,
		Decision:      decision.Outcome,
		DurationNanos: duration.Nanoseconds(),
	}
	for _, s := range h.snapshotSinks() {
		h.safeCall(s, func(s Sink) { s.OnEvaluation(ev) })
	}
}

// EmitShadowMismatch notifies sinks of a baseline/candidate disagreement.
func (h *Hooks) EmitShadowMismatch(featureKey string, mismatch engine.Mismatch) {
	if h == nil {
		return
	}
	ev := ShadowMismatchEvent{
		ID:          h.idGen.Generate(),
		OccurredAt:  h.clock.Now(),
		NamespaceID: h.namespaceID,
		FeatureKey:  featureKey,
		Kinds:       mismatch.Kinds,
		Baseline:    mismatch.Baseline,
		Candidate:   mismatch.Candidate,
		StableID:    mismatch.StableID,
	}
	for _, s := range h.snapshotSinks() {
		h.safeCall(s, func(s Sink) { s.OnShadowMismatch(ev) })
	}
}

func (h *Hooks) safeCall(s Sink, call func(Sink)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[hooks] sink panicked: namespace=%s recovered=%v", h.namespaceID, r)
		}
	}()
	call(s)
}
