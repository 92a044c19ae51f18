// Package hooks carries structured observability events off the
// evaluation and load paths without altering their semantics. One Hooks
// instance is installed per namespace; its sinks run inline, synchronously,
// and must not block evaluation for long. A sink that panics is recovered
// and logged locally — it can never break evaluation or a snapshot load.
package hooks

import (
	"time"

	"github.com/amichne/konditional/internal/engine"
	"github.com/amichne/konditional/internal/evalctx"
)

// Mode distinguishes a direct evaluation from one taken during shadow
// evaluation of a candidate registry.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeShadow Mode = "shadow"
)

// ConfigLoadEvent is emitted whenever a registry publishes a new snapshot,
// whether via Load, Rollback, or DisableAll.
type ConfigLoadEvent struct {
	ID           string
	OccurredAt   time.Time
	NamespaceID  string
	FeatureCount int
	Source       string
	Result       string // "ok" or a failure reason
}

// EvaluationEvent is emitted for every evaluate/evaluate_shadow call.
type EvaluationEvent struct {
	ID            string
	OccurredAt    time.Time
	NamespaceID   string
	FeatureKey    string
	Mode          Mode
	Decision      engine.Outcome
	DurationNanos int64
}

// ShadowMismatchEvent is emitted when a shadow evaluation's baseline and
// candidate decisions disagree in value or outcome kind. No registry state
// is ever mutated by producing one.
type ShadowMismatchEvent struct {
	ID          string
	OccurredAt  time.Time
	NamespaceID string
	FeatureKey  string
	Kinds       []engine.MismatchKind
	Baseline    engine.Decision
	Candidate   engine.Decision
	StableID    evalctx.StableID
}

// Sink receives structured events. Implementations must tolerate
// concurrent invocation and must not perform slow, blocking work inline;
// a sink that needs to do I/O should queue internally (see promsink for an
// example that doesn't need to, since Prometheus counters are lock-free).
type Sink interface {
	OnConfigLoad(ConfigLoadEvent)
	OnEvaluation(EvaluationEvent)
	OnShadowMismatch(ShadowMismatchEvent)
}

// NopSink implements Sink with no-ops, for embedding in partial sinks that
// only care about a subset of the event shapes.
type NopSink struct{}

func (NopSink) OnConfigLoad(ConfigLoadEvent)         {}
func (NopSink) OnEvaluation(EvaluationEvent)         {}
func (NopSink) OnShadowMismatch(ShadowMismatchEvent) {}
