// Package evalapi offers the public, total evaluation entry points
// spec.md §4.6 requires: an infallible Evaluate, a structured
// EvaluateResult, and EvaluateShadow for safe migration between two
// registries of the same feature. It generalizes internal/api's
// Evaluate/EvaluateAll response shaping to a generic value type T.
package evalapi

import (
	"time"

	"github.com/amichne/konditional/internal/engine"
	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/hooks"
	"github.com/amichne/konditional/internal/registry"
)

// Status is the coarse evaluate_result variant per spec.md §4.6.
type Status string

const (
	StatusSuccess        Status = "SUCCESS"
	StatusFlagNotFound   Status = "FLAG_NOT_FOUND"
	StatusPredicateError Status = "PREDICATE_ERROR"
	StatusKillSwitched   Status = "KILL_SWITCHED"
)

func statusOf(outcome engine.Outcome) Status {
	switch outcome {
	case engine.OutcomeFlagNotFound:
		return StatusFlagNotFound
	case engine.OutcomePredicateFail:
		return StatusPredicateError
	case engine.OutcomeKillSwitched:
		return StatusKillSwitched
	default:
		return StatusSuccess
	}
}

// Extractor projects a flagdef.Value into a concrete Go type T. Callers
// supply one extractor per value type when constructing an API[T]; see
// BoolExtractor, StringExtractor, IntExtractor, DoubleExtractor,
// EnumExtractor, and RecordExtractor below for the built-in value kinds.
type Extractor[T any] func(flagdef.Value) (T, bool)

func BoolExtractor(v flagdef.Value) (bool, bool)             { return v.Bool() }
func StringExtractor(v flagdef.Value) (string, bool)         { return v.String() }
func IntExtractor(v flagdef.Value) (int64, bool)             { return v.Int() }
func DoubleExtractor(v flagdef.Value) (float64, bool)        { return v.Double() }
func EnumExtractor(v flagdef.Value) (string, bool)           { return v.Enum() }
func RecordExtractor(v flagdef.Value) (map[string]any, bool) { return v.Record() }

// Result is the structured result of one evaluation: the projected value,
// the engine's full Decision, the status it implies, and the feature key
// it was evaluated for.
type Result[T any] struct {
	Value      T
	Decision   engine.Decision
	FeatureKey string
}

// Status reports which of Success/FlagNotFound/PredicateError/KillSwitched
// this result represents.
func (r Result[T]) Status() Status { return statusOf(r.Decision.Outcome) }

// ShadowOptions configures EvaluateShadow.
type ShadowOptions struct {
	// ObserveCandidate, when false, skips evaluating the candidate
	// registry entirely; no mismatch is ever reported in that case.
	ObserveCandidate bool
}

// DefaultShadowOptions observes the candidate on every shadow call.
func DefaultShadowOptions() ShadowOptions { return ShadowOptions{ObserveCandidate: true} }

// API is the public evaluation surface for value type T over one
// namespace registry. Construct one per (namespace, value type) pair the
// embedding host evaluates.
type API[T any] struct {
	registry *registry.Registry
	extract  Extractor[T]
	hooks    *hooks.Hooks
}

// New builds an API[T] backed by reg, projecting values with extract. h
// may be nil; a nil Hooks is a documented no-op (see hooks.Hooks).
func New[T any](reg *registry.Registry, extract Extractor[T], h *hooks.Hooks) *API[T] {
	return &API[T]{registry: reg, extract: extract, hooks: h}
}

// Evaluate is infallible: a kill-switch or a predicate error (including
// a recovered predicate panic) yields the flag's default, a declared
// feature with no flag definition yields its value type's zero value,
// and an unknown feature key yields T's zero value.
func (a *API[T]) Evaluate(featureKey string, ctx evalctx.Context) T {
	return a.EvaluateResult(featureKey, ctx).Value
}

// EvaluateResult runs the registry's rule evaluation for featureKey and
// projects the decision's value into T, emitting a structured Evaluation
// hook event.
func (a *API[T]) EvaluateResult(featureKey string, ctx evalctx.Context) Result[T] {
	start := time.Now()
	decision := a.registry.Evaluate(featureKey, ctx)
	value, _ := a.extract(decision.Value)

	a.hooks.EmitEvaluation(hooks.ModeDirect, featureKey, decision, time.Since(start))

	return Result[T]{Value: value, Decision: decision, FeatureKey: featureKey}
}

// EvaluateShadow evaluates featureKey against both this API's registry
// (the baseline, whose kill-switch governs the caller-facing value) and
// candidate, returning the baseline's projected value. When the two
// decisions disagree in value or outcome kind, onMismatch is invoked with
// the details; no registry state is ever mutated.
func (a *API[T]) EvaluateShadow(featureKey string, ctx evalctx.Context, candidate *registry.Registry, opts ShadowOptions, onMismatch func(*engine.Mismatch)) T {
	baselineFd, known := a.registry.FlagDefinition(featureKey)
	if !known {
		a.hooks.EmitEvaluation(hooks.ModeShadow, featureKey, engine.Decision{Outcome: engine.OutcomeFlagNotFound, MatchedAt: -1}, 0)
		var zero T
		return zero
	}

	if !opts.ObserveCandidate {
		start := time.Now()
		decision := engine.Evaluate(baselineFd, ctx)
		a.hooks.EmitEvaluation(hooks.ModeDirect, featureKey, decision, time.Since(start))
		value, _ := a.extract(decision.Value)
		return value
	}

	candidateFd, candidateKnown := candidate.FlagDefinition(featureKey)
	if !candidateKnown {
		candidateFd = baselineFd
	}

	start := time.Now()
	decision, mismatch := engine.Shadow(baselineFd, candidateFd, ctx)
	a.hooks.EmitEvaluation(hooks.ModeShadow, featureKey, decision, time.Since(start))
	if mismatch != nil {
		a.hooks.EmitShadowMismatch(featureKey, *mismatch)
		if onMismatch != nil {
			onMismatch(mismatch)
		}
	}

	value, _ := a.extract(decision.Value)
	return value
}
