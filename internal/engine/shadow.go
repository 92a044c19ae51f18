package engine

import (
	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/flagdef"
)

// MismatchKind tags what differed between a baseline and candidate
// shadow decision.
type MismatchKind string

const (
	MismatchValue    MismatchKind = "VALUE"
	MismatchDecision MismatchKind = "DECISION"
)

// Mismatch records a shadow-evaluation disagreement between the
// baseline and candidate definitions for the same feature and context.
// No registry state is ever mutated by producing one.
type Mismatch struct {
	Kinds     []MismatchKind
	Baseline  Decision
	Candidate Decision
	StableID  evalctx.StableID
}

// Shadow evaluates the same context against both a baseline and a
// candidate flag definition. It always returns the baseline's
// Decision; when baseline and candidate disagree in value or outcome
// kind, it also returns a non-nil Mismatch for the caller to observe.
// The baseline's kill-switch governs the caller-facing value; the
// candidate is still evaluated underneath so mismatches can be
// observed even while the candidate is inactive.
func Shadow(baseline, candidate *flagdef.FlagDefinition, ctx evalctx.Context) (Decision, *Mismatch) {
	baseDecision := Evaluate(baseline, ctx)
	candDecision := Evaluate(candidate, ctx)

	var kinds []MismatchKind
	if !baseDecision.Value.Equal(candDecision.Value) {
		kinds = append(kinds, MismatchValue)
	}
	if baseDecision.Outcome != candDecision.Outcome {
		kinds = append(kinds, MismatchDecision)
	}
	if len(kinds) == 0 {
		return baseDecision, nil
	}

	return baseDecision, &Mismatch{
		Kinds:     kinds,
		Baseline:  baseDecision,
		Candidate: candDecision,
		StableID:  ctx.StableID(),
	}
}
