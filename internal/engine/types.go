// Package engine implements deterministic targeting-rule evaluation:
// rule ordering by specificity, rollout admission, kill-switch and
// allowlist precedence, and shadow evaluation for safe migration
// between two configurations of the same feature.
package engine

import (
	"github.com/amichne/konditional/internal/flagdef"
)

// Outcome tags the kind of decision an evaluation reached.
type Outcome string

const (
	OutcomeMatched       Outcome = "MATCHED"
	OutcomeDefault       Outcome = "DEFAULT"
	OutcomeFlagNotFound  Outcome = "FLAG_NOT_FOUND"
	OutcomeKillSwitched  Outcome = "KILL_SWITCHED"
	OutcomePredicateFail Outcome = "PREDICATE_ERROR"
)

// Decision is the full, reproducible result of one evaluation: the
// value returned, which outcome produced it, and (when a rule matched)
// the rule's note for observability.
type Decision struct {
	Value        flagdef.Value
	Outcome      Outcome
	MatchedAt    int // index into OrderedRules(), -1 when no rule matched
	Note         string
	PredicateErr error
}
