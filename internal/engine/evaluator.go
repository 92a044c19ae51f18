package engine

import (
	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/rollout"
)

// Evaluate produces a deterministic Decision for a flag definition and
// context. It assumes fd is the definition currently in effect for the
// feature (override substitution and flag-not-found handling happen
// one layer up, in the registry, where the snapshot lookup occurs).
func Evaluate(fd *flagdef.FlagDefinition, ctx evalctx.Context) Decision {
	if !fd.Active {
		return Decision{Value: fd.Default, Outcome: OutcomeKillSwitched, MatchedAt: -1}
	}

	var predicateErr error
	stableID := ctx.StableID()

	for i, rule := range fd.OrderedRules() {
		if !rule.baseMatch(ctx) {
			continue
		}

		matched, err := rule.customMatch(ctx)
		if err != nil {
			if predicateErr == nil {
				predicateErr = err
			}
			continue
		}
		if !matched {
			continue
		}

		if admitted := isAllowlisted(fd, rule, stableID); admitted {
			return Decision{Value: rule.Value, Outcome: OutcomeMatched, MatchedAt: i, Note: rule.Note}
		}

		admitted, err := rollout.Admit(fd.Salt, fd.FeatureID.Key, stableID, rule.RampUp)
		if err != nil {
			if predicateErr == nil {
				predicateErr = err
			}
			continue
		}
		if admitted {
			return Decision{Value: rule.Value, Outcome: OutcomeMatched, MatchedAt: i, Note: rule.Note}
		}
	}

	outcome := OutcomeDefault
	if predicateErr != nil {
		outcome = OutcomePredicateFail
	}
	return Decision{Value: fd.Default, Outcome: outcome, MatchedAt: -1, PredicateErr: predicateErr}
}

// isAllowlisted reports whether stableID bypasses the rollout bucket
// check for rule, via either the feature-scope allowlist or the
// rule-scope allowlist.
func isAllowlisted(fd *flagdef.FlagDefinition, rule flagdef.Rule, stableID evalctx.StableID) bool {
	return fd.Allows(stableID) || rule.Allows(stableID)
}
