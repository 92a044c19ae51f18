package engine

import (
	"testing"

	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/version"
)

func mustContext(t *testing.T, locale, platform, v, external string) evalctx.Context {
	t.Helper()
	pv, err := version.Parse(v)
	if err != nil {
		t.Fatalf("version.Parse: %v", err)
	}
	id, err := evalctx.NewStableID(external)
	if err != nil {
		t.Fatalf("NewStableID: %v", err)
	}
	return evalctx.NewStatic(locale, platform, pv, id, nil)
}

// Scenario 1: iOS gating.
func TestEvaluate_IOSGating(t *testing.T) {
	rule, _ := flagdef.NewRule(flagdef.BoolValue(true), flagdef.NewConstraints().WithPlatforms("IOS"), 100)
	fd := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "darkMode"}, flagdef.BoolValue(false), true, "salt", rule)

	ios := mustContext(t, "UNITED_STATES", "IOS", "2.1.0", "user-1")
	decision := Evaluate(fd, ios)
	if got, _ := decision.Value.Bool(); !got {
		t.Fatalf("expected true for iOS context, got %v", decision.Value)
	}
	if decision.Outcome != OutcomeMatched {
		t.Fatalf("expected OutcomeMatched, got %v", decision.Outcome)
	}

	android := mustContext(t, "UNITED_STATES", "ANDROID", "2.1.0", "user-1")
	decision = Evaluate(fd, android)
	if got, _ := decision.Value.Bool(); got {
		t.Fatalf("expected false for android context, got %v", decision.Value)
	}
	if decision.Outcome != OutcomeDefault {
		t.Fatalf("expected OutcomeDefault, got %v", decision.Outcome)
	}
}

// Scenario 2: specificity.
func TestEvaluate_Specificity(t *testing.T) {
	ruleA, _ := flagdef.NewRule(
		flagdef.StringValue("https://api-ios-us.example.com"),
		flagdef.NewConstraints().WithPlatforms("IOS").WithLocales("UNITED_STATES"),
		100,
	)
	ruleB, _ := flagdef.NewRule(
		flagdef.StringValue("https://api-ios.example.com"),
		flagdef.NewConstraints().WithPlatforms("IOS"),
		100,
	)
	fd := flagdef.NewFlagDefinition(
		konfig.FeatureID{NamespaceID: "app", Key: "apiEndpoint"},
		flagdef.StringValue("https://api.example.com"),
		true, "salt", ruleA, ruleB,
	)

	iosUS := mustContext(t, "UNITED_STATES", "IOS", "1.0.0", "user-1")
	if v, _ := Evaluate(fd, iosUS).Value.String(); v != "https://api-ios-us.example.com" {
		t.Fatalf("expected most-specific rule to win, got %q", v)
	}

	iosFR := mustContext(t, "FR", "IOS", "1.0.0", "user-1")
	if v, _ := Evaluate(fd, iosFR).Value.String(); v != "https://api-ios.example.com" {
		t.Fatalf("expected less-specific rule to win for FR, got %q", v)
	}

	androidUS := mustContext(t, "UNITED_STATES", "ANDROID", "1.0.0", "user-1")
	if v, _ := Evaluate(fd, androidUS).Value.String(); v != "https://api.example.com" {
		t.Fatalf("expected default for android, got %q", v)
	}
}

// Scenario 4: allowlist override bypasses a 0% rampup.
func TestEvaluate_AllowlistBypassesRampup(t *testing.T) {
	testerID, _ := evalctx.NewStableID("tester-1")
	rule, _ := flagdef.NewRule(flagdef.BoolValue(true), flagdef.NewConstraints(), 0.0)
	fd := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "feature"}, flagdef.BoolValue(false), true, "salt", rule).
		WithAllowlist(testerID)

	testerCtx := mustContext(t, "US", "IOS", "1.0.0", "tester-1")
	if v, _ := Evaluate(fd, testerCtx).Value.Bool(); !v {
		t.Fatal("expected allowlisted stable id to bypass 0% rampup")
	}

	otherCtx := mustContext(t, "US", "IOS", "1.0.0", "someone-else")
	if v, _ := Evaluate(fd, otherCtx).Value.Bool(); v {
		t.Fatal("expected non-allowlisted stable id to get default at 0% rampup")
	}
}

func TestEvaluate_KillSwitchReturnsDefaultRegardlessOfRules(t *testing.T) {
	rule, _ := flagdef.NewRule(flagdef.BoolValue(true), flagdef.NewConstraints(), 100)
	fd := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, flagdef.BoolValue(false), false, "salt", rule)

	ctx := mustContext(t, "US", "IOS", "1.0.0", "user-1")
	decision := Evaluate(fd, ctx)
	if decision.Outcome != OutcomeKillSwitched {
		t.Fatalf("expected OutcomeKillSwitched, got %v", decision.Outcome)
	}
	if v, _ := decision.Value.Bool(); v {
		t.Fatal("expected default value when kill-switched")
	}
}

func TestEvaluate_EmptyRuleListReturnsDefault(t *testing.T) {
	fd := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, flagdef.StringValue("fallback"), true, "salt")
	ctx := mustContext(t, "US", "IOS", "1.0.0", "user-1")
	decision := Evaluate(fd, ctx)
	if decision.Outcome != OutcomeDefault {
		t.Fatalf("expected OutcomeDefault, got %v", decision.Outcome)
	}
}

func TestEvaluate_PredicateErrorDegradesToDefault(t *testing.T) {
	rule, _ := flagdef.NewRule(flagdef.BoolValue(true), flagdef.NewConstraints().WithCustom(panickingPredicate{}), 100)
	fd := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, flagdef.BoolValue(false), true, "salt", rule)

	ctx := mustContext(t, "US", "IOS", "1.0.0", "user-1")
	decision := Evaluate(fd, ctx)
	if decision.Outcome != OutcomePredicateFail {
		t.Fatalf("expected OutcomePredicateFail, got %v", decision.Outcome)
	}
	if decision.PredicateErr == nil {
		t.Fatal("expected a non-nil predicate error")
	}
	if v, _ := decision.Value.Bool(); v {
		t.Fatal("expected default value after predicate failure")
	}
}

type panickingPredicate struct{}

func (panickingPredicate) Match(ctx evalctx.Context) (bool, error) {
	panic("boom")
}

func TestShadow_ReturnsBaselineAndReportsMismatch(t *testing.T) {
	baselineRule, _ := flagdef.NewRule(flagdef.BoolValue(false), flagdef.NewConstraints(), 100)
	candidateRule, _ := flagdef.NewRule(flagdef.BoolValue(true), flagdef.NewConstraints(), 100)

	baseline := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, flagdef.BoolValue(false), true, "salt", baselineRule)
	candidate := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, flagdef.BoolValue(false), true, "salt", candidateRule)

	ctx := mustContext(t, "US", "IOS", "1.0.0", "user-1")
	decision, mismatch := Shadow(baseline, candidate, ctx)

	if v, _ := decision.Value.Bool(); v {
		t.Fatal("expected Shadow to return the baseline value")
	}
	if mismatch == nil {
		t.Fatal("expected a mismatch to be reported")
	}
	if len(mismatch.Kinds) == 0 || mismatch.Kinds[0] != MismatchValue {
		t.Fatalf("expected a VALUE mismatch, got %v", mismatch.Kinds)
	}
}

func TestShadow_NoMismatchWhenIdentical(t *testing.T) {
	rule, _ := flagdef.NewRule(flagdef.BoolValue(true), flagdef.NewConstraints(), 100)
	def := flagdef.NewFlagDefinition(konfig.FeatureID{NamespaceID: "app", Key: "f"}, flagdef.BoolValue(false), true, "salt", rule)

	ctx := mustContext(t, "US", "IOS", "1.0.0", "user-1")
	_, mismatch := Shadow(def, def, ctx)
	if mismatch != nil {
		t.Fatalf("expected no mismatch for identical definitions, got %+v", mismatch)
	}
}
