package promsink

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/amichne/konditional/internal/engine"
	"github.com/amichne/konditional/internal/hooks"
)

func TestSink_OnConfigLoad_RecordsCounterAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.OnConfigLoad(hooks.ConfigLoadEvent{
		NamespaceID:  "checkout",
		FeatureCount: 7,
		Source:       "postgres",
		Result:       "ok",
	})

	if got := testutil.ToFloat64(s.configLoads.WithLabelValues("checkout", "postgres", "ok")); got != 1 {
		t.Errorf("expected configLoads=1, got %v", got)
	}
	if got := testutil.ToFloat64(s.activeFeatures.WithLabelValues("checkout")); got != 7 {
		t.Errorf("expected activeFeatures=7, got %v", got)
	}
}

func TestSink_OnEvaluation_RecordsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.OnEvaluation(hooks.EvaluationEvent{
		NamespaceID:   "checkout",
		FeatureKey:    "darkMode",
		Mode:          hooks.ModeDirect,
		Decision:      engine.OutcomeMatched,
		DurationNanos: int64(2 * time.Millisecond),
	})

	if got := testutil.ToFloat64(s.evaluations.WithLabelValues("checkout", "darkMode", "direct", "MATCHED")); got != 1 {
		t.Errorf("expected evaluations=1, got %v", got)
	}
}

func TestSink_OnShadowMismatch_RecordsOnePerKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.OnShadowMismatch(hooks.ShadowMismatchEvent{
		NamespaceID: "checkout",
		FeatureKey:  "darkMode",
		Kinds:       []engine.MismatchKind{engine.MismatchValue, engine.MismatchDecision},
	})

	if got := testutil.ToFloat64(s.shadowMismatch.WithLabelValues("checkout", "darkMode", "VALUE")); got != 1 {
		t.Errorf("expected VALUE mismatch=1, got %v", got)
	}
	if got := testutil.ToFloat64(s.shadowMismatch.WithLabelValues("checkout", "darkMode", "DECISION")); got != 1 {
		t.Errorf("expected DECISION mismatch=1, got %v", got)
	}
}

func TestSink_ImplementsHooksSink(t *testing.T) {
	var _ hooks.Sink = New(prometheus.NewRegistry())
}
