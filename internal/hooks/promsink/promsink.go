// Package promsink is a reference-host hooks.Sink that records
// evaluation, config-load, and shadow-mismatch events as Prometheus
// metrics. It is wiring, not core: konditional's evaluation path never
// imports this package, it is only registered onto a hooks.Hooks by
// the reference host at boot.
package promsink

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/amichne/konditional/internal/hooks"
)

// Sink implements hooks.Sink with a fixed set of counters, a latency
// histogram, and a gauge,
// one instance shared across every namespace's Hooks, labeled by
// namespace so a single registration covers the whole process.
type Sink struct {
	configLoads    *prometheus.CounterVec
	evaluations    *prometheus.CounterVec
	evaluationDur  *prometheus.HistogramVec
	shadowMismatch *prometheus.CounterVec
	activeFeatures *prometheus.GaugeVec
}

// New builds a Sink. Registerer is typically prometheus.DefaultRegisterer;
// passing a fresh prometheus.NewRegistry() is useful in tests that don't
// want to pollute the default registry.
func New(reg prometheus.Registerer) *Sink {
	s := &Sink{
		configLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "konditional_config_loads_total",
			Help: "Total snapshot publications per namespace, labeled by source and result",
		}, []string{"namespace", "source", "result"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "konditional_evaluations_total",
			Help: "Total flag evaluations, labeled by namespace, feature, mode, and outcome",
		}, []string{"namespace", "feature", "mode", "outcome"}),
		evaluationDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "konditional_evaluation_duration_seconds",
			Help:    "Evaluation latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"namespace", "feature"}),
		shadowMismatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "konditional_shadow_mismatches_total",
			Help: "Shadow evaluation disagreements between baseline and candidate, labeled by mismatch kind",
		}, []string{"namespace", "feature", "kind"}),
		activeFeatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "konditional_snapshot_features",
			Help: "Number of features in the most recently published snapshot",
		}, []string{"namespace"}),
	}
	reg.MustRegister(s.configLoads, s.evaluations, s.evaluationDur, s.shadowMismatch, s.activeFeatures)
	return s
}

func (s *Sink) OnConfigLoad(ev hooks.ConfigLoadEvent) {
	s.configLoads.WithLabelValues(ev.NamespaceID, ev.Source, ev.Result).Inc()
	s.activeFeatures.WithLabelValues(ev.NamespaceID).Set(float64(ev.FeatureCount))
}

func (s *Sink) OnEvaluation(ev hooks.EvaluationEvent) {
	s.evaluations.WithLabelValues(ev.NamespaceID, ev.FeatureKey, string(ev.Mode), string(ev.Decision)).Inc()
	s.evaluationDur.WithLabelValues(ev.NamespaceID, ev.FeatureKey).Observe(float64(ev.DurationNanos) / 1e9)
}

func (s *Sink) OnShadowMismatch(ev hooks.ShadowMismatchEvent) {
	for _, kind := range ev.Kinds {
		s.shadowMismatch.WithLabelValues(ev.NamespaceID, ev.FeatureKey, string(kind)).Inc()
	}
}

var _ hooks.Sink = (*Sink)(nil)
