// Package metrics exports workflow telemetry as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure Observer implements the interface.
var _ driven.WorkflowObserver = (*Observer)(nil)

// Namespace prefixes every metric name.
const Namespace = "galassia"

// Run outcomes.
const (
	OutcomeAnswered      = "answered"
	OutcomeLowConfidence = "low_confidence"
	OutcomeFailed        = "failed"
)

// Observer records stage, judgment and run metrics.
type Observer struct {
	stages        *prometheus.HistogramVec
	judgments     *prometheus.CounterVec
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	regenerations prometheus.Histogram
}

// NewObserver creates an observer and registers its collectors with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of workflow stages.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage"}),
		judgments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "judgments_total",
			Help:      "Structured LLM calls by prompt and result.",
		}, []string{"prompt", "result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Finished workflow runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of workflow runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		regenerations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_regenerations",
			Help:      "Answer regenerations per run.",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		}),
	}

	for _, c := range []prometheus.Collector{o.stages, o.judgments, o.runs, o.runDuration, o.regenerations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ObserveStage records one executed stage.
func (o *Observer) ObserveStage(stage domain.Stage, elapsed time.Duration) {
	o.stages.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
}

// ObserveJudgment records one structured call.
func (o *Observer) ObserveJudgment(prompt string, err error) {
	o.judgments.WithLabelValues(prompt, judgmentResult(err)).Inc()
}

// ObserveRun records a finished run.
func (o *Observer) ObserveRun(result domain.WorkflowResult, elapsed time.Duration, err error) {
	outcome := OutcomeAnswered
	switch {
	case err != nil:
		outcome = OutcomeFailed
	case result.LowConfidence:
		outcome = OutcomeLowConfidence
	}
	o.runs.WithLabelValues(outcome).Inc()
	o.runDuration.Observe(elapsed.Seconds())
	if err == nil {
		o.regenerations.Observe(float64(result.State.Regenerations))
	}
}

func judgmentResult(err error) string {
	if err == nil {
		return "ok"
	}
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return string(genErr.Kind)
	}
	return "error"
}
