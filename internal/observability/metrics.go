// Package observability exposes Prometheus metrics for the question pipeline.
package observability

import (
	"time"

	"cskg-agent-be/pkg/orchestrator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cskg"

// PipelineMetrics implements orchestrator.Observer.
type PipelineMetrics struct {
	// QuestionsTotal labels: outcome (answered, refused, no_data, failed)
	QuestionsTotal *prometheus.CounterVec

	// LoopsTotal labels: source (vector, graph), state (ACCEPT, EXHAUSTED)
	LoopsTotal *prometheus.CounterVec

	// LoopRetries labels: source
	LoopRetries *prometheus.HistogramVec

	// EscalationsTotal labels: escalated (true, false)
	EscalationsTotal *prometheus.CounterVec

	QuestionDuration *prometheus.HistogramVec
	QuestionSteps    prometheus.Histogram
}

var _ orchestrator.Observer = (*PipelineMetrics)(nil)

// NewPipelineMetrics registers the pipeline metrics on reg.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		QuestionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "questions_total",
			Help:      "Questions processed, by outcome.",
		}, []string{"outcome"}),
		LoopsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "retrieval_loops_total",
			Help:      "Retrieval loops finished, by source and terminal state.",
		}, []string{"source", "state"}),
		LoopRetries: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "retrieval_loop_attempts",
			Help:      "Attempts used by a retrieval loop before it terminated.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}, []string{"source"}),
		EscalationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "escalations_total",
			Help:      "Escalation decisions after log retrieval.",
		}, []string{"escalated"}),
		QuestionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "question_duration_seconds",
			Help:      "End to end latency of one question.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		QuestionSteps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "question_steps",
			Help:      "Pipeline steps charged against the step budget.",
			Buckets:   prometheus.LinearBuckets(2, 4, 8),
		}),
	}
}

func (m *PipelineMetrics) LoopFinished(source orchestrator.Source, state orchestrator.LoopState, retryCount int) {
	m.LoopsTotal.WithLabelValues(string(source), string(state)).Inc()
	m.LoopRetries.WithLabelValues(string(source)).Observe(float64(retryCount))
}

func (m *PipelineMetrics) Escalated(escalated bool) {
	label := "false"
	if escalated {
		label = "true"
	}
	m.EscalationsTotal.WithLabelValues(label).Inc()
}

func (m *PipelineMetrics) QuestionAnswered(outcome orchestrator.Outcome, steps int, elapsed time.Duration) {
	m.QuestionsTotal.WithLabelValues(string(outcome)).Inc()
	m.QuestionDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
	m.QuestionSteps.Observe(float64(steps))
}
