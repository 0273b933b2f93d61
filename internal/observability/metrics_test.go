package observability

import (
	"testing"
	"time"

	"cskg-agent-be/pkg/orchestrator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.LoopFinished(orchestrator.SourceVector, orchestrator.StateExhausted, 3)
	m.LoopFinished(orchestrator.SourceGraph, orchestrator.StateAccept, 1)
	m.Escalated(true)
	m.QuestionAnswered(orchestrator.OutcomeAnswered, 14, 2*time.Second)
	m.QuestionAnswered(orchestrator.OutcomeRefused, 1, 100*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoopsTotal.WithLabelValues("vector", "EXHAUSTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoopsTotal.WithLabelValues("graph", "ACCEPT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EscalationsTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuestionsTotal.WithLabelValues("answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuestionsTotal.WithLabelValues("refused")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QuestionsTotal.WithLabelValues("failed")))
}
