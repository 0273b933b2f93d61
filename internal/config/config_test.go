package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 3, cfg.Orchestrator.MaxRetries)
	assert.Equal(t, 30, cfg.Orchestrator.StepBudget)
	assert.Equal(t, 60*time.Second, cfg.Orchestrator.AdapterTimeout)
	assert.False(t, cfg.Orchestrator.ParallelRetrieval)
	assert.Equal(t, "pgvector", cfg.Vector.Backend)
	assert.Equal(t, 30, cfg.Knowledge.MaxSteps)
	assert.False(t, cfg.Otel.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Otel.Endpoint)
	assert.Equal(t, "cskg-agent-be", cfg.Otel.ServiceName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("STEP_BUDGET", "50")
	t.Setenv("ADAPTER_TIMEOUT", "5s")
	t.Setenv("PARALLEL_RETRIEVAL", "true")
	t.Setenv("LLM_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")

	cfg := Load()

	assert.Equal(t, 5, cfg.Orchestrator.MaxRetries)
	assert.Equal(t, 50, cfg.Orchestrator.StepBudget)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.AdapterTimeout)
	assert.True(t, cfg.Orchestrator.ParallelRetrieval)
	assert.Equal(t, 2.5, cfg.Ai.RequestsPerSecond)
	assert.True(t, cfg.Otel.Enabled)
	assert.Equal(t, "collector:4318", cfg.Otel.Endpoint)
	assert.Equal(t, 0.25, cfg.Otel.SampleRatio)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_RETRIES", "three")
	t.Setenv("ADAPTER_TIMEOUT", "soon")
	t.Setenv("PARALLEL_RETRIEVAL", "maybe")

	cfg := Load()

	assert.Equal(t, 3, cfg.Orchestrator.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.Orchestrator.AdapterTimeout)
	assert.False(t, cfg.Orchestrator.ParallelRetrieval)
}
