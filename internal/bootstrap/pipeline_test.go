package bootstrap

import (
	"context"
	"testing"

	"cskg-agent-be/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestNewSimilarityIndex(t *testing.T) {
	ctx := context.Background()

	_, err := newSimilarityIndex(ctx, nil, &config.Config{Vector: config.VectorConfig{Backend: "pgvector"}})
	assert.ErrorContains(t, err, "requires a database")

	_, err = newSimilarityIndex(ctx, nil, &config.Config{Vector: config.VectorConfig{Backend: "faiss"}})
	assert.ErrorContains(t, err, "unsupported vector backend")
}

func TestBaseURLs(t *testing.T) {
	cfg := &config.Config{Ai: config.AIConfig{
		LLMProvider:       "openai",
		EmbeddingProvider: "ollama",
		OllamaBaseURL:     "http://ollama:11434",
		OpenAIBaseURL:     "https://api.example.com/v1",
	}}
	assert.Equal(t, "https://api.example.com/v1", llmBaseURL(cfg))
	assert.Equal(t, "http://ollama:11434", embeddingBaseURL(cfg))
}

func TestUnavailableKnowledge(t *testing.T) {
	_, err := unavailableKnowledge{}.Query(context.Background(), "what is T1059?")
	assert.ErrorIs(t, err, errKnowledgeUnavailable)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	assert.Nil(t, newRedisClient(context.Background(), ""))
}
