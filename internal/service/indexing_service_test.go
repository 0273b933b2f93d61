package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func vec(v ...float32) *embedding.EmbeddingResponse {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: v}}
}

func TestIndexResource_ReplacesChunks(t *testing.T) {
	factory, _ := newFactory()
	embeddings := factory.uow.embeddings
	embedder := new(mockEmbedder)

	content := strings.Repeat("Adversaries may abuse PowerShell commands and scripts for execution. ", 40)
	embedder.On("Generate", mock.Anything, mock.MatchedBy(func(s string) bool {
		return strings.HasPrefix(s, "T1059.001\n\n")
	}), embedding.TaskTypeRetrievalDocument).Return(vec(0.1, 0.2), nil)

	embeddings.On("DeleteByResourceId", mock.Anything, "attack/T1059.001").Return(nil).Once()
	var stored []*entity.ResourceEmbedding
	embeddings.On("CreateBulk", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).([]*entity.ResourceEmbedding) }).
		Return(nil).Once()

	n, err := NewIndexingService(factory, embedder, logger.NewNopLogger()).
		IndexResource(context.Background(), "attack/T1059.001", "T1059.001", content)
	require.NoError(t, err)

	assert.Greater(t, n, 1)
	require.Len(t, stored, n)
	for i, row := range stored {
		assert.Equal(t, i, row.ChunkIndex)
		assert.Equal(t, "attack/T1059.001", row.ResourceId)
		assert.Equal(t, []float32{0.1, 0.2}, row.EmbeddingValue)
	}
	assert.Equal(t, 1, factory.uow.committed)
	embeddings.AssertExpectations(t)
}

func TestIndexResource_EmbeddingFailureWritesNothing(t *testing.T) {
	factory, _ := newFactory()
	embedder := new(mockEmbedder)
	embedder.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("model not loaded")).Once()

	_, err := NewIndexingService(factory, embedder, logger.NewNopLogger()).
		IndexResource(context.Background(), "r1", "", "some advisory text")
	require.Error(t, err)
	assert.Equal(t, 0, factory.uow.began)
	factory.uow.embeddings.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything)
}

func TestIndexResource_EmptyContent(t *testing.T) {
	factory, _ := newFactory()
	n, err := NewIndexingService(factory, new(mockEmbedder), logger.NewNopLogger()).
		IndexResource(context.Background(), "r1", "", "   ")
	require.NoError(t, err)
	assert.Zero(t, n)
}
