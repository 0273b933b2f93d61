package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/internal/repository/unitofwork"
	"cskg-agent-be/pkg/embedding"
	"cskg-agent-be/pkg/utils"

	"github.com/google/uuid"
)

const (
	resourceChunkSize    = 1200
	resourceChunkOverlap = 150
)

// IIndexingService loads unstructured resources into the similarity index
// searched by the vector retriever.
type IIndexingService interface {
	IndexResource(ctx context.Context, resourceId, title, content string) (int, error)
}

type indexingService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	logger     logger.ILogger
}

func NewIndexingService(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, log logger.ILogger) IIndexingService {
	return &indexingService{uowFactory: uowFactory, embedder: embedder, logger: log}
}

// IndexResource replaces every chunk stored for resourceId and returns the
// number of chunks written.
func (s *indexingService) IndexResource(ctx context.Context, resourceId, title, content string) (int, error) {
	chunks := utils.SplitText(content, resourceChunkSize, resourceChunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	now := time.Now()
	rows := make([]*entity.ResourceEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		text := chunk
		if title != "" {
			text = title + "\n\n" + chunk
		}
		res, err := s.embedder.Generate(ctx, text, embedding.TaskTypeRetrievalDocument)
		if err != nil {
			return 0, fmt.Errorf("embed %s chunk %d: %w", resourceId, i, err)
		}
		rows = append(rows, &entity.ResourceEmbedding{
			Id:             uuid.New(),
			ResourceId:     resourceId,
			Title:          title,
			Content:        strings.TrimSpace(chunk),
			EmbeddingValue: res.Embedding.Values,
			ChunkIndex:     i,
			CreatedAt:      now,
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	repo := uow.ResourceEmbeddingRepository()
	if err := repo.DeleteByResourceId(ctx, resourceId); err != nil {
		return 0, err
	}
	if err := repo.CreateBulk(ctx, rows); err != nil {
		return 0, err
	}
	if err := uow.Commit(); err != nil {
		return 0, err
	}

	s.logger.Info("IndexingService", "Resource indexed", map[string]interface{}{
		"resource_id": resourceId,
		"chunks":      len(rows),
	})
	return len(rows), nil
}
