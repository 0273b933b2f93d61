package contract

import (
	"context"

	"cskg-agent-be/internal/entity"
)

type ResourceEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.ResourceEmbedding) error
	DeleteByResourceId(ctx context.Context, resourceId string) error
	Count(ctx context.Context) (int64, error)
	// SearchSimilar orders by cosine distance to embedding, nearest first.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*entity.ResourceEmbedding, error)
}
