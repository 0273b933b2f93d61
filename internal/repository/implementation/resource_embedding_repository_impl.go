package implementation

import (
	"context"

	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/mapper"
	"cskg-agent-be/internal/model"
	"cskg-agent-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ResourceEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ResourceEmbeddingMapper
}

func NewResourceEmbeddingRepository(db *gorm.DB) contract.ResourceEmbeddingRepository {
	return &ResourceEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewResourceEmbeddingMapper(),
	}
}

func (r *ResourceEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.ResourceEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.ResourceEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}

	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ResourceEmbeddingRepositoryImpl) DeleteByResourceId(ctx context.Context, resourceId string) error {
	return r.db.WithContext(ctx).Where("resource_id = ?", resourceId).Delete(&model.ResourceEmbedding{}).Error
}

func (r *ResourceEmbeddingRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ResourceEmbedding{}).Count(&count).Error
	return count, err
}

func (r *ResourceEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*entity.ResourceEmbedding, error) {
	if limit <= 0 {
		limit = 4
	}
	var models []*model.ResourceEmbedding

	// <=> is pgvector cosine distance
	err := r.db.WithContext(ctx).
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(models), nil
}
