package mapper

import (
	"time"

	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ResourceEmbeddingMapper struct{}

func NewResourceEmbeddingMapper() *ResourceEmbeddingMapper {
	return &ResourceEmbeddingMapper{}
}

func (m *ResourceEmbeddingMapper) ToEntity(e *model.ResourceEmbedding) *entity.ResourceEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.ResourceEmbedding{
		Id:             e.Id,
		ResourceId:     e.ResourceId,
		Title:          e.Title,
		Content:        e.Content,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ResourceEmbeddingMapper) ToModel(e *entity.ResourceEmbedding) *model.ResourceEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.ResourceEmbedding{
		Id:             e.Id,
		ResourceId:     e.ResourceId,
		Title:          e.Title,
		Content:        e.Content,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ResourceEmbeddingMapper) ToEntities(models []*model.ResourceEmbedding) []*entity.ResourceEmbedding {
	entities := make([]*entity.ResourceEmbedding, len(models))
	for i, e := range models {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
