package entity

import (
	"time"

	"github.com/google/uuid"
)

// ResourceEmbedding is one embedded chunk of an unstructured security
// resource (report, advisory, technique write-up).
type ResourceEmbedding struct {
	Id             uuid.UUID
	ResourceId     string
	Title          string
	Content        string
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
