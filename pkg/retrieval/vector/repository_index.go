package vector

import (
	"context"

	"cskg-agent-be/internal/repository/contract"
)

// RepositoryIndex serves similarity search from the pgvector-backed
// resource embedding table.
type RepositoryIndex struct {
	repo contract.ResourceEmbeddingRepository
}

var _ SimilarityIndex = &RepositoryIndex{}

func NewRepositoryIndex(repo contract.ResourceEmbeddingRepository) *RepositoryIndex {
	return &RepositoryIndex{repo: repo}
}

func (r *RepositoryIndex) Search(ctx context.Context, vec []float32, k int) ([]string, error) {
	resources, err := r.repo.SearchSimilar(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	contents := make([]string, 0, len(resources))
	for _, res := range resources {
		if res.Content != "" {
			contents = append(contents, res.Content)
		}
	}
	return contents, nil
}
