package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/pkg/embedding"
	"cskg-agent-be/pkg/graphdb"
	"cskg-agent-be/pkg/retrieval"
)

const neighbourhoodQuery = `CALL db.index.fulltext.queryNodes($index, $query, {limit:2})
YIELD node, score
MATCH (node)-[r]-(neighbor)
WHERE node.ns1__title IS NOT NULL AND neighbor.ns1__title IS NOT NULL
RETURN CASE
    WHEN startNode(r) = node
    THEN node.ns1__title + ' - ' + type(r) + ' -> ' + neighbor.ns1__title
    ELSE neighbor.ns1__title + ' - ' + type(r) + ' -> ' + node.ns1__title
END AS output
LIMIT 50`

type EntityExtractor interface {
	ExtractEntities(ctx context.Context, question string) ([]string, error)
}

// SimilarityIndex returns the contents of the k documents nearest to vec.
type SimilarityIndex interface {
	Search(ctx context.Context, vec []float32, k int) ([]string, error)
}

type Adapter struct {
	runner        graphdb.QueryRunner
	extractor     EntityExtractor
	embedder      embedding.EmbeddingProvider
	index         SimilarityIndex
	fulltextIndex string
	topK          int
	logger        logger.ILogger
}

func NewAdapter(
	runner graphdb.QueryRunner,
	extractor EntityExtractor,
	embedder embedding.EmbeddingProvider,
	index SimilarityIndex,
	fulltextIndex string,
	topK int,
	log logger.ILogger,
) *Adapter {
	if fulltextIndex == "" {
		fulltextIndex = "entity"
	}
	if topK <= 0 {
		topK = 4
	}
	return &Adapter{
		runner:        runner,
		extractor:     extractor,
		embedder:      embedder,
		index:         index,
		fulltextIndex: fulltextIndex,
		topK:          topK,
		logger:        log,
	}
}

// Query combines the structured neighbourhood of the entities named in the
// question with unstructured similarity hits. A half that fails is left
// empty; an error is returned only when both halves fail.
func (a *Adapter) Query(ctx context.Context, question string) (retrieval.VectorResult, error) {
	facts, structErr := a.structured(ctx, question)
	if structErr != nil {
		a.logger.Warn("vector_adapter", "Structured retrieval failed", map[string]interface{}{"error": structErr.Error()})
	}

	snippets, unstructErr := a.unstructured(ctx, question)
	if unstructErr != nil {
		a.logger.Warn("vector_adapter", "Similarity search failed", map[string]interface{}{"error": unstructErr.Error()})
	}

	if structErr != nil && unstructErr != nil {
		return retrieval.VectorResult{}, fmt.Errorf("vector search: %w", errors.Join(structErr, unstructErr))
	}

	a.logger.Info("vector_adapter", "Vector search completed", map[string]interface{}{
		"has_facts": facts != "",
		"snippets":  len(snippets),
	})

	return retrieval.VectorResult{StructuredFacts: facts, UnstructuredSnippets: snippets}, nil
}

func (a *Adapter) structured(ctx context.Context, question string) (string, error) {
	entities, err := a.extractor.ExtractEntities(ctx, question)
	if err != nil {
		return "", fmt.Errorf("extract entities: %w", err)
	}

	lines := make([]string, 0)
	seen := make(map[string]bool)
	for _, entity := range entities {
		query := FullTextQuery(entity)
		if query == "" {
			continue
		}
		rows, err := a.runner.Run(ctx, neighbourhoodQuery, map[string]any{
			"index": a.fulltextIndex,
			"query": query,
		})
		if err != nil {
			return "", fmt.Errorf("neighbourhood of %q: %w", entity, err)
		}
		for _, row := range rows {
			out, _ := row["output"].(string)
			if out == "" || seen[out] {
				continue
			}
			seen[out] = true
			lines = append(lines, out)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (a *Adapter) unstructured(ctx context.Context, question string) ([]string, error) {
	resp, err := a.embedder.Generate(ctx, question, embedding.TaskTypeRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	return a.index.Search(ctx, resp.Embedding.Values, a.topK)
}
