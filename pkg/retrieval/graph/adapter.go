package graph

import (
	"context"
	"fmt"

	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/pkg/graphdb"
	"cskg-agent-be/pkg/retrieval"
)

const schemaUnavailable = "Schema unavailable."

type CypherGenerator interface {
	GenerateCypher(ctx context.Context, schema, question string) (string, error)
}

// Adapter turns a question into a read-only cypher query, runs it and
// returns at most topK rows. It never returns an error: failures are
// described in GeneratedQuery and leave Rows empty.
type Adapter struct {
	runner    graphdb.QueryRunner
	generator CypherGenerator
	schema    *SchemaProvider
	topK      int
	logger    logger.ILogger
}

func NewAdapter(runner graphdb.QueryRunner, generator CypherGenerator, schema *SchemaProvider, topK int, log logger.ILogger) *Adapter {
	if topK <= 0 {
		topK = 10
	}
	return &Adapter{
		runner:    runner,
		generator: generator,
		schema:    schema,
		topK:      topK,
		logger:    log,
	}
}

// Schema returns the schema text for reflection prompts.
func (a *Adapter) Schema(ctx context.Context) string {
	schema, err := a.schema.Get(ctx)
	if err != nil {
		a.logger.Warn("graph_adapter", "Schema lookup failed", map[string]interface{}{"error": err.Error()})
		return schemaUnavailable
	}
	return schema
}

func (a *Adapter) Query(ctx context.Context, question string) retrieval.GraphResult {
	schema := a.Schema(ctx)

	raw, err := a.generator.GenerateCypher(ctx, schema, question)
	if err != nil {
		a.logger.Error("graph_adapter", "Cypher generation failed", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return retrieval.GraphResult{GeneratedQuery: fmt.Sprintf("Failed to generate Cypher query: %v", err)}
	}

	query := CleanQuery(raw)
	if err := EnsureReadOnly(query); err != nil {
		a.logger.Warn("graph_adapter", "Rejected generated query", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return retrieval.GraphResult{GeneratedQuery: fmt.Sprintf("%s\n// rejected: %v", query, err)}
	}

	rows, err := a.runner.Run(ctx, query, nil)
	if err != nil {
		a.logger.Warn("graph_adapter", "Cypher execution failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return retrieval.GraphResult{GeneratedQuery: fmt.Sprintf("%s\n// execution failed: %v", query, err)}
	}

	if len(rows) > a.topK {
		rows = rows[:a.topK]
	}

	a.logger.Info("graph_adapter", "Cypher query executed", map[string]interface{}{
		"query": query,
		"rows":  len(rows),
	})

	return retrieval.GraphResult{GeneratedQuery: query, Rows: rows}
}
