package orchestrator

import (
	"context"

	"cskg-agent-be/pkg/judgment"
	"cskg-agent-be/pkg/retrieval"
)

// Judge is the subset of the judgment service the pipeline depends on.
type Judge interface {
	ClassifyRelevance(ctx context.Context, question string) (judgment.RelevanceResult, error)
	RouteQuestion(ctx context.Context, question string) (judgment.RouteResult, error)
	ReviewSufficiency(ctx context.Context, question, evidence string) (judgment.ReviewResult, error)
	RewriteForVector(ctx context.Context, originalQuestion, failedContext string) (string, error)
	RewriteForGraph(ctx context.Context, originalQuestion, schema, failedQuery string) (string, error)
	AnalyzeLogs(ctx context.Context, originalQuestion, vectorContext, graphContext string) (judgment.LogAnalysisResult, error)
	WriteReport(ctx context.Context, vars judgment.ReportVars) (string, error)
}

// GraphRetriever never fails; problems come back as rows-free results.
type GraphRetriever interface {
	Query(ctx context.Context, question string) retrieval.GraphResult
	Schema(ctx context.Context) string
}

type VectorRetriever interface {
	Query(ctx context.Context, question string) (retrieval.VectorResult, error)
}

type KnowledgeRetriever interface {
	Query(ctx context.Context, question string) (string, error)
}
