package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cskg-agent-be/internal/config"
	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/internal/repository/unitofwork"
	"cskg-agent-be/pkg/embedding"
	"cskg-agent-be/pkg/graphdb"
	"cskg-agent-be/pkg/judgment"
	"cskg-agent-be/pkg/llm/factory"
	"cskg-agent-be/pkg/mcpclient"
	"cskg-agent-be/pkg/orchestrator"
	"cskg-agent-be/pkg/retrieval/graph"
	"cskg-agent-be/pkg/retrieval/knowledge"
	"cskg-agent-be/pkg/retrieval/vector"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const schemaCacheTTL = 10 * time.Minute

// Closer releases connections opened while building the pipeline.
type Closer func()

var errKnowledgeUnavailable = errors.New("knowledge server unavailable")

type unavailableKnowledge struct{}

func (unavailableKnowledge) Query(context.Context, string) (string, error) {
	return "", errKnowledgeUnavailable
}

// NewAnswerPipeline connects the judgment model and the three retrievers.
// db may be nil when the vector backend does not need Postgres.
func NewAnswerPipeline(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger, opts ...orchestrator.Option) (*orchestrator.Pipeline, Closer, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// 1. Judgment model
	llmProvider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider:          cfg.Ai.LLMProvider,
		Model:             cfg.Ai.LLMModel,
		BaseURL:           llmBaseURL(cfg),
		APIKey:            cfg.Ai.OpenAIKey,
		RequestsPerSecond: cfg.Ai.RequestsPerSecond,
	})
	if err != nil {
		return nil, nil, err
	}

	catalog, err := judgment.LoadCatalog(cfg.Ai.PromptsPath)
	if err != nil {
		return nil, nil, err
	}
	judge := judgment.NewService(llmProvider, catalog, sysLogger)

	// 2. Knowledge graph
	runner, err := graphdb.NewNeo4jRunner(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, func() { _ = runner.Close(context.Background()) })

	schema := graph.NewSchemaProvider(runner, cfg.Graph.SchemaPath, schemaCacheTTL)
	graphAdapter := graph.NewAdapter(runner, judge, schema, cfg.Graph.TopK, sysLogger)

	// 3. Embeddings + similarity index
	embedder, err := NewEmbeddingProvider(cfg)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	if rdb := newRedisClient(ctx, cfg.App.RedisURL); rdb != nil {
		embedder = embedding.NewCachedProvider(embedder, rdb, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingCacheTTL)
		closers = append(closers, func() { _ = rdb.Close() })
	}

	index, err := newSimilarityIndex(ctx, db, cfg)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	vectorAdapter := vector.NewAdapter(runner, judge, embedder, index, cfg.Graph.FulltextIndex, cfg.Vector.TopK, sysLogger)

	// 4. Knowledge server
	var knowledgeRetriever orchestrator.KnowledgeRetriever = unavailableKnowledge{}
	mcp, err := mcpclient.Connect(ctx, cfg.Knowledge.ServerURL, cfg.Knowledge.Transport)
	if err != nil {
		log.Printf("[WARN] Failed to connect to knowledge server: %v", err)
	} else {
		closers = append(closers, func() { _ = mcp.Close() })
		knowledgeRetriever = knowledge.NewAgent(mcp, judge, cfg.Knowledge.MaxSteps, sysLogger)
	}

	pipeline := orchestrator.NewPipeline(
		judge,
		graphAdapter,
		vectorAdapter,
		knowledgeRetriever,
		orchestrator.Config{
			MaxRetries:     cfg.Orchestrator.MaxRetries,
			StepBudget:     cfg.Orchestrator.StepBudget,
			AdapterTimeout: cfg.Orchestrator.AdapterTimeout,
			Parallel:       cfg.Orchestrator.ParallelRetrieval,
		},
		sysLogger,
		opts...,
	)
	return pipeline, closeAll, nil
}

// NewEmbeddingProvider builds the uncached provider named in cfg.
func NewEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	return embedding.NewProvider(embedding.ProviderConfig{
		Provider: cfg.Ai.EmbeddingProvider,
		Model:    cfg.Ai.EmbeddingModel,
		BaseURL:  embeddingBaseURL(cfg),
		APIKey:   cfg.Ai.OpenAIKey,
	})
}

func newSimilarityIndex(ctx context.Context, db *gorm.DB, cfg *config.Config) (vector.SimilarityIndex, error) {
	switch cfg.Vector.Backend {
	case "", "pgvector":
		if db == nil {
			return nil, errors.New("pgvector backend requires a database connection")
		}
		repo := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx).ResourceEmbeddingRepository()
		return vector.NewRepositoryIndex(repo), nil
	case "weaviate":
		return vector.NewWeaviateIndex(cfg.Vector.WeaviateHost, cfg.Vector.WeaviateScheme, cfg.Vector.WeaviateClass)
	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.Vector.Backend)
	}
}

// newRedisClient returns nil when Redis is unreachable; embeddings are then
// computed on every call.
func newRedisClient(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "openai" {
		return cfg.Ai.OpenAIBaseURL
	}
	return cfg.Ai.OllamaBaseURL
}

func embeddingBaseURL(cfg *config.Config) string {
	if cfg.Ai.EmbeddingProvider == "openai" {
		return cfg.Ai.OpenAIBaseURL
	}
	return cfg.Ai.OllamaBaseURL
}
