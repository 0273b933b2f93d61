package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Graph        GraphConfig
	Vector       VectorConfig
	Ai           AIConfig
	Knowledge    KnowledgeConfig
	Orchestrator OrchestratorConfig
	Otel         OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string // empty disables auth on /api
	QuestionTopic      string // watermill topic for async questions
}

type DatabaseConfig struct {
	Connection string
}

type GraphConfig struct {
	URI           string
	Username      string
	Password      string
	Database      string
	SchemaPath    string // optional static schema description; introspected when empty
	FulltextIndex string
	TopK          int
}

type VectorConfig struct {
	Backend        string // "pgvector" or "weaviate"
	TopK           int
	WeaviateHost   string
	WeaviateScheme string
	WeaviateClass  string
}

type AIConfig struct {
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	OllamaBaseURL     string
	OpenAIKey         string
	OpenAIBaseURL     string
	EmbeddingProvider string // "ollama" or "openai"
	EmbeddingModel    string
	RequestsPerSecond float64 // 0 disables limiting
	EmbeddingCacheTTL time.Duration
	PromptsPath       string
}

type KnowledgeConfig struct {
	ServerURL string
	Transport string // "sse" or "http"
	MaxSteps  int
}

type OrchestratorConfig struct {
	MaxRetries        int
	StepBudget        int
	AdapterTimeout    time.Duration
	ParallelRetrieval bool
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string // host:port of the OTLP HTTP collector
	Insecure    bool
	ServiceName string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/cskg-agent.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			QuestionTopic:      getEnv("QUESTION_TOPIC_NAME", "QUESTION_SUBMITTED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Graph: GraphConfig{
			URI:           getEnv("NEO4J_URI", "neo4j://localhost:7687"),
			Username:      getEnv("NEO4J_USERNAME", "neo4j"),
			Password:      getEnv("NEO4J_PASSWORD", ""),
			Database:      getEnv("NEO4J_DATABASE", "neo4j"),
			SchemaPath:    getEnv("NEO4J_SCHEMA_PATH", ""),
			FulltextIndex: getEnv("NEO4J_FULLTEXT_INDEX", "entity"),
			TopK:          getEnvAsInt("GRAPH_TOP_K", 10),
		},
		Vector: VectorConfig{
			Backend:        getEnv("VECTOR_BACKEND", "pgvector"),
			TopK:           getEnvAsInt("VECTOR_TOP_K", 4),
			WeaviateHost:   getEnv("WEAVIATE_HOST", "localhost:8080"),
			WeaviateScheme: getEnv("WEAVIATE_SCHEME", "http"),
			WeaviateClass:  getEnv("WEAVIATE_CLASS", "Resource"),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			RequestsPerSecond: getEnvAsFloat("LLM_REQUESTS_PER_SECOND", 0),
			EmbeddingCacheTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
			PromptsPath:       getEnv("PROMPTS_PATH", ""),
		},
		Knowledge: KnowledgeConfig{
			ServerURL: getEnv("MCP_SERVER_URL", "http://localhost:8000/sse"),
			Transport: getEnv("MCP_TRANSPORT", "sse"),
			MaxSteps:  getEnvAsInt("MCP_MAX_STEPS", 30),
		},
		Orchestrator: OrchestratorConfig{
			MaxRetries:        getEnvAsInt("MAX_RETRIES", 3),
			StepBudget:        getEnvAsInt("STEP_BUDGET", 30),
			AdapterTimeout:    getEnvAsDuration("ADAPTER_TIMEOUT", 60*time.Second),
			ParallelRetrieval: getEnvAsBool("PARALLEL_RETRIEVAL", false),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "cskg-agent-be"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
