package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	Ai        AIConfig
	Ingestion IngestionConfig
	TaskQueue TaskQueueConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	NatsURL     string
	RedisURL    string
	// StateStore selects "memory" or "redis" for busy flags and task
	// entries. Multi-instance deployments must use redis.
	StateStore string
}

type DatabaseConfig struct {
	Connection string
}

type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	EmbeddingDim      int
	GeminiAPIKey      string
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "openai", etc
	LLMModel          string // e.g. "llama3", "qwen2.5"
}

type IngestionConfig struct {
	BatchSize      int
	MaxAttempts    int
	FetchTimeoutMs int
	ChunkSize      int
	ChunkOverlap   int
	TriggerTopic   string
	BusyTTLSeconds int
}

type TaskQueueConfig struct {
	MaxPerWindow  int
	WindowSeconds int
	TickMs        int
	AwaitPollMs   int
}

type RetrievalConfig struct {
	TopK               int
	IrrelevantCutoff   float64
	ScoreThreshold     float64
	ThresholdRelaxStep float64
	ThresholdFloor     float64
	HistoryTurns       int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "app.log.csv"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			StateStore:  getEnv("STATE_STORE", "memory"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Qdrant: QdrantConfig{
			Host:       getEnv("QDRANT_HOST", "localhost"),
			Port:       getEnvAsInt("QDRANT_PORT", 6334),
			Collection: getEnv("QDRANT_COLLECTION", "tenant_passages"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingDim:      getEnvAsInt("EMBEDDING_DIM", 768),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Ingestion: IngestionConfig{
			BatchSize:      getEnvAsInt("INGEST_BATCH_SIZE", 10),
			MaxAttempts:    getEnvAsInt("INGEST_MAX_ATTEMPTS", 3),
			FetchTimeoutMs: getEnvAsInt("FETCH_TIMEOUT_MS", 30000),
			ChunkSize:      getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 100),
			TriggerTopic:   getEnv("INGEST_TRIGGER_TOPIC_NAME", "INGEST_TENANT_CONTENT"),
			BusyTTLSeconds: getEnvAsInt("INGEST_BUSY_TTL_SECONDS", 600),
		},
		TaskQueue: TaskQueueConfig{
			MaxPerWindow:  getEnvAsInt("QUEUE_MAX_PER_WINDOW", 40),
			WindowSeconds: getEnvAsInt("QUEUE_WINDOW_SECONDS", 60),
			TickMs:        getEnvAsInt("QUEUE_TICK_MS", 250),
			AwaitPollMs:   getEnvAsInt("QUEUE_AWAIT_POLL_MS", 100),
		},
		Retrieval: RetrievalConfig{
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 5),
			IrrelevantCutoff:   getEnvAsFloat("IRRELEVANT_CUTOFF", 0.3),
			ScoreThreshold:     getEnvAsFloat("SCORE_THRESHOLD", 0.4),
			ThresholdRelaxStep: getEnvAsFloat("THRESHOLD_RELAX_STEP", 0.15),
			ThresholdFloor:     getEnvAsFloat("THRESHOLD_FLOOR", 0.2),
			HistoryTurns:       getEnvAsInt("HISTORY_TURNS", 10),
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
