package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	GinMode  string

	CORSOrigins []string

	// Redis / queue configuration
	RedisURL          string
	RedisPassword     string
	RedisDB           int
	QueueName         string
	WorkerConcurrency int

	// Gemini configuration
	GeminiAPIKey   string
	GeminiTier     string
	ReasoningModel string
	VisionModel    string

	// Embeddings configuration
	EmbeddingsModel  string
	EmbeddingVersion string
	VectorDimensions int

	// Qdrant vector store
	QdrantURL    string
	QdrantAPIKey string

	// External collaborators
	RasterServiceURL string

	// Pipeline tuning
	ChunkMaxWords              int
	ChunkOverlapWords          int
	DiagramConfidenceThreshold float64
	TopKPerQuery               int
	MaxCandidates              int
	AdvisoryTopK               int
	FetchTimeoutSeconds        int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/patent_ip"),
		DBName:   getEnv("DB_NAME", "patent_ip"),
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),

		RedisURL:          getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		QueueName:         getEnv("QUEUE_NAME", "pipeline"),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiTier:     getEnv("GEMINI_TIER", "free"),
		ReasoningModel: getEnv("REASONING_MODEL", "gemini-2.0-flash"),
		VisionModel:    getEnv("VISION_MODEL", "gemini-2.0-flash"),

		EmbeddingsModel:  getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbeddingVersion: getEnv("EMBEDDING_VERSION", "v1-text-embedding-004"),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),

		QdrantURL:    getEnv("QDRANT_URL", "http://localhost:6334"),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		RasterServiceURL: getEnv("RASTER_SERVICE_URL", "http://localhost:8001"),

		ChunkMaxWords:              getEnvInt("CHUNK_MAX_WORDS", 400),
		ChunkOverlapWords:          getEnvInt("CHUNK_OVERLAP_WORDS", 50),
		DiagramConfidenceThreshold: getEnvFloat64("DIAGRAM_CONFIDENCE_THRESHOLD", 0.6),
		TopKPerQuery:               getEnvInt("TOP_K_PER_QUERY", 10),
		MaxCandidates:              getEnvInt("MAX_CANDIDATES", 20),
		AdvisoryTopK:               getEnvInt("ADVISORY_TOP_K", 3),
		FetchTimeoutSeconds:        getEnvInt("FETCH_TIMEOUT_SECONDS", 60),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.EmbeddingVersion == "" {
		return nil, fmt.Errorf("EMBEDDING_VERSION must not be empty")
	}

	if cfg.ChunkOverlapWords >= cfg.ChunkMaxWords {
		return nil, fmt.Errorf("CHUNK_OVERLAP_WORDS (%d) must be smaller than CHUNK_MAX_WORDS (%d)",
			cfg.ChunkOverlapWords, cfg.ChunkMaxWords)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
