package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Router   RouterConfig
	Handlers HandlerConfig
	KB       KBConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	// OperatorEmail receives KB sync failure alerts. Empty disables alerts.
	OperatorEmail string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	GeminiAPIKey      string
	OllamaBaseURL     string
	OllamaEmbedModel  string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	OpenAIBaseURL     string
	OpenAIAPIKey      string
	// EmbedCacheTTL controls the Redis embedding cache. 0 disables caching.
	EmbedCacheTTL time.Duration
}

type RouterConfig struct {
	// MaxClassifyAttempts bounds the LLM classification loop. Malformed
	// output consumes an attempt; exhausting the bound yields a
	// clarification reply, never another retry.
	MaxClassifyAttempts int
	// QueryBudget is the end-to-end wall clock allowed for one query.
	QueryBudget time.Duration
	// NotFoundFloor is the cosine similarity below which a result set is
	// reported as "not found". Scores are still surfaced raw.
	NotFoundFloor float64
	// SearchLimit is the default top-K for knowledge search.
	SearchLimit int
	// Fast-path pattern lists are tunable configuration, not fixed logic.
	// Comma-separated env overrides; empty means built-in defaults.
	FastPathDocPatterns    []string
	FastPathSystemPatterns []string
}

type HandlerConfig struct {
	StatusURL        string
	PlanningURL      string
	ContentSourceURL string
	Timeout          time.Duration
}

type KBConfig struct {
	SyncTopic     string
	ChunkTokens   int
	OverlapTokens int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", ""),
			Port:          getEnvAsInt("SMTP_PORT", 587),
			Email:         getEnv("SMTP_EMAIL", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			SenderName:    getEnv("SMTP_SENDER_NAME", "CommandCenter"),
			OperatorEmail: getEnv("OPERATOR_ALERT_EMAIL", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			EmbedCacheTTL:     getEnvAsDuration("EMBED_CACHE_TTL", 24*time.Hour),
		},
		Router: RouterConfig{
			MaxClassifyAttempts:    getEnvAsInt("ROUTER_MAX_CLASSIFY_ATTEMPTS", 3),
			QueryBudget:            getEnvAsDuration("ROUTER_QUERY_BUDGET", 30*time.Second),
			NotFoundFloor:          getEnvAsFloat("ROUTER_NOT_FOUND_FLOOR", 0.25),
			SearchLimit:            getEnvAsInt("ROUTER_SEARCH_LIMIT", 5),
			FastPathDocPatterns:    getEnvAsList("FASTPATH_DOC_PATTERNS"),
			FastPathSystemPatterns: getEnvAsList("FASTPATH_SYSTEM_PATTERNS"),
		},
		Handlers: HandlerConfig{
			StatusURL:        getEnv("STATUS_HANDLER_URL", "http://localhost:8010"),
			PlanningURL:      getEnv("PLANNING_HANDLER_URL", "http://localhost:8011"),
			ContentSourceURL: getEnv("CONTENT_SOURCE_URL", "http://localhost:8020"),
			Timeout:          getEnvAsDuration("HANDLER_TIMEOUT", 40*time.Second),
		},
		KB: KBConfig{
			SyncTopic:     getEnv("KB_SYNC_TOPIC_NAME", "KB_SYNC_REQUESTED"),
			ChunkTokens:   getEnvAsInt("KB_CHUNK_TOKENS", 512),
			OverlapTokens: getEnvAsInt("KB_OVERLAP_TOKENS", 50),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(strValue, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
