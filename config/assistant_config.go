package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	RedisURL    string

	// Consent tokens
	ConsentSecret     string
	ConsentTTLHours   int
	KBConsentTTL      time.Duration
	DefaultAgentID    string
	EncryptionSecret  string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration

	// OAuth - Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Web search
	SerpAPIKey string

	// Knowledge base
	KnowledgeBaseDir string

	// Retrieval
	ChunkSize      int
	ChunkOverlap   int
	RetrievalTopK  int
	ToneWindowDays int

	// Scheduler agent
	SchedulerMaxTurns   int
	WorkingHoursStart   int
	WorkingHoursEnd     int

	// Inbox summarization
	SummarizeWorkers int
	InboxWindowHours int
	InboxCacheTTL    time.Duration

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Consent tokens
		ConsentSecret:    getEnv("CONSENT_SECRET", ""),
		ConsentTTLHours:  getEnvInt("CONSENT_TTL_HOURS", 24),
		KBConsentTTL:     time.Duration(getEnvInt("KB_CONSENT_TTL_SEC", 300)) * time.Second,
		DefaultAgentID:   getEnv("DEFAULT_AGENT_ID", "default_agent"),
		EncryptionSecret: getEnv("ENCRYPTION_SECRET", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SEC", 30)) * time.Second,

		// OAuth - Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		// Web search
		SerpAPIKey: getEnv("SERPAPI_API_KEY", ""),

		// Knowledge base
		KnowledgeBaseDir: getEnv("KNOWLEDGE_BASE_DIR", "./user_knowledge_bases"),

		// Retrieval
		ChunkSize:      getEnvInt("RAG_CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("RAG_CHUNK_OVERLAP", 100),
		RetrievalTopK:  getEnvInt("RAG_TOP_K", 3),
		ToneWindowDays: getEnvInt("TONE_WINDOW_DAYS", 7),

		// Scheduler agent
		SchedulerMaxTurns: getEnvInt("SCHEDULER_MAX_TURNS", 10),
		WorkingHoursStart: getEnvInt("WORKING_HOURS_START", 9),
		WorkingHoursEnd:   getEnvInt("WORKING_HOURS_END", 18),

		// Inbox summarization
		SummarizeWorkers: getEnvInt("SUMMARIZE_WORKERS", 5),
		InboxWindowHours: getEnvInt("INBOX_WINDOW_HOURS", 24),
		InboxCacheTTL:    time.Duration(getEnvInt("INBOX_CACHE_TTL_MIN", 15)) * time.Minute,

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
