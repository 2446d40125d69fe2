package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	// Server
	Port     string
	Env      string
	Debug    bool
	LogLevel zapcore.Level
	LogFile  string

	// Chatbot
	BotName                    string
	Corpora                    []string
	TrainOnStart               bool
	ForceRetrain               bool
	ReadOnly                   bool
	DefaultResponse            string
	MaximumSimilarityThreshold float64
	StatementComparison        string
	ResponseSelection          string

	// Storage
	StorageBackend string
	DatabaseURL    string
	RedisURL       string
	RedisKeyPrefix string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConfidence     float64
	GeminiConcurrentReqs int

	// HTTP
	JWTSecret          string
	CORSOrigins        []string
	RateLimitPerMinute int
}

// Load reads the configuration from the environment after loading an
// optional .env file.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:  getEnvOrDefault("PORT", "5000"),
		Env:   getEnvOrDefault("ENV", "development"),
		Debug: getEnvAsBoolOrDefault("DEBUG", false),

		// Rotated log file written alongside stdout when set
		LogFile: getEnvOrDefault("LOG_FILE", ""),

		BotName:                    getEnvOrDefault("BOT_NAME", "Chatterbot"),
		Corpora:                    getEnvAsListOrDefault("CORPUS", []string{"english"}),
		TrainOnStart:               getEnvAsBoolOrDefault("TRAIN_ON_START", true),
		ForceRetrain:               getEnvAsBoolOrDefault("FORCE_RETRAIN", false),
		ReadOnly:                   getEnvAsBoolOrDefault("READ_ONLY", false),
		DefaultResponse:            getEnvOrDefault("DEFAULT_RESPONSE", "I am sorry, but I do not understand."),
		MaximumSimilarityThreshold: getEnvAsFloatOrDefault("MAXIMUM_SIMILARITY_THRESHOLD", 0.95),
		StatementComparison:        getEnvOrDefault("STATEMENT_COMPARISON", "levenshtein"),
		ResponseSelection:          getEnvOrDefault("RESPONSE_SELECTION", "first"),

		DatabaseURL:    getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:       getEnvOrDefault("REDIS_URL", ""),
		RedisKeyPrefix: getEnvOrDefault("REDIS_KEY_PREFIX", "chatbot"),

		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiConfidence:     getEnvAsFloatOrDefault("GEMINI_CONFIDENCE", 0.5),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),

		JWTSecret:          getEnvOrDefault("JWT_SECRET", ""),
		CORSOrigins:        getEnvAsListOrDefault("CORS_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
	}

	level, err := zapcore.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level
	if cfg.Debug {
		cfg.LogLevel = zapcore.DebugLevel
	}

	cfg.StorageBackend = strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", ""))
	if cfg.StorageBackend == "" {
		if cfg.DatabaseURL != "" {
			cfg.StorageBackend = StoragePostgres
		} else {
			cfg.StorageBackend = StorageMemory
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s storage backend", StoragePostgres)
		}
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s storage backend", StorageRedis)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.MaximumSimilarityThreshold <= 0 || c.MaximumSimilarityThreshold > 1 {
		return fmt.Errorf("MAXIMUM_SIMILARITY_THRESHOLD must be in (0, 1], got %v", c.MaximumSimilarityThreshold)
	}
	if len(c.Corpora) == 0 && c.TrainOnStart {
		return fmt.Errorf("CORPUS is required when TRAIN_ON_START is enabled")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvAsListOrDefault splits a comma separated value, dropping blanks.
func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
