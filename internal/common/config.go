package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Cache CacheConfig
	OCR   OCRConfig
	LLM   LLMConfig
	Batch BatchConfig
}

// CacheConfig holds cache-store configuration
type CacheConfig struct {
	// Backend selects the store implementation: "fs", "sqlite" or "postgres".
	Backend string
	// Dir is the root directory for the filesystem store.
	Dir string
	// SQLitePath is the database path for the sqlite store; ":memory:" is allowed.
	SQLitePath string
	// PostgresDSN is the connection string for the postgres store.
	PostgresDSN string
	// LRUSize, when positive, wraps the store in an in-process LRU front.
	LRUSize int
}

// OCRConfig holds OCR-service configuration
type OCRConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// LLMConfig holds extraction-service configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// BatchConfig holds batch-orchestration configuration
type BatchConfig struct {
	MaxInFlight    int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:     getEnv("CACHE_BACKEND", "fs"),
			Dir:         getEnv("CACHE_DIR", "./cache"),
			SQLitePath:  getEnv("CACHE_SQLITE_PATH", "./cache/artifacts.db"),
			PostgresDSN: getEnv("CACHE_POSTGRES_DSN", ""),
			LRUSize:     getEnvAsInt("CACHE_LRU_SIZE", 0),
		},
		OCR: OCRConfig{
			BaseURL: getEnv("OCR_BASE_URL", "https://api.mistral.ai/v1"),
			APIKey:  getEnv("MISTRAL_API_KEY", ""),
			Model:   getEnv("OCR_MODEL", "mistral-ocr-latest"),
			Timeout: getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Batch: BatchConfig{
			MaxInFlight:    getEnvAsInt("BATCH_MAX_IN_FLIGHT", 0),
			ProcessTimeout: getEnvAsDuration("BATCH_PROCESS_TIMEOUT", 3*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	switch c.Cache.Backend {
	case "fs", "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", "CACHE_BACKEND must be fs, sqlite or postgres", ErrInvalidInput)
	}
	if c.Cache.Backend == "postgres" && c.Cache.PostgresDSN == "" {
		return NewAppError("CONFIG_ERROR", "CACHE_POSTGRES_DSN is required for the postgres backend", ErrInvalidInput)
	}
	return nil
}
