package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string
	EmbeddingDims    int
	KVDBPath         string
	MirrorDBPath     string
	AuthTokens       map[string]string
	APIPort          string
	RequestTimeout   time.Duration
	LogLevel         slog.Level
	LogFormat        string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:  getEnv("EMBEDDING_API_KEY", "dummy-key"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL_NAME", "text-embedding-004"),
		KVDBPath:         getEnv("KV_DB_PATH", "./data/semnotes-kv.db"),
		MirrorDBPath:     getEnv("MIRROR_DB_PATH", "./data/semnotes-mirror.db"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	// Vector dimensionality is fixed for the lifetime of a deployment. Notes
	// embedded under a previous size are tolerated by search (scored 0) but
	// the databases should be rebuilt if this changes.
	dimsStr := getEnv("EMBEDDING_DIMS", "768")
	dims, err := strconv.Atoi(dimsStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_DIMS must be a valid integer: %w", err)
	}
	if dims <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMS must be greater than 0")
	}
	cfg.EmbeddingDims = dims

	timeoutStr := getEnv("REQUEST_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be a valid duration: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be greater than 0")
	}
	cfg.RequestTimeout = timeout

	tokens, err := ParseAuthTokens(getEnv("AUTH_TOKENS", ""))
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("AUTH_TOKENS is required")
	}
	cfg.AuthTokens = tokens

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	// Create data directories if they don't exist (for the DB files)
	for _, p := range []string{cfg.KVDBPath, cfg.MirrorDBPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// ParseAuthTokens parses a comma-separated list of token:userID pairs, e.g.
// "tok-alice:alice,tok-bob:bob".
func ParseAuthTokens(raw string) (map[string]string, error) {
	tokens := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return tokens, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, userID, ok := strings.Cut(pair, ":")
		token = strings.TrimSpace(token)
		userID = strings.TrimSpace(userID)
		if !ok || token == "" || userID == "" {
			return nil, fmt.Errorf("AUTH_TOKENS entry %q must be token:userID", pair)
		}
		tokens[token] = userID
	}
	return tokens, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
