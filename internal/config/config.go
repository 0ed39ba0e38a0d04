// Package config loads studysearch configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider identifies an embedding/LLM backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Embedding
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int
	OllamaHost     string
	OpenAIAPIKey   string

	// LLM completion (answer-generation collaborator)
	LLMProvider Provider
	LLMModel    string

	// Crawling
	UserAgent      string
	CrawlDelay     time.Duration
	FetchTimeout   time.Duration
	RenderTimeout  time.Duration
	MaxPages       int
	MaxDepth       int
	HeadlessRender bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "studysearch"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "content"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		EmbedProvider:  Provider(getEnv("STUDYSEARCH_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("STUDYSEARCH_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("STUDYSEARCH_EMBED_DIMENSION", 384),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),

		LLMProvider: Provider(getEnv("STUDYSEARCH_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:    getEnv("STUDYSEARCH_LLM_MODEL", "llama3.2"),

		UserAgent: getEnv("STUDYSEARCH_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
		CrawlDelay:     getEnvDuration("STUDYSEARCH_CRAWL_DELAY", 500*time.Millisecond),
		FetchTimeout:   getEnvDuration("STUDYSEARCH_FETCH_TIMEOUT", 12*time.Second),
		RenderTimeout:  getEnvDuration("STUDYSEARCH_RENDER_TIMEOUT", 30*time.Second),
		MaxPages:       getEnvInt("STUDYSEARCH_MAX_PAGES", 30),
		MaxDepth:       getEnvInt("STUDYSEARCH_MAX_DEPTH", 2),
		HeadlessRender: getEnv("STUDYSEARCH_HEADLESS_RENDER", "true") == "true",

		LogFile:  getEnv("STUDYSEARCH_LOG_FILE", "/tmp/studysearch.log"),
		LogLevel: parseLogLevel(getEnv("STUDYSEARCH_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
