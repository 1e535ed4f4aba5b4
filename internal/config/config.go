// Package config centralises all environment configuration for the API and
// the CLI. Business-logic layers receive an already-built Config instance via
// dependency-injection.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend choices.
const (
	AcquirerGitHub = "github"
	AcquirerClone  = "clone"

	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreRedis  = "redis"

	LLMAnthropic = "anthropic"
	LLMVertex    = "vertex"
)

// Config holds every runtime option the server needs.
// Keep it flat and simple, primitive types over embedded structs.
type Config struct {
	// Network
	Port string

	// Acquisition
	Acquirer     string
	GitHubToken  string
	GitHubAPIURL string
	GitHubRPS    float64
	CloneTimeout time.Duration

	// Session store
	SessionStore  string
	MongoURI      string
	DBName        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Language model
	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	ProjectID       string
	Location        string
	VertexModel     string
	CredentialsFile string
	LLMMaxTokens    int

	// Extended thinking budgets in tokens; 0 disables thinking.
	QueryThinkingBudget   int
	DiagramThinkingBudget int

	// Server tuning
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load parses the environment (and an optional .env file) into Config.
// Backend-specific keys are only required when that backend is selected, and
// a missing one terminates the program.
func Load() Config {
	// godotenv.Load() is a no-op if .env doesn't exist.
	_ = godotenv.Load()

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		Acquirer:     oneOf("ACQUIRER", AcquirerGitHub, AcquirerGitHub, AcquirerClone),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubRPS:    getFloat("GITHUB_RPS", 10),
		CloneTimeout: getDuration("CLONE_TIMEOUT_SEC", 120),

		SessionStore:  oneOf("SESSION_STORE", StoreMemory, StoreMemory, StoreMongo, StoreRedis),
		DBName:        getEnv("MONGODB_DB", "repomind"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		LLMProvider:     oneOf("LLM_PROVIDER", LLMAnthropic, LLMAnthropic, LLMVertex),
		AnthropicModel:  os.Getenv("ANTHROPIC_MODEL"),
		VertexModel:     os.Getenv("VERTEX_MODEL"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		LLMMaxTokens:    getInt("LLM_MAX_TOKENS", 16000),

		QueryThinkingBudget:   getInt("QUERY_THINKING_BUDGET", 10000),
		DiagramThinkingBudget: getInt("DIAGRAM_THINKING_BUDGET", 8000),

		ReadTimeout:  getDuration("READ_TIMEOUT_SEC", 10),
		WriteTimeout: getDuration("WRITE_TIMEOUT_SEC", 120),
	}

	switch cfg.SessionStore {
	case StoreMongo:
		cfg.MongoURI = must("MONGODB_URI")
	case StoreRedis:
		cfg.RedisAddr = must("REDIS_ADDR")
	}

	switch cfg.LLMProvider {
	case LLMAnthropic:
		cfg.AnthropicAPIKey = must("ANTHROPIC_API_KEY")
	case LLMVertex:
		cfg.ProjectID = must("GCP_PROJECT_ID")
		cfg.Location = getEnv("GCP_LOCATION", "us-central1")
	}

	return cfg
}

// LoadIngest reads only what an ingestion needs, for the CLI.
func LoadIngest() Config {
	_ = godotenv.Load()

	return Config{
		Acquirer:     oneOf("ACQUIRER", AcquirerGitHub, AcquirerGitHub, AcquirerClone),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubRPS:    getFloat("GITHUB_RPS", 10),
		CloneTimeout: getDuration("CLONE_TIMEOUT_SEC", 120),
		SessionStore: StoreMemory,
	}
}

// must fetches a required env var or terminates the program.
func must(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("env var %s is required", key)
	}
	return val
}

// getEnv returns env[key] if set, otherwise defaultVal.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// oneOf returns env[key] (or defaultVal) and exits if it is not an allowed choice.
func oneOf(key, defaultVal string, allowed ...string) string {
	val := getEnv(key, defaultVal)
	for _, a := range allowed {
		if val == a {
			return val
		}
	}
	log.Fatalf("env var %s=%q must be one of %v", key, val, allowed)
	return ""
}

// getDuration reads an integer (seconds) from env, falling back to defaultSec.
func getDuration(key string, defaultSec int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			return time.Duration(sec) * time.Second
		}
		log.Printf("invalid %s=%q; using default %ds", key, v, defaultSec)
	}
	return time.Duration(defaultSec) * time.Second
}

// getInt reads an integer from env, falling back to defaultVal.
func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q; using default %d", key, v, defaultVal)
	}
	return defaultVal
}

// getFloat reads a float from env, falling back to defaultVal.
func getFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid %s=%q; using default %g", key, v, defaultVal)
	}
	return defaultVal
}
