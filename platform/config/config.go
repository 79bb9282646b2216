// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultOpenAIAPIURL = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel  = "gpt-4"

	// CacheBackendMemory keeps LLM adjustments in process memory.
	CacheBackendMemory = "memory"
	// CacheBackendRedis shares LLM adjustments across processes through Redis.
	CacheBackendRedis = "redis"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// LLMConfig provides settings for the chat-completion provider used for
// score adjustments.
type LLMConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIAPIURL() string
	GetOpenAIModel() string
	GetAIScoringTimeout() time.Duration
	IsAIScoringEnabled() bool
}

// ScoringConfig provides settings for the scoring engine.
type ScoringConfig interface {
	LLMConfig
	GetBatchConcurrency() int
	GetStaleAfter() time.Duration
}

// CacheConfig provides settings for the LLM adjustment cache.
type CacheConfig interface {
	GetScoringCacheBackend() string
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the background rescoring queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	CORSAllowAll        bool
	CORSOrigins         []string
	RateLimitRPS        float64
	RateLimitBurst      int
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	OpenAIAPIKey        string
	OpenAIAPIURL        string
	OpenAIModel         string
	AIScoringEnabled    bool
	AIScoringTimeout    time.Duration
	BatchConcurrency    int
	ScoringCacheBackend string
	StaleAfter          time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// LLMConfig implementation
func (c *Config) GetOpenAIAPIKey() string             { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIAPIURL() string             { return c.OpenAIAPIURL }
func (c *Config) GetOpenAIModel() string              { return c.OpenAIModel }
func (c *Config) GetAIScoringTimeout() time.Duration { return c.AIScoringTimeout }
func (c *Config) IsAIScoringEnabled() bool {
	return c.AIScoringEnabled && strings.TrimSpace(c.OpenAIAPIKey) != ""
}

// ScoringConfig implementation
func (c *Config) GetBatchConcurrency() int      { return c.BatchConcurrency }
func (c *Config) GetStaleAfter() time.Duration { return c.StaleAfter }

// CacheConfig implementation
func (c *Config) GetScoringCacheBackend() string { return c.ScoringCacheBackend }
func (c *Config) GetRedisURL() string            { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool      { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// fileConfig mirrors the dotted configuration keys as nested YAML, so
// openai.api.key in a properties file becomes openai: {api: {key: ...}}.
type fileConfig struct {
	OpenAI struct {
		API struct {
			Key string `yaml:"key"`
			URL string `yaml:"url"`
		} `yaml:"api"`
		Model string `yaml:"model"`
	} `yaml:"openai"`
	Lead struct {
		Scoring struct {
			AI struct {
				Enabled *bool  `yaml:"enabled"`
				Timeout string `yaml:"timeout"`
			} `yaml:"ai"`
			BatchConcurrency int    `yaml:"batchConcurrency"`
			Cache            string `yaml:"cache"`
		} `yaml:"scoring"`
	} `yaml:"lead"`
}

// Load reads configuration from the optional CONFIG_FILE and environment
// variables. Environment variables win over file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	file, err := loadFile(getEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}

	aiEnabledDefault := "true"
	if file.Lead.Scoring.AI.Enabled != nil {
		aiEnabledDefault = strconv.FormatBool(*file.Lead.Scoring.AI.Enabled)
	}

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		RateLimitRPS:        mustFloat(getEnv("RATE_LIMIT_RPS", "20")),
		RateLimitBurst:      mustInt(getEnv("RATE_LIMIT_BURST", "40")),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "scoring"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", file.OpenAI.API.Key),
		OpenAIAPIURL:        getEnv("OPENAI_API_URL", orDefault(file.OpenAI.API.URL, defaultOpenAIAPIURL)),
		OpenAIModel:         getEnv("OPENAI_MODEL", orDefault(file.OpenAI.Model, defaultOpenAIModel)),
		AIScoringEnabled:    strings.EqualFold(getEnv("LEAD_SCORING_AI_ENABLED", aiEnabledDefault), "true"),
		AIScoringTimeout:    mustDuration(getEnv("LEAD_SCORING_AI_TIMEOUT", orDefault(file.Lead.Scoring.AI.Timeout, "10s"))),
		BatchConcurrency:    mustInt(getEnv("LEAD_SCORING_BATCH_CONCURRENCY", strconv.Itoa(orDefaultInt(file.Lead.Scoring.BatchConcurrency, 8)))),
		ScoringCacheBackend: strings.ToLower(getEnv("LEAD_SCORING_CACHE", orDefault(file.Lead.Scoring.Cache, CacheBackendMemory))),
		StaleAfter:          mustDuration(getEnv("LEAD_SCORING_STALE_AFTER", "168h")),
	}

	if cfg.AIScoringTimeout <= 0 || cfg.AIScoringTimeout > 10*time.Second {
		cfg.AIScoringTimeout = 10 * time.Second
	}
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 1
	}

	switch cfg.ScoringCacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when LEAD_SCORING_CACHE is redis")
		}
	default:
		return nil, fmt.Errorf("LEAD_SCORING_CACHE must be %q or %q", CacheBackendMemory, CacheBackendRedis)
	}

	return cfg, nil
}

// RequireDatabase returns an error when no database URL is configured.
// Binaries that persist scores call this right after Load.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if strings.TrimSpace(path) == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
