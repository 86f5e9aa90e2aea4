// Package config loads chatcompare settings from .env files and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/chatcompare/internal/llm"
	"github.com/abhisek/chatcompare/internal/logger"
	"github.com/abhisek/chatcompare/internal/pricing"
	"github.com/abhisek/chatcompare/internal/store"
)

// Config holds the application configuration.
type Config struct {
	LLM         llm.Config
	DBPath      string
	Addr        string
	PricingPath string
	Concurrency int
	LogLevel    slog.Level
}

// Default values
const (
	defaultAddr        = ":8000"
	defaultConcurrency = 4
	defaultTimeout     = 60 * time.Second
)

// Load reads configuration from .env files and environment variables.
// Variables already set in the environment win over .env entries, and the
// working directory's .env wins over the one in the user config directory.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				logger.Warn("failed to read env file", "path", path, "err", err)
			}
		}
	}

	llmCfg := llm.ConfigFromEnv()
	llmCfg.Timeout = getEnvDuration("CHATCOMPARE_TIMEOUT", defaultTimeout)
	llmCfg.Mock = getEnvBool("CHATCOMPARE_MOCK")

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LLM:         llmCfg,
		DBPath:      dbPath,
		Addr:        getEnvString("CHATCOMPARE_ADDR", defaultAddr),
		PricingPath: os.Getenv("CHATCOMPARE_PRICING"),
		Concurrency: getEnvInt("CHATCOMPARE_CONCURRENCY", defaultConcurrency),
		LogLevel:    slog.LevelInfo,
	}

	if v := os.Getenv("CHATCOMPARE_LOG_LEVEL"); v != "" {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}

	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("CHATCOMPARE_CONCURRENCY must be at least 1, got %d", cfg.Concurrency)
	}

	return cfg, nil
}

// HasCredentials reports whether any model provider can be called.
func (c *Config) HasCredentials() bool {
	return c.LLM.HasCredentials()
}

// SetAPIKey overrides the OpenAI key with operator input.
func (c *Config) SetAPIKey(key string) {
	if key != "" {
		c.LLM.OpenAI.APIKey = key
	}
}

// Prices returns the built-in price table with any overrides from
// PricingPath layered on top.
func (c *Config) Prices() (pricing.Table, error) {
	table := pricing.Default()
	if c.PricingPath == "" {
		return table, nil
	}
	overrides, err := pricing.LoadFile(c.PricingPath)
	if err != nil {
		return nil, err
	}
	return table.Merge(overrides), nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "chatcompare", ".env"))
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms", or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
