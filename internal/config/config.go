// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Chain API settings
	ChainAPIURL     string
	ChainAPIKey     string
	ContractAddress string
	ContractName    string

	// Bitcoin explorer
	BTCAPIURL   string
	BTCPriceURL string

	// AI assistant
	OpenAIAPIKey string
	OpenAIModel  string

	// Security
	RateLimitRPS int

	// Tracing
	OTLPEndpoint string // OTLP gRPC endpoint (optional, tracing disabled if not set)
}

const (
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultChainAPIURL     = "https://api.mainnet.hiro.so"
	DefaultContractAddress = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	DefaultContractName    = "bitgenius-agent"
	DefaultRateLimit       = 100
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:     os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		ChainAPIURL:     getEnv("CHAIN_API_URL", DefaultChainAPIURL),
		ChainAPIKey:     os.Getenv("CHAIN_API_KEY"),
		ContractAddress: getEnv("CONTRACT_ADDRESS", DefaultContractAddress),
		ContractName:    getEnv("CONTRACT_NAME", DefaultContractName),
		BTCAPIURL:       os.Getenv("BTC_API_URL"),   // Optional, falls back to public esplora
		BTCPriceURL:     os.Getenv("BTC_PRICE_URL"), // Optional
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		RateLimitRPS:    int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.ChainAPIURL == "" {
		return fmt.Errorf("CHAIN_API_URL is required")
	}
	if c.ContractAddress == "" {
		return fmt.Errorf("CONTRACT_ADDRESS is required")
	}
	if c.ContractName == "" {
		return fmt.Errorf("CONTRACT_NAME is required")
	}
	if c.IsProduction() && c.ChainAPIKey == "" {
		return fmt.Errorf("CHAIN_API_KEY is required in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
