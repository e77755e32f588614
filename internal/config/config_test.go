package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_WithDefaults(t *testing.T) {
	setEnv(t, "ENV", "development")
	setEnv(t, "PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DefaultChainAPIURL, cfg.ChainAPIURL)
	assert.Equal(t, DefaultContractAddress, cfg.ContractAddress)
	assert.Equal(t, DefaultContractName, cfg.ContractName)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimitRPS)
}

func TestLoad_ProductionRequiresChainAPIKey(t *testing.T) {
	setEnv(t, "ENV", "production")
	setEnv(t, "CHAIN_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CHAIN_API_KEY is required in production")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid development config",
			config: Config{
				Env:             "development",
				ChainAPIURL:     DefaultChainAPIURL,
				ContractAddress: DefaultContractAddress,
				ContractName:    DefaultContractName,
			},
			wantErr: "",
		},
		{
			name: "missing chain API URL",
			config: Config{
				Env:             "development",
				ContractAddress: DefaultContractAddress,
				ContractName:    DefaultContractName,
			},
			wantErr: "CHAIN_API_URL is required",
		},
		{
			name: "missing contract address",
			config: Config{
				Env:          "development",
				ChainAPIURL:  DefaultChainAPIURL,
				ContractName: DefaultContractName,
			},
			wantErr: "CONTRACT_ADDRESS is required",
		},
		{
			name: "missing contract name",
			config: Config{
				Env:             "development",
				ChainAPIURL:     DefaultChainAPIURL,
				ContractAddress: DefaultContractAddress,
			},
			wantErr: "CONTRACT_NAME is required",
		},
		{
			name: "production without chain API key",
			config: Config{
				Env:             "production",
				ChainAPIURL:     DefaultChainAPIURL,
				ContractAddress: DefaultContractAddress,
				ContractName:    DefaultContractName,
			},
			wantErr: "CHAIN_API_KEY is required in production",
		},
		{
			name: "production with chain API key",
			config: Config{
				Env:             "production",
				ChainAPIURL:     DefaultChainAPIURL,
				ChainAPIKey:     "secret",
				ContractAddress: DefaultContractAddress,
				ContractName:    DefaultContractName,
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnv(t *testing.T) {
	setEnv(t, "TEST_VAR", "custom_value")

	assert.Equal(t, "custom_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NONEXISTENT_VAR", "default"))
}

func TestGetEnvInt64(t *testing.T) {
	setEnv(t, "TEST_INT", "42")
	setEnv(t, "TEST_INVALID", "not_a_number")

	assert.Equal(t, int64(42), getEnvInt64("TEST_INT", 0))
	assert.Equal(t, int64(99), getEnvInt64("NONEXISTENT_VAR", 99))
	assert.Equal(t, int64(99), getEnvInt64("TEST_INVALID", 99)) // Falls back on parse error
}
