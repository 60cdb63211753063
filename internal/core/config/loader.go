package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/jackpot/internal/infra/rpc"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML content, expands environment variables and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RenderTimeout == 0 {
		c.Server.RenderTimeout = 3 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Chain.ID == 0 {
		c.Chain.ID = 8453
	}
	if c.Chain.Name == "" {
		c.Chain.Name = "base"
	}
	if c.Chain.Timeout == 0 {
		c.Chain.Timeout = 10 * time.Second
	}
	if c.Chain.Retry.MaxAttempts == 0 {
		c.Chain.Retry = rpc.DefaultRetryConfig
	}
	if len(c.Chain.Providers) == 0 {
		c.Chain.Providers = append([]rpc.ProviderConfig(nil), rpc.DefaultBaseProviders...)
	}

	if c.Contract.LogLookbackBlocks == 0 {
		c.Contract.LogLookbackBlocks = 100_000
	}
	if c.Contract.LogChunkBlocks == 0 {
		c.Contract.LogChunkBlocks = 5_000
	}

	if c.Query.FetchTimeout == 0 {
		c.Query.FetchTimeout = 15 * time.Second
	}

	if c.Redis.URL != "" && c.Redis.SnapshotTTL == 0 {
		c.Redis.SnapshotTTL = time.Minute
	}
	if c.Redis.URL != "" && c.Redis.PublishInterval == 0 {
		c.Redis.PublishInterval = 10 * time.Second
	}
}

// Validate checks the configuration for missing or malformed values.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	key := strings.TrimPrefix(c.Wallet.PrivateKey, "0x")
	if key != "" && len(key) != 64 {
		return fmt.Errorf("invalid config: wallet.private_key must be 32 bytes hex")
	}
	return nil
}
