package config

import (
	"time"

	redisclient "github.com/vietddude/jackpot/internal/infra/redis"
	"github.com/vietddude/jackpot/internal/infra/rpc"
	"github.com/vietddude/jackpot/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Chain    ChainConfig        `yaml:"chain"`
	Contract ContractConfig     `yaml:"contract"`
	Wallet   WalletConfig       `yaml:"wallet"`
	Query    QueryConfig        `yaml:"query"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host          string        `yaml:"host"` // bind address, empty for all interfaces
	Port          int           `yaml:"port"           validate:"min=1,max=65535"`
	RenderTimeout time.Duration `yaml:"render_timeout"` // how long a page waits for pending queries
	// EnableWithdraw lets anyone who can reach the server submit a withdrawal
	// signed with wallet.private_key.
	EnableWithdraw bool `yaml:"enable_withdraw"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// ChainConfig holds settings for the chain the contract lives on.
type ChainConfig struct {
	ID               uint64               `yaml:"id"                validate:"required"`
	Name             string               `yaml:"name"`
	Timeout          time.Duration        `yaml:"timeout"`
	FailureThreshold int                  `yaml:"failure_threshold"`
	CircuitCooldown  time.Duration        `yaml:"circuit_cooldown"`
	Retry            rpc.RetryConfig      `yaml:"retry"`
	Providers        []rpc.ProviderConfig `yaml:"providers"         validate:"required,min=1,dive"`
}

// ContractConfig locates the jackpot contract.
type ContractConfig struct {
	Address           string `yaml:"address"             validate:"required,eth_addr"`
	LogLookbackBlocks uint64 `yaml:"log_lookback_blocks"` // how far back to search for the last round
	LogChunkBlocks    uint64 `yaml:"log_chunk_blocks"`    // eth_getLogs range per request
}

// WalletConfig holds the connected wallet. Both fields are optional: without
// an address the wallet panels stay idle, without a key withdrawals are refused.
type WalletConfig struct {
	Address    string `yaml:"address"     validate:"omitempty,eth_addr"`
	PrivateKey string `yaml:"private_key"`
}

// QueryConfig tunes the query cache.
type QueryConfig struct {
	Retry        *int          `yaml:"retry"         validate:"omitempty,min=0,max=10"` // nil = library default
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}
