package control

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/jackpot/internal/core/config"
	"github.com/vietddude/jackpot/internal/infra/rpc"
)

func testConfig() *config.AppConfig {
	retry := 0
	return &config.AppConfig{
		Server: config.ServerConfig{Port: 0},
		Chain: config.ChainConfig{
			ID:        8453,
			Name:      "base",
			Providers: []rpc.ProviderConfig{{Name: "local", URL: "http://127.0.0.1:1"}},
		},
		Contract: config.ContractConfig{
			Address:           "0x00000000000000000000000000000000000000aa",
			LogLookbackBlocks: 100,
			LogChunkBlocks:    50,
		},
		Query: config.QueryConfig{Retry: &retry},
	}
}

func TestResolveWallet(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := hexutil.Encode(crypto.FromECDSA(key))
	derived := crypto.PubkeyToAddress(key.PublicKey)

	t.Run("no wallet", func(t *testing.T) {
		signer, wallet, err := resolveWallet(testConfig())
		require.NoError(t, err)
		assert.Nil(t, signer)
		assert.Nil(t, wallet)
	})

	t.Run("address only", func(t *testing.T) {
		cfg := testConfig()
		cfg.Wallet.Address = derived.Hex()
		signer, wallet, err := resolveWallet(cfg)
		require.NoError(t, err)
		assert.Nil(t, signer)
		require.NotNil(t, wallet)
		assert.Equal(t, derived, *wallet)
	})

	t.Run("key derives address", func(t *testing.T) {
		cfg := testConfig()
		cfg.Wallet.PrivateKey = hexKey
		signer, wallet, err := resolveWallet(cfg)
		require.NoError(t, err)
		require.NotNil(t, signer)
		assert.Equal(t, derived, *wallet)
	})

	t.Run("mismatch", func(t *testing.T) {
		cfg := testConfig()
		cfg.Wallet.PrivateKey = hexKey
		cfg.Wallet.Address = "0x1234567890abcdef1234567890abcdef12345678"
		_, _, err := resolveWallet(cfg)
		assert.ErrorContains(t, err, "does not match")
	})

	t.Run("bad key", func(t *testing.T) {
		cfg := testConfig()
		cfg.Wallet.PrivateKey = "not-a-key"
		_, _, err := resolveWallet(cfg)
		assert.Error(t, err)
	})
}

func TestNewCore_WithdrawerNeedsKey(t *testing.T) {
	c, err := NewCore(testConfig(), nil)
	require.NoError(t, err)
	defer c.Close()
	assert.Nil(t, c.Withdrawer)
	assert.Nil(t, c.Wallet)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Wallet.PrivateKey = hexutil.Encode(crypto.FromECDSA(key))

	c2, err := NewCore(cfg, nil)
	require.NoError(t, err)
	defer c2.Close()
	assert.NotNil(t, c2.Withdrawer)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), *c2.Wallet)
}
