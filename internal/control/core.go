package control

import (
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/jackpot/internal/core/config"
	"github.com/vietddude/jackpot/internal/core/domain"
	"github.com/vietddude/jackpot/internal/dashboard"
	"github.com/vietddude/jackpot/internal/infra/chain/evm"
	"github.com/vietddude/jackpot/internal/infra/rpc"
	"github.com/vietddude/jackpot/internal/jackpot"
	"github.com/vietddude/jackpot/internal/query"
)

// Core is the chain-facing part shared by the server and the CLI commands.
type Core struct {
	ChainID    uint64
	RPC        *rpc.Client
	Gateway    *evm.Gateway
	Client     *query.Client
	Queries    *jackpot.Queries
	Wallet     *common.Address
	Withdrawer *dashboard.Withdrawer
}

// NewCore builds the RPC client, the contract gateway and the query cache from cfg.
func NewCore(cfg *config.AppConfig, log *slog.Logger) (*Core, error) {
	if log == nil {
		log = slog.Default()
	}

	signer, wallet, err := resolveWallet(cfg)
	if err != nil {
		return nil, err
	}

	chainName := cfg.Chain.Name
	if chainName == "" {
		chainName = domain.ChainIDToName[domain.ChainID(cfg.Chain.ID)]
	}

	rpcClient, err := rpc.NewClient(rpc.Config{
		Chain:            chainName,
		Providers:        cfg.Chain.Providers,
		Timeout:          cfg.Chain.Timeout,
		Retry:            cfg.Chain.Retry,
		FailureThreshold: cfg.Chain.FailureThreshold,
		CircuitCooldown:  cfg.Chain.CircuitCooldown,
		Logger:           log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init rpc client: %w", err)
	}

	contract := common.HexToAddress(cfg.Contract.Address)
	gwOpts := []evm.Option{
		evm.WithLogger(log),
		evm.WithLogRange(cfg.Contract.LogLookbackBlocks, cfg.Contract.LogChunkBlocks),
	}
	if signer != nil {
		gwOpts = append(gwOpts, evm.WithSigner(signer))
	}
	gateway := evm.NewGateway(rpcClient, contract, gwOpts...)

	qOpts := []query.Option{
		query.WithLogger(log),
		query.WithFetchTimeout(cfg.Query.FetchTimeout),
	}
	if cfg.Query.Retry != nil {
		qOpts = append(qOpts, query.WithRetry(*cfg.Query.Retry))
	}
	client := query.NewClient(qOpts...)

	c := &Core{
		ChainID: cfg.Chain.ID,
		RPC:     rpcClient,
		Gateway: gateway,
		Client:  client,
		Queries: jackpot.NewQueries(gateway),
		Wallet:  wallet,
	}
	if signer != nil {
		c.Withdrawer = dashboard.NewWithdrawer(gateway, contract, wallet, client, log)
	}

	log.Info("Core initialized",
		"chain", chainName,
		"chain_id", cfg.Chain.ID,
		"contract", contract.Hex(),
		"providers", len(cfg.Chain.Providers),
		"wallet", walletLabel(wallet),
		"writes", signer != nil,
	)
	return c, nil
}

// resolveWallet derives the wallet from the private key when one is set and
// checks it against a configured address.
func resolveWallet(cfg *config.AppConfig) (*evm.Signer, *common.Address, error) {
	var wallet *common.Address
	if cfg.Wallet.Address != "" {
		addr := common.HexToAddress(cfg.Wallet.Address)
		wallet = &addr
	}
	if cfg.Wallet.PrivateKey == "" {
		return nil, wallet, nil
	}

	signer, err := evm.NewSigner(cfg.Wallet.PrivateKey, cfg.Chain.ID)
	if err != nil {
		return nil, nil, err
	}
	addr := signer.Address()
	if wallet != nil && *wallet != addr {
		return nil, nil, fmt.Errorf("wallet.address %s does not match private key address %s", wallet.Hex(), addr.Hex())
	}
	return signer, &addr, nil
}

func walletLabel(w *common.Address) string {
	if w == nil {
		return "none"
	}
	return w.Hex()
}

// Mount mounts a board for the configured wallet.
func (c *Core) Mount(history dashboard.History) *dashboard.Board {
	opts := []dashboard.MountOption{dashboard.WithHistory(history, c.ChainID)}
	if c.Withdrawer != nil {
		opts = append(opts, dashboard.WithWithdrawer(c.Withdrawer))
	}
	return dashboard.Mount(c.Client, c.Queries, c.Wallet, opts...)
}

// Close stops the query cache and closes the providers.
func (c *Core) Close() error {
	c.Client.Close()
	return c.RPC.Close()
}
