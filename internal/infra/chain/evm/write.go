package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoSigner is returned by writes when no private key is configured.
var ErrNoSigner = errors.New("no wallet key configured")

// Signer signs transactions with a local private key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewSigner parses a hex private key (with or without 0x) for chainID.
func NewSigner(hexKey string, chainID uint64) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).SetUint64(chainID),
	}, nil
}

// Address returns the account the signer controls.
func (s *Signer) Address() common.Address {
	return s.address
}

// Sign signs tx for the signer's chain.
func (s *Signer) Sign(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
}

// WriteRequest identifies a contract function call to submit.
type WriteRequest struct {
	Address      common.Address
	ABI          *abi.ABI
	FunctionName string
	Args         []any
}

// WriteContract signs and broadcasts a call to req.FunctionName and returns
// the transaction hash once the node accepts it.
func (g *Gateway) WriteContract(ctx context.Context, req WriteRequest) (common.Hash, error) {
	if g.signer == nil {
		return common.Hash{}, ErrNoSigner
	}
	if req.ABI == nil {
		return common.Hash{}, fmt.Errorf("write %s: missing abi", req.FunctionName)
	}

	data, err := req.ABI.Pack(req.FunctionName, req.Args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", req.FunctionName, err)
	}

	from := g.signer.Address()
	to := req.Address

	var nonce hexutil.Uint64
	if err := g.rpc.CallResult(ctx, &nonce, "eth_getTransactionCount", from, "pending"); err != nil {
		return common.Hash{}, fmt.Errorf("eth_getTransactionCount failed: %w", err)
	}

	var gasPrice hexutil.Big
	if err := g.rpc.CallResult(ctx, &gasPrice, "eth_gasPrice"); err != nil {
		return common.Hash{}, fmt.Errorf("eth_gasPrice failed: %w", err)
	}

	var gas hexutil.Uint64
	if err := g.rpc.CallResult(ctx, &gas, "eth_estimateGas", callArgs{From: &from, To: &to, Data: data}); err != nil {
		return common.Hash{}, fmt.Errorf("eth_estimateGas %s failed: %w", req.FunctionName, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(nonce),
		GasPrice: gasPrice.ToInt(),
		Gas:      uint64(gas) * 12 / 10, // 20% headroom over the estimate
		To:       &to,
		Value:    new(big.Int),
		Data:     data,
	})

	signed, err := g.signer.Sign(tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign %s: %w", req.FunctionName, err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode %s: %w", req.FunctionName, err)
	}

	hash := signed.Hash()
	if _, err := g.rpc.CallOnce(ctx, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		if !alreadyKnown(err) {
			return common.Hash{}, fmt.Errorf("eth_sendRawTransaction failed: %w", err)
		}
		// A previous attempt reached a node before its response was lost.
		g.log.Warn("Transaction already in mempool", "method", req.FunctionName, "hash", hash.Hex())
	}

	g.log.Info("Submitted transaction", "method", req.FunctionName, "to", to.Hex(), "hash", hash.Hex(), "nonce", uint64(nonce))
	return hash, nil
}

func alreadyKnown(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction")
}

// WithdrawWinnings submits withdrawWinnings() to the jackpot contract.
func (g *Gateway) WithdrawWinnings(ctx context.Context) (common.Hash, error) {
	return g.WriteContract(ctx, WriteRequest{
		Address:      g.contract,
		ABI:          &JackpotABI,
		FunctionName: WithdrawWinningsMethod,
	})
}

// TransactionReceipt returns the receipt for hash, or nil while it is pending.
func (g *Gateway) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	raw, err := g.rpc.Call(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt failed: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var receipt types.Receipt
	if err := receipt.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &receipt, nil
}
