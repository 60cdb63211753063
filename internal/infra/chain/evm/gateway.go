// Package evm reads jackpot and token state over JSON-RPC and submits
// signed contract writes.
package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Caller is the JSON-RPC surface the gateway needs. *rpc.Client implements it.
type Caller interface {
	Call(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	CallResult(ctx context.Context, out any, method string, params ...any) error
	CallOnce(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// Gateway exposes typed reads of the jackpot contract and its token.
type Gateway struct {
	rpc      Caller
	contract common.Address
	signer   *Signer
	clock    clock.Clock
	log      *slog.Logger

	lookbackBlocks uint64
	chunkBlocks    uint64

	tokenMu sync.Mutex
	token   *common.Address
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock overrides the clock used for the round countdown.
func WithClock(c clock.Clock) Option {
	return func(g *Gateway) { g.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithSigner enables contract writes.
func WithSigner(s *Signer) Option {
	return func(g *Gateway) { g.signer = s }
}

// WithLogRange bounds the search for the last JackpotRun event.
func WithLogRange(lookback, chunk uint64) Option {
	return func(g *Gateway) {
		g.lookbackBlocks = lookback
		g.chunkBlocks = chunk
	}
}

// NewGateway creates a gateway for the jackpot contract at address.
func NewGateway(caller Caller, contract common.Address, opts ...Option) *Gateway {
	g := &Gateway{
		rpc:            caller,
		contract:       contract,
		clock:          clock.New(),
		log:            slog.Default(),
		lookbackBlocks: 100_000,
		chunkBlocks:    5_000,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.chunkBlocks == 0 {
		g.chunkBlocks = max(g.lookbackBlocks, 1)
	}
	return g
}

// Contract returns the jackpot contract address.
func (g *Gateway) Contract() common.Address {
	return g.contract
}

// Signer returns the configured signer, or nil when writes are disabled.
func (g *Gateway) Signer() *Signer {
	return g.signer
}

type callArgs struct {
	From *common.Address `json:"from,omitempty"`
	To   *common.Address `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

// callContract packs method, runs eth_call against the latest block and unpacks the outputs.
func (g *Gateway) callContract(
	ctx context.Context,
	to common.Address,
	contractABI *abi.ABI,
	method string,
	args ...any,
) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	var out hexutil.Bytes
	if err := g.rpc.CallResult(ctx, &out, "eth_call", callArgs{To: &to, Data: data}, "latest"); err != nil {
		return nil, fmt.Errorf("eth_call %s failed: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("eth_call %s: empty return data from %s", method, to.Hex())
	}

	values, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func (g *Gateway) callJackpot(ctx context.Context, method string, args ...any) ([]any, error) {
	return g.callContract(ctx, g.contract, &JackpotABI, method, args...)
}

func (g *Gateway) callToken(ctx context.Context, method string, args ...any) ([]any, error) {
	token, err := g.Token(ctx)
	if err != nil {
		return nil, err
	}
	return g.callContract(ctx, token, &ERC20ABI, method, args...)
}

func (g *Gateway) jackpotUint(ctx context.Context, method string) (*big.Int, error) {
	values, err := g.callJackpot(ctx, method)
	if err != nil {
		return nil, err
	}
	return asBig(values, 0, method)
}

// Token returns the ERC-20 the jackpot is denominated in. The address never
// changes, so it is fetched once.
func (g *Gateway) Token(ctx context.Context) (common.Address, error) {
	g.tokenMu.Lock()
	defer g.tokenMu.Unlock()

	if g.token != nil {
		return *g.token, nil
	}

	values, err := g.callJackpot(ctx, "token")
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("token: unexpected type %T", values[0])
	}
	g.token = &addr
	return addr, nil
}

func asBig(values []any, i int, method string) (*big.Int, error) {
	if len(values) <= i {
		return nil, fmt.Errorf("%s: missing output %d", method, i)
	}
	v, ok := values[i].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: output %d has type %T", method, i, values[i])
	}
	return v, nil
}

func asBool(values []any, i int, method string) (bool, error) {
	if len(values) <= i {
		return false, fmt.Errorf("%s: missing output %d", method, i)
	}
	v, ok := values[i].(bool)
	if !ok {
		return false, fmt.Errorf("%s: output %d has type %T", method, i, values[i])
	}
	return v, nil
}
