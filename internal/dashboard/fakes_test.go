package dashboard

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/jackpot/internal/core/domain"
	"github.com/vietddude/jackpot/internal/infra/chain/evm"
)

var (
	testWallet   = common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tokens(whole int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// fakeGateway serves fixed contract state.
type fakeGateway struct {
	mu        sync.Mutex
	winnings  map[common.Address]*big.Int
	userCalls atomic.Int32
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{winnings: map[common.Address]*big.Int{testWallet: tokens(3)}}
}

func (f *fakeGateway) TokenName(context.Context) (string, error)    { return "Jackpot Token", nil }
func (f *fakeGateway) TokenSymbol(context.Context) (string, error)  { return "JPT", nil }
func (f *fakeGateway) TokenDecimals(context.Context) (uint8, error) { return 18, nil }
func (f *fakeGateway) TicketPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Div(tokens(3), big.NewInt(2)), nil
}
func (f *fakeGateway) JackpotAmount(context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1234.5"), nil
}
func (f *fakeGateway) TimeRemaining(context.Context) (time.Duration, error) {
	return time.Hour + 2*time.Minute + 3*time.Second, nil
}
func (f *fakeGateway) LpsInfo(context.Context, common.Address) (domain.LpInfo, error) {
	return domain.LpInfo{}, nil
}
func (f *fakeGateway) FeeBps(context.Context) (uint64, error)        { return 1000, nil }
func (f *fakeGateway) JackpotOdds(context.Context) (float64, error) { return 137.17421, nil }
func (f *fakeGateway) UsersInfo(_ context.Context, addr common.Address) (domain.UserInfo, error) {
	f.userCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.UserInfo{WinningsClaimable: f.winnings[addr]}, nil
}
func (f *fakeGateway) TicketCountForRound(context.Context, common.Address) (float64, error) {
	return 2.5, nil
}
func (f *fakeGateway) TokenBalance(context.Context, common.Address) (*big.Int, error) {
	return tokens(10), nil
}
func (f *fakeGateway) TokenAllowance(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int), nil
}
func (f *fakeGateway) LpPoolStatus(context.Context) (domain.LpPoolStatus, error) {
	return domain.NewLpPoolStatus(tokens(1), tokens(2)), nil
}
func (f *fakeGateway) MinLpDeposit(context.Context) (*big.Int, error) { return tokens(100), nil }
func (f *fakeGateway) LastJackpotResults(context.Context) (*domain.JackpotResult, error) {
	return &domain.JackpotResult{
		Winner:                   testWallet,
		WinAmount:                new(big.Int).Div(tokens(123456789), big.NewInt(10000)),
		TicketsPurchasedTotalBps: big.NewInt(50000),
		WinningTicket:            big.NewInt(1),
		BlockNumber:              100,
		TxHash:                   common.HexToHash("0x01"),
	}, nil
}

// fakeWriter records contract writes.
type fakeWriter struct {
	mu    sync.Mutex
	reqs  []evm.WriteRequest
	err   error
	gate  chan struct{}
	calls atomic.Int32
}

func (f *fakeWriter) WriteContract(ctx context.Context, req evm.WriteRequest) (common.Hash, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	err := f.err
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		}
	}
	if err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash("0xbeef"), nil
}
