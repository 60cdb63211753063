package jackpot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/jackpot/internal/core/domain"
	"github.com/vietddude/jackpot/internal/infra/storage/memory"
	"github.com/vietddude/jackpot/internal/query"
)

// fakeGateway answers every read with fixed values.
type fakeGateway struct {
	last      atomic.Pointer[domain.JackpotResult]
	userCalls atomic.Int32
}

func (f *fakeGateway) TokenName(context.Context) (string, error)   { return "Jackpot Token", nil }
func (f *fakeGateway) TokenSymbol(context.Context) (string, error) { return "JPT", nil }
func (f *fakeGateway) TokenDecimals(context.Context) (uint8, error) {
	return 6, nil
}
func (f *fakeGateway) TicketPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}
func (f *fakeGateway) JackpotAmount(context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1234.5"), nil
}
func (f *fakeGateway) TimeRemaining(context.Context) (time.Duration, error) {
	return time.Hour, nil
}
func (f *fakeGateway) LpsInfo(context.Context, common.Address) (domain.LpInfo, error) {
	return domain.LpInfo{}, nil
}
func (f *fakeGateway) FeeBps(context.Context) (uint64, error)        { return 1000, nil }
func (f *fakeGateway) JackpotOdds(context.Context) (float64, error) { return 12.5, nil }
func (f *fakeGateway) UsersInfo(context.Context, common.Address) (domain.UserInfo, error) {
	f.userCalls.Add(1)
	return domain.UserInfo{WinningsClaimable: big.NewInt(5)}, nil
}
func (f *fakeGateway) TicketCountForRound(context.Context, common.Address) (float64, error) {
	return 2, nil
}
func (f *fakeGateway) TokenBalance(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(10), nil
}
func (f *fakeGateway) TokenAllowance(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (f *fakeGateway) LpPoolStatus(context.Context) (domain.LpPoolStatus, error) {
	return domain.NewLpPoolStatus(big.NewInt(1), big.NewInt(2)), nil
}
func (f *fakeGateway) MinLpDeposit(context.Context) (*big.Int, error) { return big.NewInt(100), nil }
func (f *fakeGateway) LastJackpotResults(context.Context) (*domain.JackpotResult, error) {
	return f.last.Load(), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueries_Policies(t *testing.T) {
	q := NewQueries(&fakeGateway{})
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	keyOf := func(name string) query.Key { return query.Key{name} }
	addrKey := func(name string) query.Key { return query.Key{name, addr.Hex()} }

	tests := []struct {
		name string
		got  tier
		want tier
	}{
		{"tokenName", tierOf(q.TokenName()), tier{keyOf(KeyTokenName), query.Forever, 0, query.Forever}},
		{"tokenSymbol", tierOf(q.TokenSymbol()), tier{keyOf(KeyTokenSymbol), query.Forever, 0, query.Forever}},
		{"tokenDecimals", tierOf(q.TokenDecimals()), tier{keyOf(KeyTokenDecimals), query.Forever, 0, query.Forever}},
		{"ticketPrice", tierOf(q.TicketPriceInWei()), tier{keyOf(KeyTicketPrice), 15 * time.Second, 15 * time.Second, 0}},
		{"jackpotAmount", tierOf(q.JackpotAmount()), tier{keyOf(KeyJackpotAmount), 10 * time.Second, 10 * time.Second, 0}},
		{"timeRemaining", tierOf(q.TimeRemaining()), tier{keyOf(KeyTimeRemaining), time.Second, time.Second, 0}},
		{"lpsInfo", tierOf(q.LpsInfo(&addr)), tier{addrKey(KeyLpsInfo), 15 * time.Second, 15 * time.Second, 0}},
		{"feeBps", tierOf(q.FeeBps()), tier{keyOf(KeyFeeBps), 5 * time.Minute, 0, 0}},
		{"jackpotOdds", tierOf(q.JackpotOdds()), tier{keyOf(KeyJackpotOdds), 30 * time.Second, 30 * time.Second, 0}},
		{"usersInfo", tierOf(q.UsersInfo(&addr)), tier{addrKey(KeyUsersInfo), 10 * time.Second, 10 * time.Second, 0}},
		{"ticketCount", tierOf(q.TicketCountForRound(&addr)), tier{addrKey(KeyTicketCountForRound), 10 * time.Second, 10 * time.Second, 0}},
		{"tokenBalance", tierOf(q.TokenBalance(&addr)), tier{addrKey(KeyTokenBalance), 5 * time.Second, 5 * time.Second, 0}},
		{"tokenAllowance", tierOf(q.TokenAllowance(&addr)), tier{addrKey(KeyTokenAllowance), 30 * time.Second, 30 * time.Second, 0}},
		{"lpPoolStatus", tierOf(q.LpPoolStatus()), tier{keyOf(KeyLpPoolStatus), 15 * time.Second, 15 * time.Second, 0}},
		{"minLpDeposit", tierOf(q.MinLpDeposit()), tier{keyOf(KeyMinLpDeposit), 5 * time.Minute, 0, 0}},
		{"lastJackpot", tierOf(q.LastJackpotResults()), tier{keyOf(KeyLastJackpotResults), 30 * time.Second, 30 * time.Second, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.key, tt.got.key)
			assert.Equal(t, tt.want.stale, tt.got.stale)
			assert.Equal(t, tt.want.refetch, tt.got.refetch)
			assert.Equal(t, tt.want.gc, tt.got.gc)
		})
	}
}

type tier struct {
	key                query.Key
	stale, refetch, gc time.Duration
}

func tierOf[T any](d query.Descriptor[T]) tier {
	return tier{d.Key, d.StaleTime, d.RefetchInterval, d.GCTime}
}

func TestQueries_NilAddressDisables(t *testing.T) {
	gw := &fakeGateway{}
	q := NewQueries(gw)

	assert.False(t, q.UsersInfo(nil).Enabled)
	assert.False(t, q.LpsInfo(nil).Enabled)
	assert.False(t, q.TicketCountForRound(nil).Enabled)
	assert.False(t, q.TokenBalance(nil).Enabled)
	assert.False(t, q.TokenAllowance(nil).Enabled)
	assert.True(t, q.FeeBps().Enabled)

	c := query.NewClient(query.WithLogger(quietLogger()))
	defer c.Close()
	obs := query.Observe(c, q.UsersInfo(nil))
	defer obs.Close()
	assert.True(t, obs.Result().IsIdle())
	assert.Equal(t, int32(0), gw.userCalls.Load())
}

func newMockClient(t *testing.T) (*query.Client, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	c := query.NewClient(query.WithClock(mock), query.WithRetry(0), query.WithLogger(quietLogger()))
	t.Cleanup(c.Close)
	return c, mock
}

func TestQueries_UsersInfoPollsOnceAddressKnown(t *testing.T) {
	gw := &fakeGateway{}
	q := NewQueries(gw)
	c, mock := newMockClient(t)

	idle := query.Observe(c, q.UsersInfo(nil))
	mock.Add(30 * time.Second)
	assert.Never(t, func() bool { return gw.userCalls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	idle.Close()

	addr := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	obs := query.Observe(c, q.UsersInfo(&addr))
	defer obs.Close()

	settled := func(calls int32) func() bool {
		return func() bool { return gw.userCalls.Load() == calls && c.Stats().Fetching == 0 }
	}
	require.Eventually(t, settled(1), time.Second, 5*time.Millisecond)

	mock.Add(10 * time.Second)
	require.Eventually(t, settled(2), time.Second, 5*time.Millisecond)

	mock.Add(10 * time.Second)
	require.Eventually(t, settled(3), time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return gw.userCalls.Load() > 3 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestQueries_LastJackpotRefreshesWhileMounted(t *testing.T) {
	gw := &fakeGateway{}
	gw.last.Store(&domain.JackpotResult{BlockNumber: 1, TxHash: common.HexToHash("0x01")})
	q := NewQueries(gw)
	c, mock := newMockClient(t)
	repo := memory.NewWinnerRepo()

	panel := query.Observe(c, q.LastJackpotResults())
	defer panel.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := NewRecorder(c, q, repo, 8453, quietLogger())
	go func() { _ = rec.Run(ctx) }()

	shows := func(block uint64) func() bool {
		return func() bool {
			res, ok := panel.Result().Value()
			return ok && res != nil && res.BlockNumber == block
		}
	}
	stored := func(n int) func() bool {
		return func() bool {
			list, err := repo.List(context.Background(), 8453, 10)
			return err == nil && len(list) == n
		}
	}
	require.Eventually(t, shows(1), time.Second, 5*time.Millisecond)
	require.Eventually(t, stored(1), time.Second, 5*time.Millisecond)

	gw.last.Store(&domain.JackpotResult{BlockNumber: 2, TxHash: common.HexToHash("0x02")})
	mock.Add(30 * time.Second)

	require.Eventually(t, shows(2), time.Second, 5*time.Millisecond)
	require.Eventually(t, stored(2), time.Second, 5*time.Millisecond)
}

func TestQueries_FetchThroughClient(t *testing.T) {
	gw := &fakeGateway{}
	q := NewQueries(gw)
	c := query.NewClient(query.WithLogger(quietLogger()))
	defer c.Close()

	addr := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	info, err := query.Fetch(context.Background(), c, q.UsersInfo(&addr))
	require.NoError(t, err)
	assert.Equal(t, "5", info.Winnings().String())

	// Second read is served from cache.
	_, err = query.Fetch(context.Background(), c, q.UsersInfo(&addr))
	require.NoError(t, err)
	assert.Equal(t, int32(1), gw.userCalls.Load())

	c.Invalidate(UsersInfoKey(addr))
	_, err = query.Fetch(context.Background(), c, q.UsersInfo(&addr))
	require.NoError(t, err)
	assert.Equal(t, int32(2), gw.userCalls.Load())
}

func TestTicketPrice(t *testing.T) {
	price := new(big.Int).Mul(big.NewInt(15), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))

	v, ok := TicketPrice(query.Ready(price), query.Ready(uint8(18))).Value()
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = TicketPrice(query.Ready(big.NewInt(1234)), query.Ready(uint8(0))).Value()
	require.True(t, ok)
	assert.Equal(t, 1234.0, v)

	boom := errors.New("boom")
	assert.True(t, TicketPrice(query.Loading[*big.Int](), query.Failed[uint8](boom)).IsLoading())
	assert.ErrorIs(t, TicketPrice(query.Ready(price), query.Failed[uint8](boom)).Err(), boom)
	assert.True(t, TicketPrice(query.Ready(price), query.Idle[uint8]()).IsIdle())
}

func TestRecorder_SavesLastRound(t *testing.T) {
	gw := &fakeGateway{}
	gw.last.Store(&domain.JackpotResult{
		Winner:        common.HexToAddress("0x00000000000000000000000000000000000000cc"),
		WinAmount:     big.NewInt(99),
		WinningTicket: big.NewInt(1),
		BlockNumber:   42,
		TxHash:        common.HexToHash("0x01"),
	})

	c := query.NewClient(query.WithLogger(quietLogger()))
	defer c.Close()
	repo := memory.NewWinnerRepo()
	rec := NewRecorder(c, NewQueries(gw), repo, 8453, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	require.Eventually(t, func() bool {
		list, err := repo.List(context.Background(), 8453, 10)
		return err == nil && len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	list, err := repo.List(context.Background(), 8453, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), list[0].BlockNumber)
}

type fakeRuns struct {
	head   uint64
	runs   []domain.JackpotResult
	ranges [][2]uint64
}

func (f *fakeRuns) BlockNumber(context.Context) (uint64, error) { return f.head, nil }

func (f *fakeRuns) JackpotRuns(_ context.Context, from, to uint64) ([]domain.JackpotResult, error) {
	f.ranges = append(f.ranges, [2]uint64{from, to})
	var out []domain.JackpotResult
	for _, r := range f.runs {
		if r.BlockNumber >= from && r.BlockNumber <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestBackfill(t *testing.T) {
	src := &fakeRuns{
		head: 250,
		runs: []domain.JackpotResult{
			{BlockNumber: 120, TxHash: common.HexToHash("0x01")},
			{BlockNumber: 160, TxHash: common.HexToHash("0x02")},
			{BlockNumber: 250, TxHash: common.HexToHash("0x03")},
		},
	}
	repo := memory.NewWinnerRepo()

	added, err := Backfill(context.Background(), src, repo, 8453, 100, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, [][2]uint64{{150, 199}, {200, 249}, {250, 250}}, src.ranges)

	// Already stored rounds are not counted again.
	src.ranges = nil
	added, err = Backfill(context.Background(), src, repo, 8453, 100, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}
