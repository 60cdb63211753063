// Package jackpot binds the contract reads to cached queries and derives the
// display values built from them.
package jackpot

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/jackpot/internal/core/domain"
	"github.com/vietddude/jackpot/internal/query"
)

// Gateway is the set of contract reads the dashboard depends on.
type Gateway interface {
	TokenName(ctx context.Context) (string, error)
	TokenSymbol(ctx context.Context) (string, error)
	TokenDecimals(ctx context.Context) (uint8, error)
	TicketPrice(ctx context.Context) (*big.Int, error)
	JackpotAmount(ctx context.Context) (decimal.Decimal, error)
	TimeRemaining(ctx context.Context) (time.Duration, error)
	LpsInfo(ctx context.Context, addr common.Address) (domain.LpInfo, error)
	FeeBps(ctx context.Context) (uint64, error)
	JackpotOdds(ctx context.Context) (float64, error)
	UsersInfo(ctx context.Context, addr common.Address) (domain.UserInfo, error)
	TicketCountForRound(ctx context.Context, addr common.Address) (float64, error)
	TokenBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	TokenAllowance(ctx context.Context, owner common.Address) (*big.Int, error)
	LpPoolStatus(ctx context.Context) (domain.LpPoolStatus, error)
	MinLpDeposit(ctx context.Context) (*big.Int, error)
	LastJackpotResults(ctx context.Context) (*domain.JackpotResult, error)
}

// Query names, used as the first key segment.
const (
	KeyTokenName           = "tokenName"
	KeyTokenSymbol         = "tokenSymbol"
	KeyTokenDecimals       = "tokenDecimals"
	KeyTicketPrice         = "ticketPriceInWei"
	KeyJackpotAmount       = "jackpotAmount"
	KeyTimeRemaining       = "timeRemaining"
	KeyLpsInfo             = "lpsInfo"
	KeyFeeBps              = "feeBps"
	KeyJackpotOdds         = "jackpotOdds"
	KeyUsersInfo           = "usersInfo"
	KeyTicketCountForRound = "ticketCountForRound"
	KeyTokenBalance        = "tokenBalance"
	KeyTokenAllowance      = "tokenAllowance"
	KeyLpPoolStatus        = "lpPoolStatus"
	KeyMinLpDeposit        = "minLpDeposit"
	KeyLastJackpotResults  = "lastJackpotResults"
)

// policy is the caching tier of one query.
type policy struct {
	stale   time.Duration
	refetch time.Duration
	gc      time.Duration
}

var (
	static = policy{stale: query.Forever, gc: query.Forever}

	policies = map[string]policy{
		KeyTokenName:           static,
		KeyTokenSymbol:         static,
		KeyTokenDecimals:       static,
		KeyTicketPrice:         {stale: 15 * time.Second, refetch: 15 * time.Second},
		KeyJackpotAmount:       {stale: 10 * time.Second, refetch: 10 * time.Second},
		KeyTimeRemaining:       {stale: time.Second, refetch: time.Second},
		KeyLpsInfo:             {stale: 15 * time.Second, refetch: 15 * time.Second},
		KeyFeeBps:              {stale: 5 * time.Minute},
		KeyJackpotOdds:         {stale: 30 * time.Second, refetch: 30 * time.Second},
		KeyUsersInfo:           {stale: 10 * time.Second, refetch: 10 * time.Second},
		KeyTicketCountForRound: {stale: 10 * time.Second, refetch: 10 * time.Second},
		KeyTokenBalance:        {stale: 5 * time.Second, refetch: 5 * time.Second},
		KeyTokenAllowance:      {stale: 30 * time.Second, refetch: 30 * time.Second},
		KeyLpPoolStatus:        {stale: 15 * time.Second, refetch: 15 * time.Second},
		KeyMinLpDeposit:        {stale: 5 * time.Minute},
		KeyLastJackpotResults:  {stale: 30 * time.Second, refetch: 30 * time.Second},
	}
)

func describe[T any](name string, fetch func(ctx context.Context) (T, error), params ...string) query.Descriptor[T] {
	p := policies[name]
	return query.Descriptor[T]{
		Key:             append(query.Key{name}, params...),
		Fetch:           fetch,
		StaleTime:       p.stale,
		GCTime:          p.gc,
		RefetchInterval: p.refetch,
		Enabled:         true,
	}
}

// describeFor builds an address-parameterised descriptor. A nil address
// disables it so no request is made with a missing parameter.
func describeFor[T any](name string, addr *common.Address, fetch func(ctx context.Context, addr common.Address) (T, error)) query.Descriptor[T] {
	if addr == nil {
		d := describe[T](name, nil)
		d.Enabled = false
		return d
	}
	a := *addr
	return describe(name, func(ctx context.Context) (T, error) { return fetch(ctx, a) }, AddressParam(a))
}

// AddressParam is the key segment for an address.
func AddressParam(addr common.Address) string {
	return addr.Hex()
}

// UsersInfoKey is the cache key of UsersInfo(addr).
func UsersInfoKey(addr common.Address) query.Key {
	return query.Key{KeyUsersInfo, AddressParam(addr)}
}

// Queries holds one descriptor constructor per contract read.
type Queries struct {
	gw Gateway
}

// NewQueries creates the descriptors for gw.
func NewQueries(gw Gateway) *Queries {
	return &Queries{gw: gw}
}

func (q *Queries) TokenName() query.Descriptor[string] {
	return describe(KeyTokenName, q.gw.TokenName)
}

func (q *Queries) TokenSymbol() query.Descriptor[string] {
	return describe(KeyTokenSymbol, q.gw.TokenSymbol)
}

func (q *Queries) TokenDecimals() query.Descriptor[uint8] {
	return describe(KeyTokenDecimals, q.gw.TokenDecimals)
}

// TicketPriceInWei is the raw ticket price in token base units.
func (q *Queries) TicketPriceInWei() query.Descriptor[*big.Int] {
	return describe(KeyTicketPrice, q.gw.TicketPrice)
}

func (q *Queries) JackpotAmount() query.Descriptor[decimal.Decimal] {
	return describe(KeyJackpotAmount, q.gw.JackpotAmount)
}

func (q *Queries) TimeRemaining() query.Descriptor[time.Duration] {
	return describe(KeyTimeRemaining, q.gw.TimeRemaining)
}

func (q *Queries) LpsInfo(addr *common.Address) query.Descriptor[domain.LpInfo] {
	return describeFor(KeyLpsInfo, addr, q.gw.LpsInfo)
}

func (q *Queries) FeeBps() query.Descriptor[uint64] {
	return describe(KeyFeeBps, q.gw.FeeBps)
}

func (q *Queries) JackpotOdds() query.Descriptor[float64] {
	return describe(KeyJackpotOdds, q.gw.JackpotOdds)
}

func (q *Queries) UsersInfo(addr *common.Address) query.Descriptor[domain.UserInfo] {
	return describeFor(KeyUsersInfo, addr, q.gw.UsersInfo)
}

func (q *Queries) TicketCountForRound(addr *common.Address) query.Descriptor[float64] {
	return describeFor(KeyTicketCountForRound, addr, q.gw.TicketCountForRound)
}

func (q *Queries) TokenBalance(addr *common.Address) query.Descriptor[*big.Int] {
	return describeFor(KeyTokenBalance, addr, q.gw.TokenBalance)
}

// TokenAllowance is the amount addr has approved the jackpot contract to spend.
func (q *Queries) TokenAllowance(addr *common.Address) query.Descriptor[*big.Int] {
	return describeFor(KeyTokenAllowance, addr, q.gw.TokenAllowance)
}

func (q *Queries) LpPoolStatus() query.Descriptor[domain.LpPoolStatus] {
	return describe(KeyLpPoolStatus, q.gw.LpPoolStatus)
}

func (q *Queries) MinLpDeposit() query.Descriptor[*big.Int] {
	return describe(KeyMinLpDeposit, q.gw.MinLpDeposit)
}

// LastJackpotResults yields the most recent round, or nil when none was found
// in the lookback window.
func (q *Queries) LastJackpotResults() query.Descriptor[*domain.JackpotResult] {
	return describe(KeyLastJackpotResults, q.gw.LastJackpotResults)
}
