package dashboard

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/jackpot/internal/core/domain"
	"github.com/vietddude/jackpot/internal/jackpot"
	"github.com/vietddude/jackpot/internal/query"
)

const (
	keyPastWinners     = "pastWinners"
	pastWinnersLimit   = 10
	pastWinnersRefresh = 30 * time.Second
)

// History lists recorded rounds, newest first.
type History interface {
	List(ctx context.Context, chainID uint64, limit int) ([]domain.JackpotResult, error)
}

// PastWinnersQuery caches the history store like any contract read. A nil
// history disables it.
func PastWinnersQuery(h History, chainID uint64) query.Descriptor[[]domain.JackpotResult] {
	d := query.Descriptor[[]domain.JackpotResult]{
		Key:             query.Key{keyPastWinners, strconv.FormatUint(chainID, 10)},
		StaleTime:       pastWinnersRefresh,
		RefetchInterval: pastWinnersRefresh,
		Enabled:         h != nil,
	}
	if h != nil {
		d.Fetch = func(ctx context.Context) ([]domain.JackpotResult, error) {
			return h.List(ctx, chainID, pastWinnersLimit)
		}
	}
	return d
}

// Snapshot is every panel of a board at one instant.
type Snapshot struct {
	Wallet        string          `json:"wallet,omitempty"`
	Jackpot       JackpotView     `json:"jackpot"`
	LastJackpot   LastJackpotView `json:"last_jackpot"`
	Withdraw      WithdrawView    `json:"withdraw"`
	TicketPrice   FigureView      `json:"ticket_price"`
	TimeRemaining FigureView      `json:"time_remaining"`
	Odds          FigureView      `json:"odds"`
	PastWinners   PastWinnersView `json:"past_winners"`
	RenderedAt    time.Time       `json:"rendered_at"`
}

// MountOption configures a board.
type MountOption func(*mountConfig)

type mountConfig struct {
	history    History
	chainID    uint64
	withdrawer *Withdrawer
}

// WithHistory adds the past winners panel backed by h.
func WithHistory(h History, chainID uint64) MountOption {
	return func(c *mountConfig) {
		c.history = h
		c.chainID = chainID
	}
}

// WithWithdrawer reports w's write state in the withdraw panel.
func WithWithdrawer(w *Withdrawer) MountOption {
	return func(c *mountConfig) { c.withdrawer = w }
}

// Board holds the observers one dashboard renders from. Observers stay
// mounted, and their keys polled, until Close.
type Board struct {
	wallet     *common.Address
	withdrawer *Withdrawer

	amount    *query.Observer[decimal.Decimal]
	symbol    *query.Observer[string]
	name      *query.Observer[string]
	decimals  *query.Observer[uint8]
	fee       *query.Observer[uint64]
	last      *query.Observer[*domain.JackpotResult]
	user      *query.Observer[domain.UserInfo]
	price     *query.Observer[*big.Int]
	remaining *query.Observer[time.Duration]
	odds      *query.Observer[float64]
	winners   *query.Observer[[]domain.JackpotResult]

	closers []func()
}

// Mount observes every query the dashboard needs for wallet. A nil wallet
// leaves the wallet queries disabled.
func Mount(c *query.Client, q *jackpot.Queries, wallet *common.Address, opts ...MountOption) *Board {
	var cfg mountConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Board{wallet: wallet, withdrawer: cfg.withdrawer}
	b.amount = observe(b, c, q.JackpotAmount())
	b.symbol = observe(b, c, q.TokenSymbol())
	b.name = observe(b, c, q.TokenName())
	b.decimals = observe(b, c, q.TokenDecimals())
	b.fee = observe(b, c, q.FeeBps())
	b.last = observe(b, c, q.LastJackpotResults())
	b.user = observe(b, c, q.UsersInfo(wallet))
	b.price = observe(b, c, q.TicketPriceInWei())
	b.remaining = observe(b, c, q.TimeRemaining())
	b.odds = observe(b, c, q.JackpotOdds())
	b.winners = observe(b, c, PastWinnersQuery(cfg.history, cfg.chainID))
	return b
}

func observe[T any](b *Board, c *query.Client, d query.Descriptor[T]) *query.Observer[T] {
	o := query.Observe(c, d)
	b.closers = append(b.closers, o.Close)
	return o
}

// Wallet returns the wallet the board was mounted for.
func (b *Board) Wallet() *common.Address { return b.wallet }

// Withdrawer returns the board's withdrawer, if any.
func (b *Board) Withdrawer() *Withdrawer { return b.withdrawer }

// Winnings returns the wallet's claimable winnings, zero when unknown.
func (b *Board) Winnings() *big.Int {
	info, ok := b.user.Result().Value()
	if !ok {
		return new(big.Int)
	}
	return info.Winnings()
}

// Snapshot renders every panel from the current results.
func (b *Board) Snapshot() Snapshot {
	var write WriteState
	if b.withdrawer != nil {
		write = b.withdrawer.State()
	}

	symbol := b.symbol.Result()
	decimals := b.decimals.Result()
	fee := b.fee.Result()

	s := Snapshot{
		Jackpot:       CurrentJackpot(b.amount.Result(), symbol),
		LastJackpot:   LastJackpot(b.last.Result(), b.name.Result(), decimals, fee, symbol),
		Withdraw:      WithdrawWinnings(b.user.Result(), b.name.Result(), decimals, write),
		TicketPrice:   TicketPriceFigure(jackpot.TicketPrice(b.price.Result(), decimals), symbol),
		TimeRemaining: TimeRemainingFigure(b.remaining.Result()),
		Odds:          OddsFigure(b.odds.Result()),
		PastWinners:   PastWinners(b.winners.Result(), decimals, fee, symbol),
		RenderedAt:    time.Now().UTC(),
	}
	if b.wallet != nil {
		s.Wallet = b.wallet.Hex()
	}
	return s
}

// Wait blocks until no panel is loading or ctx is done.
func (b *Board) Wait(ctx context.Context) {
	b.amount.Wait(ctx)
	b.symbol.Wait(ctx)
	b.name.Wait(ctx)
	b.decimals.Wait(ctx)
	b.fee.Wait(ctx)
	b.last.Wait(ctx)
	b.user.Wait(ctx)
	b.price.Wait(ctx)
	b.remaining.Wait(ctx)
	b.odds.Wait(ctx)
	b.winners.Wait(ctx)
}

// Close unmounts every observer.
func (b *Board) Close() {
	for _, c := range b.closers {
		c()
	}
}
