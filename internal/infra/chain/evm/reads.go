package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/jackpot/internal/core/domain"
)

var bpsDenominator = big.NewInt(10_000)

// TokenName returns the token's name.
func (g *Gateway) TokenName(ctx context.Context) (string, error) {
	return g.tokenString(ctx, "name")
}

// TokenSymbol returns the token's ticker symbol.
func (g *Gateway) TokenSymbol(ctx context.Context) (string, error) {
	return g.tokenString(ctx, "symbol")
}

func (g *Gateway) tokenString(ctx context.Context, method string) (string, error) {
	values, err := g.callToken(ctx, method)
	if err != nil {
		return "", err
	}
	s, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected type %T", method, values[0])
	}
	return s, nil
}

// TokenDecimals returns the token's decimals.
func (g *Gateway) TokenDecimals(ctx context.Context) (uint8, error) {
	values, err := g.callToken(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", values[0])
	}
	return d, nil
}

// TicketPrice returns the ticket price in the token's smallest unit.
func (g *Gateway) TicketPrice(ctx context.Context) (*big.Int, error) {
	return g.jackpotUint(ctx, "ticketPrice")
}

// JackpotAmount returns the current pot in whole tokens.
func (g *Gateway) JackpotAmount(ctx context.Context) (decimal.Decimal, error) {
	var (
		total    *big.Int
		decimals uint8
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		total, err = g.jackpotUint(ctx, "lpPoolTotal")
		return err
	})
	eg.Go(func() (err error) {
		decimals, err = g.TokenDecimals(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(total, -int32(decimals)), nil
}

// TimeRemaining returns how long until the current round can be settled,
// never negative.
func (g *Gateway) TimeRemaining(ctx context.Context) (time.Duration, error) {
	var lastEnd, duration *big.Int
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		lastEnd, err = g.jackpotUint(ctx, "lastJackpotEndTime")
		return err
	})
	eg.Go(func() (err error) {
		duration, err = g.jackpotUint(ctx, "roundDurationInSeconds")
		return err
	})
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	end := new(big.Int).Add(lastEnd, duration)
	remaining := new(big.Int).Sub(end, big.NewInt(g.clock.Now().Unix()))
	if remaining.Sign() <= 0 {
		return 0, nil
	}
	if !remaining.IsInt64() || remaining.Int64() > int64(time.Duration(1<<62)/time.Second) {
		return 0, fmt.Errorf("round end out of range: %s", end)
	}
	return time.Duration(remaining.Int64()) * time.Second, nil
}

// LpsInfo returns the liquidity position of addr.
func (g *Gateway) LpsInfo(ctx context.Context, addr common.Address) (domain.LpInfo, error) {
	values, err := g.callJackpot(ctx, "lpsInfo", addr)
	if err != nil {
		return domain.LpInfo{}, err
	}

	var info domain.LpInfo
	if info.Principal, err = asBig(values, 0, "lpsInfo"); err != nil {
		return domain.LpInfo{}, err
	}
	if info.Stake, err = asBig(values, 1, "lpsInfo"); err != nil {
		return domain.LpInfo{}, err
	}
	if info.RiskPercentage, err = asBig(values, 2, "lpsInfo"); err != nil {
		return domain.LpInfo{}, err
	}
	if info.Active, err = asBool(values, 3, "lpsInfo"); err != nil {
		return domain.LpInfo{}, err
	}
	return info, nil
}

// FeeBps returns the protocol fee in basis points.
func (g *Gateway) FeeBps(ctx context.Context) (uint64, error) {
	fee, err := g.jackpotUint(ctx, "feeBps")
	if err != nil {
		return 0, err
	}
	if !fee.IsUint64() {
		return 0, fmt.Errorf("feeBps out of range: %s", fee)
	}
	return fee.Uint64(), nil
}

// JackpotOdds returns N for "1 in N" odds of a single ticket winning.
func (g *Gateway) JackpotOdds(ctx context.Context) (float64, error) {
	var (
		jackpot  decimal.Decimal
		price    *big.Int
		decimals uint8
		fee      uint64
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		jackpot, err = g.JackpotAmount(ctx)
		return err
	})
	eg.Go(func() (err error) {
		price, err = g.TicketPrice(ctx)
		return err
	})
	eg.Go(func() (err error) {
		decimals, err = g.TokenDecimals(ctx)
		return err
	})
	eg.Go(func() (err error) {
		fee, err = g.FeeBps(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	return Odds(jackpot, decimal.NewFromBigInt(price, -int32(decimals)), fee), nil
}

// Odds computes jackpot / (ticketPrice * (100 - fee/100) / 100).
func Odds(jackpot, ticketPrice decimal.Decimal, feeBps uint64) float64 {
	feePercent := decimal.NewFromInt(int64(feeBps)).Div(decimal.NewFromInt(100))
	hundred := decimal.NewFromInt(100)
	perTicket := ticketPrice.Mul(hundred.Sub(feePercent)).Div(hundred)
	if perTicket.Sign() <= 0 {
		return 0
	}
	return jackpot.Div(perTicket).InexactFloat64()
}

// UsersInfo returns the player position of addr.
func (g *Gateway) UsersInfo(ctx context.Context, addr common.Address) (domain.UserInfo, error) {
	values, err := g.callJackpot(ctx, "usersInfo", addr)
	if err != nil {
		return domain.UserInfo{}, err
	}

	var info domain.UserInfo
	if info.TicketsPurchasedTotalBps, err = asBig(values, 0, "usersInfo"); err != nil {
		return domain.UserInfo{}, err
	}
	if info.WinningsClaimable, err = asBig(values, 1, "usersInfo"); err != nil {
		return domain.UserInfo{}, err
	}
	if info.Active, err = asBool(values, 2, "usersInfo"); err != nil {
		return domain.UserInfo{}, err
	}
	return info, nil
}

// TicketCountForRound returns how many tickets addr holds in the current round.
func (g *Gateway) TicketCountForRound(ctx context.Context, addr common.Address) (float64, error) {
	info, err := g.UsersInfo(ctx, addr)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromBigInt(info.TicketsPurchasedTotalBps, 0).
		Div(decimal.NewFromBigInt(bpsDenominator, 0)).
		InexactFloat64(), nil
}

// TokenBalance returns the token balance of addr.
func (g *Gateway) TokenBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	values, err := g.callToken(ctx, "balanceOf", addr)
	if err != nil {
		return nil, err
	}
	return asBig(values, 0, "balanceOf")
}

// TokenAllowance returns how much the jackpot contract may spend on behalf of owner.
func (g *Gateway) TokenAllowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	values, err := g.callToken(ctx, "allowance", owner, g.contract)
	if err != nil {
		return nil, err
	}
	return asBig(values, 0, "allowance")
}

// LpPoolStatus returns the pool total against its cap.
func (g *Gateway) LpPoolStatus(ctx context.Context) (domain.LpPoolStatus, error) {
	var total, capacity *big.Int
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		total, err = g.jackpotUint(ctx, "lpPoolTotal")
		return err
	})
	eg.Go(func() (err error) {
		capacity, err = g.jackpotUint(ctx, "lpPoolCap")
		return err
	})
	if err := eg.Wait(); err != nil {
		return domain.LpPoolStatus{}, err
	}
	return domain.NewLpPoolStatus(total, capacity), nil
}

// MinLpDeposit returns the minimum liquidity deposit.
func (g *Gateway) MinLpDeposit(ctx context.Context) (*big.Int, error) {
	return g.jackpotUint(ctx, "minLpDeposit")
}
