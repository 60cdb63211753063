package jackpot

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vietddude/jackpot/internal/query"
)

// TicketPrice converts the raw price into whole tokens. It only composes
// existing results and never fetches.
func TicketPrice(price query.Result[*big.Int], decimals query.Result[uint8]) query.Result[float64] {
	return query.Combine2(price, decimals, func(p *big.Int, d uint8) float64 {
		if p == nil {
			return 0
		}
		return decimal.NewFromBigInt(p, -int32(d)).InexactFloat64()
	})
}
