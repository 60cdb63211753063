package dashboard

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	// LPsWon replaces the winner when the zero address won the round.
	LPsWon = "LPs Won"
	// NotAvailable is shown for values that cannot be computed.
	NotAvailable = "N/A"

	noAddress = "..."
)

// FromWei scales a raw token amount down by decimals.
func FromWei(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// FormatAmount renders d with en-US digit grouping and between minFrac and
// maxFrac fraction digits, rounding half away from zero.
func FormatAmount(d decimal.Decimal, minFrac, maxFrac int) string {
	maxFrac = max(maxFrac, 0)
	minFrac = min(max(minFrac, 0), maxFrac)

	r := d.Round(int32(maxFrac))
	intPart, frac, _ := strings.Cut(r.Abs().StringFixed(int32(maxFrac)), ".")
	frac = strings.TrimRight(frac, "0")
	if len(frac) < minFrac {
		frac += strings.Repeat("0", minFrac-len(frac))
	}

	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		n = new(big.Int)
	}
	out := humanize.BigComma(n)
	if frac != "" {
		out += "." + frac
	}
	if r.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// TokenFractionDigits is 0 for indivisible tokens and 2 otherwise.
func TokenFractionDigits(decimals uint8) int {
	if decimals == 0 {
		return 0
	}
	return 2
}

// FormatAddress shortens a hex address to its first 6 and last 4 characters.
// The zero address is LPsWon and an empty one is "...".
func FormatAddress(addr string) string {
	if addr == "" {
		return noAddress
	}
	if common.IsHexAddress(addr) && common.HexToAddress(addr) == (common.Address{}) {
		return LPsWon
	}
	head := addr[:min(6, len(addr))]
	tail := addr[max(len(addr)-4, 0):]
	return head + "..." + tail
}

// EstimateTickets approximates the winner's ticket count from the round's total
// ticket value in basis points, adjusted for the fee. The formula is kept as the
// contract UI has always shown it; a zero fee yields NotAvailable.
func EstimateTickets(totalBps *big.Int, feeBps uint64) string {
	if feeBps == 0 {
		return NotAvailable
	}
	bps := 0.0
	if totalBps != nil {
		bps, _ = new(big.Float).SetInt(totalBps).Float64()
	}
	estimate := (bps / 10000) / ((100 - float64(feeBps)/100) / 100)
	if math.IsInf(estimate, 0) || math.IsNaN(estimate) {
		return NotAvailable
	}
	return decimal.NewFromFloat(estimate).StringFixed(0)
}

// FormatDuration renders a countdown such as "1h 02m 03s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// FormatOdds renders odds as "1 in N".
func FormatOdds(odds float64) string {
	if odds <= 0 {
		return NotAvailable
	}
	return "1 in " + FormatAmount(decimal.NewFromFloat(odds), 0, 2)
}
