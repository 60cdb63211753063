package dashboard

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in       string
		min, max int
		want     string
	}{
		{"1234.5", 2, 2, "1,234.50"},
		{"1234567.891", 2, 2, "1,234,567.89"},
		{"0.005", 2, 2, "0.01"},
		{"-1234.565", 2, 2, "-1,234.57"},
		{"0", 2, 2, "0.00"},
		{"1.5", 0, 0, "2"},
		{"12.3", 0, 2, "12.3"},
		{"12", 0, 2, "12"},
		{"999.999", 0, 2, "1,000"},
		{"123456789012345678901234.5", 0, 0, "123,456,789,012,345,678,901,235"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in), tt.min, tt.max))
		})
	}
}

func TestFromWei(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FromWei(wei, 18).String())
	assert.Equal(t, "1234", FromWei(big.NewInt(1234), 0).String())
	assert.True(t, FromWei(nil, 18).IsZero())

	// Fraction digits follow the token's decimals.
	assert.Equal(t, "1.5", FormatAmount(FromWei(wei, 18), 0, TokenFractionDigits(18)))
	assert.Equal(t, "1,234", FormatAmount(FromWei(big.NewInt(1234), 0), 0, TokenFractionDigits(0)))
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "0x1234...5678", FormatAddress("0x1234567890abcdef1234567890abcdef12345678"))
	assert.Equal(t, LPsWon, FormatAddress("0x0000000000000000000000000000000000000000"))
	assert.Equal(t, "...", FormatAddress(""))
	assert.Equal(t, "0xab...0xab", FormatAddress("0xab"))
}

// The estimate reproduces the historical formula, rounding included.
func TestEstimateTickets(t *testing.T) {
	tests := []struct {
		name  string
		total *big.Int
		fee   uint64
		want  string
	}{
		{"five tickets at ten percent", big.NewInt(50000), 1000, "6"},
		{"ten tickets at five percent", big.NewInt(100000), 500, "11"},
		{"zero fee", big.NewInt(50000), 0, NotAvailable},
		{"full fee", big.NewInt(50000), 10000, NotAvailable},
		{"no tickets", nil, 1000, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTickets(tt.total, tt.fee))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1h 02m 03s", FormatDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "1m 05s", FormatDuration(65*time.Second))
	assert.Equal(t, "0m 00s", FormatDuration(-time.Second))
	assert.Equal(t, "26h 00m 00s", FormatDuration(26*time.Hour))
}

func TestFormatOdds(t *testing.T) {
	assert.Equal(t, "1 in 137.17", FormatOdds(137.17421))
	assert.Equal(t, NotAvailable, FormatOdds(0))
}
