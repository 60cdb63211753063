// Package domain holds the contract-level values read from the jackpot and its token.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is reported as the winner when the liquidity providers keep the pot.
var ZeroAddress = common.Address{}

// LpInfo is a liquidity provider's position as returned by lpsInfo(address).
type LpInfo struct {
	Principal      *big.Int `json:"principal"`
	Stake          *big.Int `json:"stake"`
	RiskPercentage *big.Int `json:"risk_percentage"`
	Active         bool     `json:"active"`
}

// UserInfo is a player's position as returned by usersInfo(address).
type UserInfo struct {
	TicketsPurchasedTotalBps *big.Int `json:"tickets_purchased_total_bps"`
	WinningsClaimable        *big.Int `json:"winnings_claimable"`
	Active                   bool     `json:"active"`
}

// Winnings returns the claimable amount, treating a missing value as zero.
func (u UserInfo) Winnings() *big.Int {
	if u.WinningsClaimable == nil {
		return new(big.Int)
	}
	return u.WinningsClaimable
}

// LpPoolStatus describes how full the liquidity pool is.
type LpPoolStatus struct {
	Total *big.Int `json:"total"`
	Cap   *big.Int `json:"cap"`
	Open  bool     `json:"open"`
}

// NewLpPoolStatus builds a status; the pool accepts deposits while total < cap.
func NewLpPoolStatus(total, cap *big.Int) LpPoolStatus {
	return LpPoolStatus{Total: total, Cap: cap, Open: total.Cmp(cap) < 0}
}

// JackpotResult is one completed round, decoded from a JackpotRun event.
type JackpotResult struct {
	Time                     time.Time      `json:"time"`
	Winner                   common.Address `json:"winner"`
	WinningTicket            *big.Int       `json:"winning_ticket"`
	WinAmount                *big.Int       `json:"win_amount"`
	TicketsPurchasedTotalBps *big.Int       `json:"tickets_purchased_total_bps"`
	BlockNumber              uint64         `json:"block_number"`
	TxHash                   common.Hash    `json:"tx_hash"`
}

// LPsWon reports whether the round ended without a player winner.
func (r JackpotResult) LPsWon() bool {
	return r.Winner == ZeroAddress
}
