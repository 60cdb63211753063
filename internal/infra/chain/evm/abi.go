package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const jackpotABIJSON = `[
  {"type":"function","name":"token","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"ticketPrice","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"lpPoolTotal","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"userPoolTotal","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"lpPoolCap","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"feeBps","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"minLpDeposit","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"lastJackpotEndTime","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"roundDurationInSeconds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"lpsInfo","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[
     {"name":"principal","type":"uint256"},
     {"name":"stake","type":"uint256"},
     {"name":"riskPercentage","type":"uint256"},
     {"name":"active","type":"bool"}]},
  {"type":"function","name":"usersInfo","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[
     {"name":"ticketsPurchasedTotalBps","type":"uint256"},
     {"name":"winningsClaimable","type":"uint256"},
     {"name":"active","type":"bool"}]},
  {"type":"function","name":"withdrawWinnings","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"event","name":"JackpotRun","anonymous":false,
   "inputs":[
     {"name":"time","type":"uint256","indexed":false},
     {"name":"winner","type":"address","indexed":false},
     {"name":"winningTicket","type":"uint256","indexed":false},
     {"name":"winAmount","type":"uint256","indexed":false},
     {"name":"ticketsPurchasedTotalBps","type":"uint256","indexed":false}]}
]`

const erc20ABIJSON = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	// JackpotABI is the subset of the jackpot contract this service reads and writes.
	JackpotABI = mustParseABI(jackpotABIJSON)

	// ERC20ABI covers the token metadata, balance and allowance reads.
	ERC20ABI = mustParseABI(erc20ABIJSON)
)

// WithdrawWinningsMethod is the jackpot function that pays out claimable winnings.
const WithdrawWinningsMethod = "withdrawWinnings"

// JackpotRunEvent is emitted once per completed round.
const JackpotRunEvent = "JackpotRun"

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("evm: invalid embedded abi: " + err.Error())
	}
	return parsed
}
