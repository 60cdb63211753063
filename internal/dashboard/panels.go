// Package dashboard turns query results into panel views and serves them.
package dashboard

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/jackpot/internal/core/domain"
	"github.com/vietddude/jackpot/internal/query"
)

// State is the one thing a panel renders.
type State int

const (
	StateLoading State = iota
	StateError
	StateEmpty
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	case StateSuccess:
		return "success"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the names written by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*s = StateLoading
	case "error":
		*s = StateError
	case "empty":
		*s = StateEmpty
	case "success":
		*s = StateSuccess
	default:
		return fmt.Errorf("unknown panel state %q", b)
	}
	return nil
}

const (
	defaultSymbol   = "TOKEN"
	defaultDecimals = 18

	msgJackpotError     = "Error"
	msgLastJackpotError = "Error loading last jackpot data."
	msgWinningsError    = "Error loading winnings."
	msgWinnersError     = "Error loading past winners."
	msgNoWinners        = "No jackpots recorded yet."
	msgWriteFailed      = "Transaction failed"
)

// JackpotView is the current jackpot panel.
type JackpotView struct {
	State State  `json:"state"`
	Text  string `json:"text,omitempty"`
}

// CurrentJackpot renders the pool size with two fraction digits and the token symbol.
func CurrentJackpot(amount query.Result[decimal.Decimal], symbol query.Result[string]) JackpotView {
	loading, err := query.Merge(amount, symbol)
	if loading {
		return JackpotView{State: StateLoading}
	}
	if err != nil {
		return JackpotView{State: StateError, Text: msgJackpotError}
	}

	v, ok := amount.Value()
	if !ok {
		return JackpotView{State: StateEmpty, Text: NotAvailable}
	}
	return JackpotView{
		State: StateSuccess,
		Text:  FormatAmount(v, 2, 2) + " " + symbol.ValueOr(defaultSymbol),
	}
}

// Row is a label/value line of a panel.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LastJackpotView is the last round panel.
type LastJackpotView struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	Rows    []Row  `json:"rows,omitempty"`
}

// LastJackpot renders the most recent round. A missing round after loading is
// an error, since the panel has nothing optional to fall back to.
func LastJackpot(
	results query.Result[*domain.JackpotResult],
	name query.Result[string],
	decimals query.Result[uint8],
	fee query.Result[uint64],
	symbol query.Result[string],
) LastJackpotView {
	loading, err := query.Merge(results, name, decimals, fee, symbol)
	if loading {
		return LastJackpotView{State: StateLoading}
	}
	res, ok := results.Value()
	if err != nil || !ok || res == nil {
		return LastJackpotView{State: StateError, Message: msgLastJackpotError}
	}

	return LastJackpotView{
		State: StateSuccess,
		Rows: resultRows(*res,
			decimals.ValueOr(defaultDecimals),
			fee.ValueOr(0),
			symbol.ValueOr(defaultSymbol),
		),
	}
}

func resultRows(res domain.JackpotResult, decimals uint8, feeBps uint64, symbol string) []Row {
	winner := FormatAddress(res.Winner.Hex())
	rows := []Row{
		{Label: "Winner:", Value: winner},
		{Label: "Win Amount:", Value: formatTokens(res.WinAmount, decimals) + " " + symbol},
	}
	if winner != LPsWon {
		rows = append(rows, Row{
			Label: "Tickets Purchased:",
			Value: EstimateTickets(res.TicketsPurchasedTotalBps, feeBps) + " Tickets",
		})
	}
	return rows
}

func formatTokens(amount *big.Int, decimals uint8) string {
	return FormatAmount(FromWei(amount, decimals), 0, TokenFractionDigits(decimals))
}

// WithdrawView is the withdraw winnings panel.
type WithdrawView struct {
	State          State  `json:"state"`
	Message        string `json:"message,omitempty"`
	Amount         string `json:"amount,omitempty"`
	ButtonDisabled bool   `json:"button_disabled"`
	Pending        bool   `json:"pending"`
	WriteError     string `json:"write_error,omitempty"`
	TxHash         string `json:"tx_hash,omitempty"`
}

// WithdrawWinnings renders the claimable amount and the withdraw control.
func WithdrawWinnings(
	user query.Result[domain.UserInfo],
	name query.Result[string],
	decimals query.Result[uint8],
	write WriteState,
) WithdrawView {
	loading, err := query.Merge(user, name, decimals)
	if loading {
		return WithdrawView{State: StateLoading, ButtonDisabled: true}
	}
	if err != nil {
		return WithdrawView{State: StateError, Message: msgWinningsError, ButtonDisabled: true}
	}

	winnings := new(big.Int)
	if info, ok := user.Value(); ok {
		winnings = info.Winnings()
	}

	view := WithdrawView{
		State:          StateSuccess,
		Amount:         formatTokens(winnings, decimals.ValueOr(defaultDecimals)) + " " + name.ValueOr(defaultSymbol),
		Pending:        write.Pending(),
		ButtonDisabled: write.Pending() || winnings.Sign() == 0,
	}
	switch write.Status {
	case WriteError:
		msg := msgWriteFailed
		if write.Err != nil && write.Err.Error() != "" {
			msg = write.Err.Error()
		}
		view.WriteError = "Error: " + msg
	case WriteSuccess:
		view.TxHash = write.TxHash.Hex()
	}
	return view
}

// WinnerRow is one recorded round.
type WinnerRow struct {
	Winner    string    `json:"winner"`
	WinAmount string    `json:"win_amount"`
	Tickets   string    `json:"tickets,omitempty"`
	Block     uint64    `json:"block"`
	Time      time.Time `json:"time"`
	TxHash    string    `json:"tx_hash"`
}

// PastWinnersView lists recorded rounds, newest first.
type PastWinnersView struct {
	State   State       `json:"state"`
	Message string      `json:"message,omitempty"`
	Rows    []WinnerRow `json:"rows,omitempty"`
}

// PastWinners renders the history store like the last jackpot panel.
func PastWinners(
	results query.Result[[]domain.JackpotResult],
	decimals query.Result[uint8],
	fee query.Result[uint64],
	symbol query.Result[string],
) PastWinnersView {
	loading, err := query.Merge(results, decimals, fee, symbol)
	if loading {
		return PastWinnersView{State: StateLoading}
	}
	if err != nil {
		return PastWinnersView{State: StateError, Message: msgWinnersError}
	}
	list, _ := results.Value()
	if len(list) == 0 {
		return PastWinnersView{State: StateEmpty, Message: msgNoWinners}
	}

	d := decimals.ValueOr(defaultDecimals)
	feeBps := fee.ValueOr(0)
	sym := symbol.ValueOr(defaultSymbol)

	rows := make([]WinnerRow, 0, len(list))
	for _, res := range list {
		row := WinnerRow{
			Winner:    FormatAddress(res.Winner.Hex()),
			WinAmount: formatTokens(res.WinAmount, d) + " " + sym,
			Block:     res.BlockNumber,
			Time:      res.Time,
			TxHash:    res.TxHash.Hex(),
		}
		if row.Winner != LPsWon {
			row.Tickets = EstimateTickets(res.TicketsPurchasedTotalBps, feeBps)
		}
		rows = append(rows, row)
	}
	return PastWinnersView{State: StateSuccess, Rows: rows}
}

// FigureView is a single formatted number such as the ticket price.
type FigureView struct {
	State State  `json:"state"`
	Text  string `json:"text,omitempty"`
}

func figure[T any](r query.Result[T], format func(T) string) FigureView {
	switch r.Status() {
	case query.StatusLoading:
		return FigureView{State: StateLoading}
	case query.StatusError:
		return FigureView{State: StateError, Text: msgJackpotError}
	case query.StatusSuccess:
		v, _ := r.Value()
		return FigureView{State: StateSuccess, Text: format(v)}
	default:
		return FigureView{State: StateEmpty, Text: NotAvailable}
	}
}

// TicketPriceFigure renders the derived ticket price with the token symbol.
func TicketPriceFigure(price query.Result[float64], symbol query.Result[string]) FigureView {
	return figure(query.Combine2(price, symbol, func(p float64, s string) string {
		return FormatAmount(decimal.NewFromFloat(p), 0, 6) + " " + s
	}), func(s string) string { return s })
}

// TimeRemainingFigure renders the round countdown.
func TimeRemainingFigure(r query.Result[time.Duration]) FigureView {
	return figure(r, FormatDuration)
}

// OddsFigure renders the odds of a single ticket winning.
func OddsFigure(r query.Result[float64]) FigureView {
	return figure(r, FormatOdds)
}
