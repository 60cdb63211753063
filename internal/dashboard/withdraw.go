package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/vietddude/jackpot/internal/infra/chain/evm"
	"github.com/vietddude/jackpot/internal/jackpot"
	"github.com/vietddude/jackpot/internal/metrics"
	"github.com/vietddude/jackpot/internal/query"
)

var (
	// ErrNothingToWithdraw is returned when the wallet has no claimable winnings.
	ErrNothingToWithdraw = errors.New("no winnings to withdraw")
	// ErrWithdrawPending is returned while a previous withdrawal is in flight.
	ErrWithdrawPending = errors.New("withdrawal already pending")
)

// Writer submits contract writes.
type Writer interface {
	WriteContract(ctx context.Context, req evm.WriteRequest) (common.Hash, error)
}

// WriteStatus is the lifecycle of a submitted write.
type WriteStatus int

const (
	WriteIdle WriteStatus = iota
	WritePending
	WriteSuccess
	WriteError
)

func (s WriteStatus) String() string {
	switch s {
	case WriteIdle:
		return "idle"
	case WritePending:
		return "pending"
	case WriteSuccess:
		return "success"
	case WriteError:
		return "error"
	default:
		return "unknown"
	}
}

// WriteState is the latest withdrawal attempt.
type WriteState struct {
	ID     string
	Status WriteStatus
	TxHash common.Hash
	Err    error
}

// Pending reports whether a write is in flight.
func (s WriteState) Pending() bool { return s.Status == WritePending }

// Withdrawer submits withdrawWinnings for one wallet and tracks the outcome.
type Withdrawer struct {
	mu       sync.Mutex
	writer   Writer
	contract common.Address
	wallet   *common.Address
	queries  *query.Client
	log      *slog.Logger
	state    WriteState
}

// NewWithdrawer creates a withdrawer. After a successful write the wallet's
// user info is invalidated in queries, when both are set.
func NewWithdrawer(writer Writer, contract common.Address, wallet *common.Address, queries *query.Client, log *slog.Logger) *Withdrawer {
	if log == nil {
		log = slog.Default()
	}
	return &Withdrawer{
		writer:   writer,
		contract: contract,
		wallet:   wallet,
		queries:  queries,
		log:      log.With("component", "withdrawer"),
	}
}

// State returns the latest write state.
func (w *Withdrawer) State() WriteState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Submit issues one withdrawWinnings call. It makes no call when winnings is
// zero or another write is pending. A failed write is recorded in the state and
// does not block later submissions.
func (w *Withdrawer) Submit(ctx context.Context, winnings *big.Int) (WriteState, error) {
	w.mu.Lock()
	if winnings == nil || winnings.Sign() == 0 {
		w.mu.Unlock()
		metrics.WithdrawSubmissions.WithLabelValues("skipped").Inc()
		return w.State(), ErrNothingToWithdraw
	}
	if w.state.Pending() {
		w.mu.Unlock()
		metrics.WithdrawSubmissions.WithLabelValues("skipped").Inc()
		return w.State(), ErrWithdrawPending
	}
	id := uuid.NewString()
	w.state = WriteState{ID: id, Status: WritePending}
	w.mu.Unlock()

	w.log.Info("Submitting withdrawal", "id", id, "winnings", winnings.String())
	hash, err := w.writer.WriteContract(ctx, evm.WriteRequest{
		Address:      w.contract,
		ABI:          &evm.JackpotABI,
		FunctionName: evm.WithdrawWinningsMethod,
	})

	w.mu.Lock()
	if err != nil {
		w.state = WriteState{ID: id, Status: WriteError, Err: err}
	} else {
		w.state = WriteState{ID: id, Status: WriteSuccess, TxHash: hash}
	}
	state := w.state
	w.mu.Unlock()

	if err != nil {
		metrics.WithdrawSubmissions.WithLabelValues("error").Inc()
		w.log.Error("Withdrawal failed", "id", id, "error", err)
		return state, err
	}

	metrics.WithdrawSubmissions.WithLabelValues("success").Inc()
	w.log.Info("Withdrawal submitted", "id", id, "tx", hash.Hex())
	if w.queries != nil && w.wallet != nil {
		w.queries.Invalidate(jackpot.UsersInfoKey(*w.wallet))
	}
	return state, nil
}
