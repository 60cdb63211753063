package jackpot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/jackpot/internal/core/domain"
	"github.com/vietddude/jackpot/internal/infra/storage"
	"github.com/vietddude/jackpot/internal/metrics"
	"github.com/vietddude/jackpot/internal/query"
)

// RunSource lists completed rounds in a block range.
type RunSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	JackpotRuns(ctx context.Context, from, to uint64) ([]domain.JackpotResult, error)
}

// Recorder stores every round seen by the last-jackpot query.
type Recorder struct {
	client  *query.Client
	queries *Queries
	repo    storage.WinnerRepository
	chainID uint64
	log     *slog.Logger

	lastTx common.Hash
}

// NewRecorder creates a recorder writing to repo.
func NewRecorder(client *query.Client, queries *Queries, repo storage.WinnerRepository, chainID uint64, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		client:  client,
		queries: queries,
		repo:    repo,
		chainID: chainID,
		log:     log.With("component", "recorder"),
	}
}

// Run observes the last round until ctx is done.
func (r *Recorder) Run(ctx context.Context) error {
	obs := query.Observe(r.client, r.queries.LastJackpotResults())
	defer obs.Close()

	r.log.Info("Recording jackpot results", "chain_id", r.chainID)
	for {
		changed := obs.Changed()
		if res, ok := obs.Result().Value(); ok && res != nil {
			r.record(ctx, *res)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
	}
}

func (r *Recorder) record(ctx context.Context, res domain.JackpotResult) {
	if res.TxHash == r.lastTx {
		return
	}
	inserted, err := r.repo.Save(ctx, r.chainID, res)
	if err != nil {
		r.log.Error("Failed to save jackpot result", "tx", res.TxHash.Hex(), "error", err)
		return
	}
	r.lastTx = res.TxHash
	if inserted {
		metrics.WinnersRecorded.Inc()
		r.log.Info("Recorded jackpot result",
			"block", res.BlockNumber,
			"winner", res.Winner.Hex(),
			"tx", res.TxHash.Hex(),
		)
	}
}

// Backfill saves the rounds of the last lookback blocks, scanning chunk blocks
// per request, and returns how many were new.
func Backfill(ctx context.Context, src RunSource, repo storage.WinnerRepository, chainID, lookback, chunk uint64) (int, error) {
	head, err := src.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("get head: %w", err)
	}
	start := uint64(0)
	if head > lookback {
		start = head - lookback
	}
	chunk = max(chunk, 1)

	added := 0
	for from := start; from <= head; from += chunk {
		to := min(from+chunk-1, head)
		runs, err := src.JackpotRuns(ctx, from, to)
		if err != nil {
			return added, fmt.Errorf("list runs %d-%d: %w", from, to, err)
		}
		for _, run := range runs {
			inserted, err := repo.Save(ctx, chainID, run)
			if err != nil {
				return added, fmt.Errorf("save run %s: %w", run.TxHash.Hex(), err)
			}
			if inserted {
				added++
				metrics.WinnersRecorded.Inc()
			}
		}
	}
	return added, nil
}
