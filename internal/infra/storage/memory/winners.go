package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/jackpot/internal/core/domain"
)

type winnerKey struct {
	chainID uint64
	tx      common.Hash
}

// WinnerRepo is an in-process storage.WinnerRepository used when no database is configured.
type WinnerRepo struct {
	mu      sync.RWMutex
	seen    map[winnerKey]struct{}
	results map[uint64][]domain.JackpotResult
}

func NewWinnerRepo() *WinnerRepo {
	return &WinnerRepo{
		seen:    make(map[winnerKey]struct{}),
		results: make(map[uint64][]domain.JackpotResult),
	}
}

func (r *WinnerRepo) Save(ctx context.Context, chainID uint64, result domain.JackpotResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := winnerKey{chainID: chainID, tx: result.TxHash}
	if _, ok := r.seen[key]; ok {
		return false, nil
	}
	r.seen[key] = struct{}{}

	list := append(r.results[chainID], result)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].BlockNumber > list[j].BlockNumber
	})
	r.results[chainID] = list
	return true, nil
}

func (r *WinnerRepo) List(ctx context.Context, chainID uint64, limit int) ([]domain.JackpotResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.results[chainID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]domain.JackpotResult, len(list))
	copy(out, list)
	return out, nil
}

func (r *WinnerRepo) Close() error {
	return nil
}
