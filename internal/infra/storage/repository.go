package storage

import (
	"context"

	"github.com/vietddude/jackpot/internal/core/domain"
)

// WinnerRepository keeps the history of completed jackpot rounds.
type WinnerRepository interface {
	// Save records a round. It reports false when the round was already stored.
	Save(ctx context.Context, chainID uint64, result domain.JackpotResult) (bool, error)

	// List returns up to limit rounds, newest first
	List(ctx context.Context, chainID uint64, limit int) ([]domain.JackpotResult, error)

	// Close releases the underlying resources
	Close() error
}
