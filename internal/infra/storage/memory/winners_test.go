package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/jackpot/internal/core/domain"
)

func result(block uint64, tx byte) domain.JackpotResult {
	return domain.JackpotResult{
		BlockNumber: block,
		TxHash:      common.Hash{tx},
		WinAmount:   big.NewInt(int64(block)),
	}
}

func TestWinnerRepo_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewWinnerRepo()

	for _, r := range []domain.JackpotResult{result(10, 1), result(30, 3), result(20, 2)} {
		inserted, err := repo.Save(ctx, 8453, r)
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	inserted, err := repo.Save(ctx, 8453, result(10, 1))
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate tx should not be stored twice")

	list, err := repo.List(ctx, 8453, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(30), list[0].BlockNumber)
	assert.Equal(t, uint64(20), list[1].BlockNumber)

	other, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
