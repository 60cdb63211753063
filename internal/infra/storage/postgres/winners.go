package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/jackpot/internal/core/domain"
)

// WinnerRepo implements storage.WinnerRepository using PostgreSQL.
type WinnerRepo struct {
	db *DB
}

// NewWinnerRepo creates a new PostgreSQL winners repository.
func NewWinnerRepo(db *DB) *WinnerRepo {
	return &WinnerRepo{db: db}
}

type resultRow struct {
	TxHash                   string    `db:"tx_hash"`
	BlockNumber              int64     `db:"block_number"`
	RunAt                    time.Time `db:"run_at"`
	Winner                   string    `db:"winner"`
	WinningTicket            string    `db:"winning_ticket"`
	WinAmount                string    `db:"win_amount"`
	TicketsPurchasedTotalBps string    `db:"tickets_purchased_total_bps"`
}

const insertResult = `
INSERT INTO jackpot_results (
    chain_id, tx_hash, block_number, run_at, winner,
    winning_ticket, win_amount, tickets_purchased_total_bps
) VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::text::numeric, $8::text::numeric)
ON CONFLICT (chain_id, tx_hash) DO NOTHING`

const listResults = `
SELECT tx_hash, block_number, run_at, winner,
       winning_ticket::text AS winning_ticket,
       win_amount::text AS win_amount,
       tickets_purchased_total_bps::text AS tickets_purchased_total_bps
FROM jackpot_results
WHERE chain_id = $1
ORDER BY block_number DESC
LIMIT $2`

// Save stores a round; duplicates by transaction hash are ignored.
func (r *WinnerRepo) Save(ctx context.Context, chainID uint64, result domain.JackpotResult) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertResult,
		int64(chainID),
		result.TxHash.Hex(),
		int64(result.BlockNumber),
		result.Time.UTC(),
		result.Winner.Hex(),
		bigString(result.WinningTicket),
		bigString(result.WinAmount),
		bigString(result.TicketsPurchasedTotalBps),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save jackpot result: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// List returns the most recent rounds first.
func (r *WinnerRepo) List(ctx context.Context, chainID uint64, limit int) ([]domain.JackpotResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, listResults, int64(chainID), limit); err != nil {
		return nil, fmt.Errorf("failed to list jackpot results: %w", err)
	}

	results := make([]domain.JackpotResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, domain.JackpotResult{
			Time:                     row.RunAt,
			Winner:                   common.HexToAddress(row.Winner),
			WinningTicket:            parseBig(row.WinningTicket),
			WinAmount:                parseBig(row.WinAmount),
			TicketsPurchasedTotalBps: parseBig(row.TicketsPurchasedTotalBps),
			BlockNumber:              uint64(row.BlockNumber),
			TxHash:                   common.HexToHash(row.TxHash),
		})
	}
	return results, nil
}

// Close closes the database connection.
func (r *WinnerRepo) Close() error {
	return r.db.Close()
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}
