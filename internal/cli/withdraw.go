package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/vietddude/jackpot/internal/control"
	"github.com/vietddude/jackpot/internal/dashboard"
)

var withdrawWait time.Duration

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the configured wallet's winnings",
	Run:   runWithdraw,
}

func init() {
	withdrawCmd.Flags().DurationVar(&withdrawWait, "receipt-timeout", 2*time.Minute, "how long to wait for the transaction receipt (0 to skip)")
	rootCmd.AddCommand(withdrawCmd)
}

func runWithdraw(cmd *cobra.Command, args []string) {
	cfg := setup()

	core, err := control.NewCore(cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer func() { _ = core.Close() }()

	if core.Withdrawer == nil {
		slog.Error("wallet.private_key is required to withdraw")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	board := core.Mount(nil)
	defer board.Close()
	board.Wait(ctx)

	view := board.Snapshot().Withdraw
	if view.State == dashboard.StateError {
		slog.Error("Failed to load winnings", "message", view.Message)
		os.Exit(1)
	}

	state, err := core.Withdrawer.Submit(ctx, board.Winnings())
	switch {
	case errors.Is(err, dashboard.ErrNothingToWithdraw):
		fmt.Println("Nothing to withdraw.")
		return
	case err != nil:
		slog.Error("Withdrawal failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Withdrawing %s\ntx: %s\n", view.Amount, state.TxHash.Hex())
	if withdrawWait <= 0 {
		return
	}

	rctx, rcancel := context.WithTimeout(context.Background(), withdrawWait)
	defer rcancel()
	receipt, err := waitReceipt(rctx, clock.New(), core.Gateway, state.TxHash)
	if err != nil {
		slog.Error("No receipt", "tx", state.TxHash.Hex(), "error", err)
		os.Exit(1)
	}
	if receipt.Status == 0 {
		slog.Error("Transaction reverted", "tx", state.TxHash.Hex(), "block", receipt.BlockNumber)
		os.Exit(1)
	}
	fmt.Printf("Confirmed in block %s\n", receipt.BlockNumber)
}

type receiptSource interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// waitReceipt polls src every two seconds until the receipt for hash exists.
func waitReceipt(ctx context.Context, clk clock.Clock, src receiptSource, hash common.Hash) (*types.Receipt, error) {
	ticker := clk.Ticker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := src.TransactionReceipt(ctx, hash)
		if err != nil {
			slog.Debug("Receipt lookup failed", "tx", hash.Hex(), "error", err)
		} else if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
