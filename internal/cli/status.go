package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/vietddude/jackpot/internal/control"
	"github.com/vietddude/jackpot/internal/dashboard"
	redisclient "github.com/vietddude/jackpot/internal/infra/redis"
)

var (
	statusAddress string
	statusCached  bool
	statusJSON    bool
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the dashboard in the terminal",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddress, "address", "", "wallet to show instead of the configured one")
	statusCmd.Flags().BoolVar(&statusCached, "cached", false, "read the last snapshot published to redis")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the snapshot as JSON")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 10*time.Second, "how long to wait for the contract reads")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := setup()

	if statusAddress != "" && !common.IsHexAddress(statusAddress) {
		slog.Error("Invalid address", "address", statusAddress)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	var snap dashboard.Snapshot
	if statusCached {
		s, err := cachedSnapshot(ctx, cfg.Redis, cfg.Chain.ID)
		if err != nil {
			slog.Error("Failed to read cached snapshot", "error", err)
			os.Exit(1)
		}
		snap = s
	} else {
		core, err := control.NewCore(cfg, slog.Default())
		if err != nil {
			slog.Error("Failed to initialize", "error", err)
			os.Exit(1)
		}
		defer func() { _ = core.Close() }()

		if statusAddress != "" {
			addr := common.HexToAddress(statusAddress)
			if core.Wallet == nil || *core.Wallet != addr {
				core.Wallet = &addr
				core.Withdrawer = nil
			}
		}
		board := core.Mount(nil)
		board.Wait(ctx)
		snap = board.Snapshot()
		board.Close()
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
		return
	}
	fmt.Println(dashboard.RenderTerminal(snap))
}

func cachedSnapshot(ctx context.Context, cfg redisclient.Config, chainID uint64) (dashboard.Snapshot, error) {
	var snap dashboard.Snapshot
	if cfg.URL == "" {
		return snap, fmt.Errorf("redis.url is not configured")
	}
	rc, err := redisclient.NewClient(cfg)
	if err != nil {
		return snap, err
	}
	defer func() { _ = rc.Close() }()

	wallet := ""
	if statusAddress != "" {
		wallet = common.HexToAddress(statusAddress).Hex()
	}
	payload, err := rc.GetSnapshot(ctx, chainID, wallet)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(payload, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
