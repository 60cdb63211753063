package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/jackpot/internal/core/domain"
)

type logFilter struct {
	Address   common.Address  `json:"address"`
	Topics    [][]common.Hash `json:"topics"`
	FromBlock hexutil.Uint64  `json:"fromBlock"`
	ToBlock   hexutil.Uint64  `json:"toBlock"`
}

// BlockNumber returns the chain head.
func (g *Gateway) BlockNumber(ctx context.Context) (uint64, error) {
	var head hexutil.Uint64
	if err := g.rpc.CallResult(ctx, &head, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}
	return uint64(head), nil
}

// LastJackpotResults returns the most recent completed round, searching
// backwards from the head in chunks. It returns nil when no round ended
// within the lookback window.
func (g *Gateway) LastJackpotResults(ctx context.Context) (*domain.JackpotResult, error) {
	head, err := g.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	floor := uint64(0)
	if head > g.lookbackBlocks {
		floor = head - g.lookbackBlocks
	}

	for to := head; ; {
		from := floor
		if to-floor+1 > g.chunkBlocks {
			from = to - g.chunkBlocks + 1
		}

		results, err := g.JackpotRuns(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			last := results[len(results)-1]
			return &last, nil
		}

		if from == floor {
			break
		}
		to = from - 1
	}

	g.log.Debug("No jackpot run in lookback window", "head", head, "lookback", g.lookbackBlocks)
	return nil, nil
}

// JackpotRuns returns every round that ended in [from, to], oldest first.
func (g *Gateway) JackpotRuns(ctx context.Context, from, to uint64) ([]domain.JackpotResult, error) {
	event := JackpotABI.Events[JackpotRunEvent]

	var logs []types.Log
	filter := logFilter{
		Address:   g.contract,
		Topics:    [][]common.Hash{{event.ID}},
		FromBlock: hexutil.Uint64(from),
		ToBlock:   hexutil.Uint64(to),
	}
	if err := g.rpc.CallResult(ctx, &logs, "eth_getLogs", filter); err != nil {
		return nil, fmt.Errorf("eth_getLogs %d-%d failed: %w", from, to, err)
	}

	results := make([]domain.JackpotResult, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		r, err := decodeJackpotRun(event, l)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func decodeJackpotRun(event abi.Event, l types.Log) (domain.JackpotResult, error) {
	values := make(map[string]any)
	if err := event.Inputs.UnpackIntoMap(values, l.Data); err != nil {
		return domain.JackpotResult{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}

	var indexed abi.Arguments
	for _, in := range event.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if len(indexed) > 0 && len(l.Topics) > 1 {
		if err := abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
			return domain.JackpotResult{}, fmt.Errorf("parse %s topics: %w", event.Name, err)
		}
	}

	runAt, _ := values["time"].(*big.Int)
	winner, _ := values["winner"].(common.Address)
	result := domain.JackpotResult{
		Winner:                   winner,
		WinningTicket:            bigOrZero(values["winningTicket"]),
		WinAmount:                bigOrZero(values["winAmount"]),
		TicketsPurchasedTotalBps: bigOrZero(values["ticketsPurchasedTotalBps"]),
		BlockNumber:              l.BlockNumber,
		TxHash:                   l.TxHash,
	}
	if runAt != nil && runAt.IsInt64() {
		result.Time = time.Unix(runAt.Int64(), 0).UTC()
	}
	return result, nil
}

func bigOrZero(v any) *big.Int {
	if b, ok := v.(*big.Int); ok && b != nil {
		return b
	}
	return new(big.Int)
}
