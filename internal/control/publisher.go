package control

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/jackpot/internal/dashboard"
)

// SnapshotStore keeps the latest rendered dashboard.
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, chainID uint64, wallet string, payload []byte, ttl time.Duration) error
}

// Snapshotter renders a dashboard.
type Snapshotter interface {
	Snapshot() dashboard.Snapshot
	Wallet() *common.Address
}

// Publisher periodically writes the board's snapshot to a store so that
// `jackpot status --cached` can read it without touching the chain.
type Publisher struct {
	board    Snapshotter
	store    SnapshotStore
	chainID  uint64
	interval time.Duration
	ttl      time.Duration
	clock    clock.Clock
	log      *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherClock sets the clock driving the publish interval.
func WithPublisherClock(c clock.Clock) PublisherOption {
	return func(p *Publisher) { p.clock = c }
}

// NewPublisher creates a publisher.
func NewPublisher(board Snapshotter, store SnapshotStore, chainID uint64, interval, ttl time.Duration, log *slog.Logger, opts ...PublisherOption) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		board:    board,
		store:    store,
		chainID:  chainID,
		interval: interval,
		ttl:      ttl,
		clock:    clock.New(),
		log:      log.With("component", "publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run publishes every interval until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Publish(ctx); err != nil {
				p.log.Warn("Failed to publish snapshot", "error", err)
			}
		}
	}
}

// Publish writes one snapshot.
func (p *Publisher) Publish(ctx context.Context) error {
	payload, err := json.Marshal(p.board.Snapshot())
	if err != nil {
		return err
	}

	wallet := ""
	if w := p.board.Wallet(); w != nil {
		wallet = w.Hex()
	}
	if err := p.store.PutSnapshot(ctx, p.chainID, wallet, payload, p.ttl); err != nil {
		return err
	}
	p.log.Debug("Published snapshot", "wallet", wallet, "bytes", len(payload))
	return nil
}
