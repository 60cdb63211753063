package health

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vietddude/jackpot/internal/infra/rpc"
	"github.com/vietddude/jackpot/internal/query"
)

const checkInterval = 10 * time.Second

// HeadFetcher fetches the latest block number.
type HeadFetcher interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// ProviderSource reports the state of the RPC providers.
type ProviderSource interface {
	Providers() []rpc.ProviderReport
}

// QueryStats reports the query cache counters.
type QueryStats interface {
	Stats() query.Stats
}

// Monitor aggregates health status from the transport and the query cache.
type Monitor struct {
	chainID   uint64
	head      HeadFetcher
	providers ProviderSource
	queries   QueryStats
	clock     clock.Clock

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor. A nil clk uses the wall clock.
func NewMonitor(chainID uint64, head HeadFetcher, providers ProviderSource, queries QueryStats, clk clock.Clock) *Monitor {
	if clk == nil {
		clk = clock.New()
	}
	return &Monitor{
		chainID:   chainID,
		head:      head,
		providers: providers,
		queries:   queries,
		clock:     clk,
	}
}

// CheckHealth builds a report, reusing the previous one for up to ten seconds
// to avoid spamming RPC.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && m.clock.Since(m.lastCheck) < checkInterval {
		return *m.lastReport
	}

	report := HealthReport{
		Providers: m.providers.Providers(),
		Queries:   m.queries.Stats(),
	}
	chain := ChainHealth{
		ChainID:       m.chainID,
		Status:        StatusHealthy,
		ProviderCount: len(report.Providers),
	}

	head, err := m.head.BlockNumber(ctx)
	if err != nil {
		chain.HeadError = err.Error()
	} else {
		chain.HeadBlock = head
	}
	for _, p := range report.Providers {
		if p.CircuitOpen {
			chain.OpenCircuits++
		}
	}

	switch {
	case err != nil || chain.ProviderCount == 0 || chain.OpenCircuits == chain.ProviderCount:
		chain.Status = StatusCritical
	case chain.OpenCircuits > 0:
		chain.Status = StatusDegraded
	}

	report.Chain = chain
	report.SystemStatus = chain.Status

	m.lastCheck = m.clock.Now()
	m.lastReport = &report
	return report
}
