// Package health provides system health monitoring and status reporting.
package health

import (
	"github.com/vietddude/jackpot/internal/infra/rpc"
	"github.com/vietddude/jackpot/internal/query"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ChainHealth contains health metrics for the configured chain.
type ChainHealth struct {
	ChainID       uint64       `json:"chain_id"`
	Status        SystemStatus `json:"status"`
	HeadBlock     uint64       `json:"head_block"`
	HeadError     string       `json:"head_error,omitempty"`
	OpenCircuits  int          `json:"open_circuits"`
	ProviderCount int          `json:"provider_count"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus         `json:"system_status"`
	Chain        ChainHealth          `json:"chain"`
	Providers    []rpc.ProviderReport `json:"providers"`
	Queries      query.Stats          `json:"queries"`
}
