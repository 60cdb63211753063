// Package provider implements RPC provider interfaces.
//
// This package contains:
//   - Provider interface: core abstraction for JSON-RPC endpoints
//   - HTTPProvider: JSON-RPC over HTTP implementation
//   - WSProvider: JSON-RPC over a persistent WebSocket connection
//   - ProviderMonitor: throttle and latency tracking
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Provider defines the core interface for any JSON-RPC endpoint.
type Provider interface {
	// GetName returns provider identifier (e.g., "llamarpc", "drpc")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Call makes a single RPC request and returns the raw result
	Call(ctx context.Context, method string, params []any) (json.RawMessage, error)

	// Close cleans up resources
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}

// RPCError is a JSON-RPC error object returned by a node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func newRequest(id uint64, method string, params []any) rpcRequest {
	if params == nil {
		params = []any{}
	}
	return rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}

// New builds a provider for the endpoint based on its URL scheme.
func New(name, endpoint string, timeout time.Duration) (Provider, error) {
	switch {
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return NewHTTPProvider(name, endpoint, timeout), nil
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return NewWSProvider(name, endpoint, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider url scheme: %s", endpoint)
	}
}
