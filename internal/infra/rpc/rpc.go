// Package rpc provides a resilient JSON-RPC client for EVM networks.
//
// Providers are tried in their configured order. A provider that keeps
// failing has its circuit opened and is moved to the back of the line until
// its cooldown passes.
//
//	client, err := rpc.NewClient(rpc.Config{
//	    Chain: "base",
//	    Providers: []rpc.ProviderConfig{
//	        {Name: "publicnode", URL: "wss://base-rpc.publicnode.com"},
//	        {Name: "llamarpc", URL: "https://base.llamarpc.com"},
//	    },
//	})
//
//	var block hexutil.Uint64
//	err = client.CallResult(ctx, &block, "eth_blockNumber")
//
// The package is organized into sub-packages:
//
//   - provider/ - transports (HTTP, WebSocket) and health monitoring
//   - routing/  - ordered fallback, circuit breaking, retry logic
package rpc

import (
	"github.com/vietddude/jackpot/internal/infra/rpc/provider"
	"github.com/vietddude/jackpot/internal/infra/rpc/routing"
)

// Provider is the core interface for RPC endpoints.
type Provider = provider.Provider

// RPCError is a JSON-RPC error object returned by a node.
type RPCError = provider.RPCError

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// ProviderReport is a point-in-time view of one provider.
type ProviderReport = routing.ProviderReport

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// DefaultBaseProviders are the public Base endpoints used when none are configured.
var DefaultBaseProviders = []ProviderConfig{
	{Name: "publicnode", URL: "wss://base-rpc.publicnode.com"},
	{Name: "llamarpc", URL: "https://base.llamarpc.com"},
	{Name: "drpc", URL: "https://base.drpc.org"},
	{Name: "nodies", URL: "https://base-pokt.nodies.app"},
}
