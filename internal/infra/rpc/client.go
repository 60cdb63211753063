package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/jackpot/internal/infra/rpc/provider"
	"github.com/vietddude/jackpot/internal/infra/rpc/routing"
	"github.com/vietddude/jackpot/internal/metrics"
)

// ProviderConfig holds settings for an RPC provider.
type ProviderConfig struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url"  validate:"required,url"`
}

// Config configures a Client.
type Config struct {
	Chain            string
	Providers        []ProviderConfig
	Timeout          time.Duration
	Retry            RetryConfig
	FailureThreshold int
	CircuitCooldown  time.Duration
	Logger           *slog.Logger
}

// Client is the high-level interface for making RPC calls.
// This is what application layers should use.
type Client struct {
	chain    string
	fallback *routing.Fallback
	log      *slog.Logger
}

// NewClient builds providers from cfg and combines them into an ordered fallback.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.CircuitCooldown == 0 {
		cfg.CircuitCooldown = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.Providers) == 0 {
		return nil, routing.ErrNoProviders
	}

	providers := make([]provider.Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := provider.New(pc.Name, pc.URL, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}
		providers = append(providers, p)
	}

	return NewClientWithProviders(cfg, providers), nil
}

// NewClientWithProviders combines already built providers into a client.
func NewClientWithProviders(cfg Config, providers []provider.Provider) *Client {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	opts := []routing.FallbackOption{
		routing.WithRecorder(metricsRecorder{chain: cfg.Chain}),
		routing.WithLogger(log),
	}
	if cfg.Retry.MaxAttempts > 0 {
		opts = append(opts, routing.WithRetryConfig(cfg.Retry))
	}
	if cfg.FailureThreshold > 0 {
		opts = append(opts, routing.WithCircuitBreaker(cfg.FailureThreshold, cfg.CircuitCooldown))
	}

	return &Client{
		chain:    cfg.Chain,
		fallback: routing.NewFallback(providers, opts...),
		log:      log,
	}
}

// Call makes an RPC call with automatic failover and retry.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return c.fallback.Call(ctx, method, params)
}

// CallOnce makes an RPC call that is never retried on a provider that answered.
func (c *Client) CallOnce(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return c.fallback.CallOnce(ctx, method, params)
}

// CallResult makes an RPC call and decodes the result into out.
func (c *Client) CallResult(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%s: empty result", method)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

// Providers reports the state of every provider in order.
func (c *Client) Providers() []ProviderReport {
	return c.fallback.Report()
}

// Close closes every provider.
func (c *Client) Close() error {
	return c.fallback.Close()
}

type metricsRecorder struct {
	chain string
}

func (r metricsRecorder) RecordCall(providerName, method string, latency time.Duration, err error) {
	metrics.RPCCallsTotal.WithLabelValues(r.chain, providerName, method).Inc()
	metrics.RPCLatency.WithLabelValues(r.chain, providerName, method).Observe(latency.Seconds())
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(r.chain, providerName, errorType(err)).Inc()
	}
}

func (r metricsRecorder) RecordFailover(from string) {
	metrics.ProviderFailovers.WithLabelValues(r.chain, from).Inc()
}

func errorType(err error) string {
	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		return "rpc"
	}
	return routing.ClassifyError(err).String()
}
