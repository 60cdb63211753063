// Package routing handles provider ordering, circuit breaking and failover.
//
// This package contains:
//   - Fallback: ordered provider list with a per-provider circuit breaker
//   - Retry: error classification and per-provider retry with backoff
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/jackpot/internal/infra/rpc/provider"
)

// ErrNoProviders is returned when a fallback has nothing to call.
var ErrNoProviders = errors.New("no rpc providers configured")

// Recorder receives per-call outcomes, typically to feed metrics.
type Recorder interface {
	RecordCall(providerName, method string, latency time.Duration, err error)
	RecordFailover(from string)
}

type providerMetrics struct {
	successCount     int
	failureCount     int
	totalLatency     time.Duration
	lastSuccessAt    time.Time
	lastFailureAt    time.Time
	consecutiveFails int
	circuitOpen      bool
	openedAt         time.Time
}

// ProviderReport is a point-in-time view of one provider.
type ProviderReport struct {
	Name             string                `json:"name"`
	CircuitOpen      bool                  `json:"circuit_open"`
	ConsecutiveFails int                   `json:"consecutive_fails"`
	SuccessCount     int                   `json:"success_count"`
	FailureCount     int                   `json:"failure_count"`
	Health           provider.HealthStatus `json:"health"`
}

// Fallback calls providers in their configured order, moving to the next one
// when a provider fails. A provider that fails FailureThreshold times in a row
// is skipped until CircuitCooldown has passed.
type Fallback struct {
	mu        sync.RWMutex
	providers []provider.Provider
	metrics   map[string]*providerMetrics

	retry            RetryConfig
	failureThreshold int
	circuitCooldown  time.Duration
	recorder         Recorder
	log              *slog.Logger
	now              func() time.Time
}

// FallbackOption configures a Fallback.
type FallbackOption func(*Fallback)

// WithRetryConfig sets the per-provider retry policy.
func WithRetryConfig(cfg RetryConfig) FallbackOption {
	return func(f *Fallback) { f.retry = cfg }
}

// WithCircuitBreaker sets the consecutive failure threshold and the cooldown.
func WithCircuitBreaker(threshold int, cooldown time.Duration) FallbackOption {
	return func(f *Fallback) {
		f.failureThreshold = threshold
		f.circuitCooldown = cooldown
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) FallbackOption {
	return func(f *Fallback) { f.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) FallbackOption {
	return func(f *Fallback) { f.log = l }
}

// NewFallback creates a fallback over providers, tried in the given order.
func NewFallback(providers []provider.Provider, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		metrics:          make(map[string]*providerMetrics),
		retry:            DefaultRetryConfig,
		failureThreshold: 5,
		circuitCooldown:  30 * time.Second,
		log:              slog.Default(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	for _, p := range providers {
		f.AddProvider(p)
	}
	return f
}

// AddProvider appends a provider to the end of the order.
func (f *Fallback) AddProvider(p provider.Provider) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.providers = append(f.providers, p)
	f.metrics[p.GetName()] = &providerMetrics{lastSuccessAt: f.now()}
}

// Providers returns all providers in order.
func (f *Fallback) Providers() []provider.Provider {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]provider.Provider, len(f.providers))
	copy(result, f.providers)
	return result
}

// candidates returns usable providers first, then the ones with an open circuit
// or a throttled monitor, so a call is never refused outright.
func (f *Fallback) candidates() []provider.Provider {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ready, parked []provider.Provider
	now := f.now()
	for _, p := range f.providers {
		m := f.metrics[p.GetName()]
		if m.circuitOpen && now.Sub(m.openedAt) >= f.circuitCooldown {
			// half-open: let one call through
			m.circuitOpen = false
		}
		if m.circuitOpen || !p.IsAvailable() {
			parked = append(parked, p)
			continue
		}
		ready = append(ready, p)
	}
	return append(ready, parked...)
}

// Call executes method on the first provider that succeeds.
func (f *Fallback) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	providers := f.candidates()
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for i, p := range providers {
		start := f.now()
		result, err := CallWithRetry(ctx, p, method, params, f.retry)
		latency := f.now().Sub(start)
		if f.recorder != nil {
			f.recorder.RecordCall(p.GetName(), method, latency, err)
		}
		if err == nil {
			f.RecordSuccess(p.GetName(), latency)
			return result, nil
		}

		lastErr = err
		if ClassifyError(err) == ActionFatal {
			// The request itself is bad, or the caller gave up.
			return nil, err
		}

		f.RecordFailure(p.GetName(), err)
		if i < len(providers)-1 {
			f.log.Debug("Provider failed, trying next", "provider", p.GetName(), "method", method, "error", err)
			if f.recorder != nil {
				f.recorder.RecordFailover(p.GetName())
			}
		}
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// CallOnce sends method to one provider at a time without retrying. It moves
// to the next provider only when the request did not get an answer; a JSON-RPC
// error from a node is returned as is. Use it for calls that must not be
// replayed, such as eth_sendRawTransaction.
func (f *Fallback) CallOnce(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	providers := f.candidates()
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for i, p := range providers {
		start := f.now()
		result, err := p.Call(ctx, method, params)
		latency := f.now().Sub(start)
		if f.recorder != nil {
			f.recorder.RecordCall(p.GetName(), method, latency, err)
		}
		if err == nil {
			f.RecordSuccess(p.GetName(), latency)
			return result, nil
		}

		lastErr = err
		action := ClassifyError(err)
		var rpcErr *provider.RPCError
		if errors.As(err, &rpcErr) && action != ActionFailover {
			// The node answered.
			f.RecordSuccess(p.GetName(), latency)
			return nil, err
		}
		if action == ActionFatal {
			return nil, err
		}

		f.RecordFailure(p.GetName(), err)
		if i < len(providers)-1 {
			f.log.Debug("Provider unreachable, trying next", "provider", p.GetName(), "method", method, "error", err)
			if f.recorder != nil {
				f.recorder.RecordFailover(p.GetName())
			}
		}
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// RecordSuccess records a successful call.
func (f *Fallback) RecordSuccess(providerName string, latency time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.metrics[providerName]
	if !ok {
		return
	}

	m.successCount++
	m.totalLatency += latency
	m.lastSuccessAt = f.now()
	m.consecutiveFails = 0
	m.circuitOpen = false
}

// RecordFailure records a failed call.
func (f *Fallback) RecordFailure(providerName string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.metrics[providerName]
	if !ok {
		return
	}

	m.failureCount++
	m.lastFailureAt = f.now()
	m.consecutiveFails++

	if m.consecutiveFails >= f.failureThreshold && !m.circuitOpen {
		m.circuitOpen = true
		m.openedAt = f.now()
		f.log.Warn("Provider circuit opened", "provider", providerName, "fails", m.consecutiveFails, "error", err)
	}
}

// Report returns the state of every provider in order.
func (f *Fallback) Report() []ProviderReport {
	f.mu.RLock()
	defer f.mu.RUnlock()

	reports := make([]ProviderReport, 0, len(f.providers))
	for _, p := range f.providers {
		m := f.metrics[p.GetName()]
		reports = append(reports, ProviderReport{
			Name:             p.GetName(),
			CircuitOpen:      m.circuitOpen,
			ConsecutiveFails: m.consecutiveFails,
			SuccessCount:     m.successCount,
			FailureCount:     m.failureCount,
			Health:           p.GetHealth(),
		})
	}
	return reports
}

// Close closes every provider.
func (f *Fallback) Close() error {
	var errs []error
	for _, p := range f.Providers() {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.GetName(), err))
		}
	}
	return errors.Join(errs...)
}
