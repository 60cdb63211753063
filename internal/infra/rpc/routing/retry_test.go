package routing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vietddude/jackpot/internal/infra/rpc/provider"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		expect ErrorAction
	}{
		{errors.New("429 Too Many Requests"), ActionFailover},
		{errors.New("project rate limit exceeded"), ActionFailover},
		{errors.New("quota exceeded"), ActionFailover},
		{errors.New("daily request count exceeded"), ActionFailover},
		{errors.New("403 Forbidden"), ActionFailover},
		{errors.New("provider throttled, retry after: 1m0s"), ActionFailover},
		{errors.New("Invalid JSON-RPC request -32600"), ActionFatal},
		{errors.New("Method not found -32601"), ActionFatal},
		{errors.New("Parse error -32700"), ActionFatal},
		{&provider.RPCError{Code: -32602, Message: "invalid argument 0"}, ActionFatal},
		{&provider.RPCError{Code: 3, Message: "execution reverted"}, ActionFatal},
		{&provider.RPCError{Code: -32000, Message: "execution reverted: not active"}, ActionFatal},
		{&provider.RPCError{Code: -32000, Message: "header not found"}, ActionRetry},
		{fmt.Errorf("rpc call: %w", context.Canceled), ActionFatal},
		{errors.New("connection reset by peer"), ActionRetry},
		{errors.New("timeout"), ActionRetry},
		{errors.New("500 Internal Server Error"), ActionRetry},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.expect {
			t.Errorf("ClassifyError(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestCallWithRetry_StopsOnFailover(t *testing.T) {
	p := &mockProvider{name: "limited", errs: []error{errors.New("429 Too Many Requests")}}

	_, err := CallWithRetry(context.Background(), p, "eth_call", nil, RetryConfig{MaxAttempts: 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("expected 1 call, got %d", p.calls)
	}
}

func TestCallWithRetry_RetriesTransientErrors(t *testing.T) {
	p := &mockProvider{name: "flaky", errs: []error{errors.New("connection reset by peer")}}

	result, err := CallWithRetry(context.Background(), p, "eth_call", nil, RetryConfig{MaxAttempts: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != `"0x1"` {
		t.Errorf("unexpected result %s", result)
	}
	if p.calls != 2 {
		t.Errorf("expected 2 calls, got %d", p.calls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100, MaxDelay: 350, BackoffMultiple: 2}
	want := []int64{100, 200, 350, 350}
	for attempt, w := range want {
		if got := calculateBackoff(attempt, cfg); int64(got) != w {
			t.Errorf("attempt %d: got %d, want %d", attempt, got, w)
		}
	}
}
