package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newNode(t *testing.T, handler func(req rpcRequest) (any, *RPCError)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, rpcErr := handler(req)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProvider_Call(t *testing.T) {
	srv := newNode(t, func(req rpcRequest) (any, *RPCError) {
		if req.Method != "eth_chainId" {
			t.Errorf("unexpected method %s", req.Method)
		}
		if req.JSONRPC != "2.0" {
			t.Errorf("unexpected version %s", req.JSONRPC)
		}
		return "0x2105", nil
	})

	p := NewHTTPProvider("test", srv.URL, 5*time.Second)
	result, err := p.Call(context.Background(), "eth_chainId", nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	var chainID string
	if err := json.Unmarshal(result, &chainID); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if chainID != "0x2105" {
		t.Errorf("expected 0x2105, got %s", chainID)
	}
	if !p.GetHealth().Available {
		t.Error("expected provider to be available")
	}
}

func TestHTTPProvider_RPCError(t *testing.T) {
	srv := newNode(t, func(req rpcRequest) (any, *RPCError) {
		return nil, &RPCError{Code: 3, Message: "execution reverted"}
	})

	p := NewHTTPProvider("test", srv.URL, 5*time.Second)
	_, err := p.Call(context.Background(), "eth_call", []any{map[string]string{}, "latest"})

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
	if rpcErr.Code != 3 {
		t.Errorf("expected code 3, got %d", rpcErr.Code)
	}
}

func TestHTTPProvider_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL, 5*time.Second)
	if _, err := p.Call(context.Background(), "eth_call", nil); err == nil {
		t.Fatal("expected rate limit error")
	}

	if status := p.Monitor.CheckProviderStatus(); status != StatusThrottled {
		t.Errorf("expected throttled status, got %v", status)
	}
	if p.IsAvailable() {
		t.Error("throttled provider should not be available")
	}
	if retry := p.Monitor.GetRetryAfter(); retry <= 0 || retry > 30*time.Second {
		t.Errorf("unexpected retry after %v", retry)
	}
}

func TestNew_SchemeSelection(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://base.llamarpc.com", "*provider.HTTPProvider", false},
		{"wss://base-rpc.publicnode.com", "*provider.WSProvider", false},
		{"ftp://example.com", "", true},
	}

	for _, tt := range tests {
		p, err := New("p", tt.url, time.Second)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q) expected error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q) unexpected error: %v", tt.url, err)
			continue
		}
		switch p.(type) {
		case *HTTPProvider:
			if tt.want != "*provider.HTTPProvider" {
				t.Errorf("New(%q) returned HTTP provider", tt.url)
			}
		case *WSProvider:
			if tt.want != "*provider.WSProvider" {
				t.Errorf("New(%q) returned WS provider", tt.url)
			}
		}
	}
}
