package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("websocket connection closed")

// WSProvider implements Provider for JSON-RPC over a WebSocket connection.
// The connection is dialed lazily and redialed after it drops.
type WSProvider struct {
	baseProvider

	endpoint     string
	timeout      time.Duration
	writeTimeout time.Duration

	connMu sync.Mutex
	conn   *websocket.Conn

	// pending maps request ID to the channel waiting for its response
	pending   map[uint64]chan rpcResponse
	pendingMu sync.Mutex

	requestID atomic.Uint64
	closed    atomic.Bool
}

// NewWSProvider creates a new WebSocket-based RPC provider.
func NewWSProvider(name, endpoint string, timeout time.Duration) *WSProvider {
	return &WSProvider{
		baseProvider: newBaseProvider(name),
		endpoint:     endpoint,
		timeout:      timeout,
		writeTimeout: 10 * time.Second,
		pending:      make(map[uint64]chan rpcResponse),
	}
}

// Call makes a single JSON-RPC call over the socket.
func (p *WSProvider) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if p.closed.Load() {
		return nil, fmt.Errorf("provider closed")
	}
	start := time.Now()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	conn, err := p.connection(ctx)
	if err != nil {
		p.recordFailure()
		return nil, err
	}

	reqID := p.requestID.Add(1)
	respCh := make(chan rpcResponse, 1)
	p.pendingMu.Lock()
	p.pending[reqID] = respCh
	p.pendingMu.Unlock()
	defer func() {
		p.pendingMu.Lock()
		delete(p.pending, reqID)
		p.pendingMu.Unlock()
	}()

	p.connMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	err = conn.WriteJSON(newRequest(reqID, method, params))
	p.connMu.Unlock()
	if err != nil {
		p.recordFailure()
		p.dropConn(conn)
		return nil, fmt.Errorf("write request: %w", err)
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			p.recordFailure()
			return nil, errConnClosed
		}
		p.recordSuccess(time.Since(start))
		if resp.Error != nil {
			if p.Monitor.DetectThrottlePattern(resp.Error.Message) {
				return nil, fmt.Errorf("throttle in rpc error: %w", resp.Error)
			}
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		p.recordFailure()
		return nil, fmt.Errorf("rpc call: %w", ctx.Err())
	}
}

func (p *WSProvider) connection(ctx context.Context) (*websocket.Conn, error) {
	p.connMu.Lock()
	defer p.connMu.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, p.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	p.conn = conn
	go p.readLoop(conn)
	return conn, nil
}

func (p *WSProvider) readLoop(conn *websocket.Conn) {
	defer p.dropConn(conn)

	for {
		var resp rpcResponse
		if err := conn.ReadJSON(&resp); err != nil {
			return
		}

		p.pendingMu.Lock()
		ch, ok := p.pending[resp.ID]
		if ok {
			delete(p.pending, resp.ID)
		}
		p.pendingMu.Unlock()

		if ok {
			ch <- resp
		}
	}
}

// dropConn closes conn and fails every request still waiting on it.
func (p *WSProvider) dropConn(conn *websocket.Conn) {
	p.connMu.Lock()
	if p.conn == conn {
		p.conn = nil
	}
	p.connMu.Unlock()
	_ = conn.Close()

	p.pendingMu.Lock()
	for id, ch := range p.pending {
		close(ch)
		delete(p.pending, id)
	}
	p.pendingMu.Unlock()
}

// Close closes the socket.
func (p *WSProvider) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.connMu.Lock()
	conn := p.conn
	p.connMu.Unlock()
	if conn != nil {
		p.dropConn(conn)
	}
	return nil
}
