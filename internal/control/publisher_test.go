package control

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/jackpot/internal/dashboard"
)

type fakeBoard struct {
	wallet *common.Address
}

func (b *fakeBoard) Snapshot() dashboard.Snapshot {
	return dashboard.Snapshot{
		Jackpot: dashboard.JackpotView{State: dashboard.StateSuccess, Text: "1,000 JPT"},
	}
}

func (b *fakeBoard) Wallet() *common.Address { return b.wallet }

type put struct {
	chainID uint64
	wallet  string
	payload []byte
	ttl     time.Duration
}

type fakeStore struct {
	mu   sync.Mutex
	puts []put
	err  error
}

func (s *fakeStore) PutSnapshot(ctx context.Context, chainID uint64, wallet string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.puts = append(s.puts, put{chainID, wallet, payload, ttl})
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

func TestPublisher_Publish(t *testing.T) {
	wallet := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	store := &fakeStore{}
	p := NewPublisher(&fakeBoard{wallet: &wallet}, store, 8453, time.Second, time.Minute, nil)

	require.NoError(t, p.Publish(context.Background()))
	require.Len(t, store.puts, 1)

	got := store.puts[0]
	assert.Equal(t, uint64(8453), got.chainID)
	assert.Equal(t, wallet.Hex(), got.wallet)
	assert.Equal(t, time.Minute, got.ttl)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got.payload, &decoded))
	assert.Contains(t, string(got.payload), "1,000 JPT")
}

func TestPublisher_NoWallet(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(&fakeBoard{}, store, 1, time.Second, time.Minute, nil)

	require.NoError(t, p.Publish(context.Background()))
	assert.Equal(t, "", store.puts[0].wallet)
}

func TestPublisher_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("redis down")}
	p := NewPublisher(&fakeBoard{}, store, 1, time.Second, time.Minute, nil)
	assert.EqualError(t, p.Publish(context.Background()), "redis down")
}

func TestPublisher_RunUntilCancelled(t *testing.T) {
	store := &fakeStore{}
	mock := clock.NewMock()
	p := NewPublisher(&fakeBoard{}, store, 1, 10*time.Second, time.Minute, nil, WithPublisherClock(mock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// Run creates its ticker asynchronously; keep advancing until it fires.
	require.Eventually(t, func() bool {
		mock.Add(10 * time.Second)
		return store.count() >= 1
	}, time.Second, 5*time.Millisecond)

	n := store.count()
	mock.Add(10 * time.Second)
	require.Eventually(t, func() bool { return store.count() >= n+1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
