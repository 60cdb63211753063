package dashboard

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/jackpot/internal/infra/chain/evm"
	"github.com/vietddude/jackpot/internal/jackpot"
	"github.com/vietddude/jackpot/internal/query"
)

func TestWithdrawer_SkipsZeroWinnings(t *testing.T) {
	w := &fakeWriter{}
	wd := NewWithdrawer(w, testContract, &testWallet, nil, quietLogger())

	_, err := wd.Submit(context.Background(), new(big.Int))
	assert.ErrorIs(t, err, ErrNothingToWithdraw)
	_, err = wd.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingToWithdraw)
	assert.Equal(t, int32(0), w.calls.Load())
	assert.Equal(t, WriteIdle, wd.State().Status)
}

func TestWithdrawer_SubmitsOnce(t *testing.T) {
	w := &fakeWriter{}
	wd := NewWithdrawer(w, testContract, &testWallet, nil, quietLogger())

	state, err := wd.Submit(context.Background(), big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, WriteSuccess, state.Status)
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, "0x000000000000000000000000000000000000000000000000000000000000beef", state.TxHash.Hex())

	require.Len(t, w.reqs, 1)
	req := w.reqs[0]
	assert.Equal(t, testContract, req.Address)
	assert.Equal(t, evm.WithdrawWinningsMethod, req.FunctionName)
	assert.Same(t, &evm.JackpotABI, req.ABI)
	assert.Empty(t, req.Args)
}

func TestWithdrawer_RejectsWhilePending(t *testing.T) {
	w := &fakeWriter{gate: make(chan struct{})}
	wd := NewWithdrawer(w, testContract, &testWallet, nil, quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := wd.Submit(context.Background(), big.NewInt(5))
		done <- err
	}()
	require.Eventually(t, func() bool { return wd.State().Pending() }, time.Second, 5*time.Millisecond)

	_, err := wd.Submit(context.Background(), big.NewInt(5))
	assert.ErrorIs(t, err, ErrWithdrawPending)

	close(w.gate)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), w.calls.Load())
}

func TestWithdrawer_ErrorDoesNotBlock(t *testing.T) {
	w := &fakeWriter{err: errors.New("user rejected")}
	wd := NewWithdrawer(w, testContract, &testWallet, nil, quietLogger())

	state, err := wd.Submit(context.Background(), big.NewInt(5))
	assert.Error(t, err)
	assert.Equal(t, WriteError, state.Status)
	assert.EqualError(t, wd.State().Err, "user rejected")

	w.mu.Lock()
	w.err = nil
	w.mu.Unlock()
	state, err = wd.Submit(context.Background(), big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, WriteSuccess, state.Status)
	assert.Equal(t, int32(2), w.calls.Load())
}

func TestWithdrawer_InvalidatesUserInfo(t *testing.T) {
	gw := newFakeGateway()
	c := query.NewClient(query.WithLogger(quietLogger()))
	defer c.Close()
	q := jackpot.NewQueries(gw)

	obs := query.Observe(c, q.UsersInfo(&testWallet))
	defer obs.Close()
	obs.Wait(context.Background())
	require.Equal(t, int32(1), gw.userCalls.Load())

	wd := NewWithdrawer(&fakeWriter{}, testContract, &testWallet, c, quietLogger())
	_, err := wd.Submit(context.Background(), big.NewInt(5))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return gw.userCalls.Load() == 2 }, time.Second, 5*time.Millisecond)
}
