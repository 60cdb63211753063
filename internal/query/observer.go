package query

import (
	"context"
	"errors"
	"sync"

	"github.com/vietddude/jackpot/internal/metrics"
)

// ErrDisabled is returned by Fetch for a descriptor that is not enabled.
var ErrDisabled = errors.New("query disabled")

// Observer is a mounted subscription to one key. It keeps the entry alive and
// polled until Close.
type Observer[T any] struct {
	client *Client
	entry  *entry
	once   sync.Once
}

// Observe mounts d. A disabled descriptor touches no entry and stays Idle.
func Observe[T any](c *Client, d Descriptor[T]) *Observer[T] {
	if !d.Enabled {
		return &Observer[T]{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := entryLocked(c, d)
	e.observers++
	metrics.QueryObservers.Inc()

	if !e.fetching && (e.err != nil || e.isStale(c.clock.Now(), d.StaleTime)) {
		c.startFetchLocked(e)
	}
	if d.RefetchInterval > 0 && e.stopPoll == nil && c.ctx.Err() == nil {
		c.startPollLocked(e, d.RefetchInterval)
	}
	return &Observer[T]{client: c, entry: e}
}

// Key returns the observed key, or "" for a disabled observer.
func (o *Observer[T]) Key() string {
	if o.entry == nil {
		return ""
	}
	return o.entry.key
}

// Result returns the current state of the key.
func (o *Observer[T]) Result() Result[T] {
	if o.entry == nil {
		return Idle[T]()
	}
	o.client.mu.Lock()
	defer o.client.mu.Unlock()
	r, _ := o.resultLocked()
	return r
}

func (o *Observer[T]) resultLocked() (Result[T], <-chan struct{}) {
	e := o.entry
	switch {
	case e.fetching && !e.hasValue:
		return Loading[T](), e.changed
	case e.err != nil:
		return Failed[T](e.err), e.changed
	case e.hasValue:
		v, err := cast[T](e.key, e.value)
		if err != nil {
			return Failed[T](err), e.changed
		}
		return Ready(v).at(e.updatedAt), e.changed
	default:
		return Idle[T](), e.changed
	}
}

// Changed returns a channel closed on the next state transition of the key.
// A disabled observer never changes and returns nil.
func (o *Observer[T]) Changed() <-chan struct{} {
	if o.entry == nil {
		return nil
	}
	o.client.mu.Lock()
	defer o.client.mu.Unlock()
	return o.entry.changed
}

// Wait blocks until the result is no longer loading or ctx is done, and
// returns the latest result either way.
func (o *Observer[T]) Wait(ctx context.Context) Result[T] {
	if o.entry == nil {
		return Idle[T]()
	}
	for {
		o.client.mu.Lock()
		r, changed := o.resultLocked()
		o.client.mu.Unlock()
		if !r.IsLoading() {
			return r
		}
		select {
		case <-ctx.Done():
			return r
		case <-changed:
		}
	}
}

// Close unmounts the observer. It is safe to call more than once.
func (o *Observer[T]) Close() {
	if o.entry == nil {
		return
	}
	o.once.Do(func() { o.client.release(o.entry) })
}
