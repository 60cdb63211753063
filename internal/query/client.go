package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"github.com/vietddude/jackpot/internal/metrics"
)

const (
	defaultRetry        = 3
	defaultFetchTimeout = 30 * time.Second
	maxRetryDelay       = 30 * time.Second
)

// DefaultRetryDelay doubles from one second and caps at thirty.
func DefaultRetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxRetryDelay
	}
	return min(time.Second<<attempt, maxRetryDelay)
}

// Option configures a Client.
type Option func(*Client)

// WithClock injects the time source used for staleness, polling and GC.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetry sets how many times a failed fetch is retried.
func WithRetry(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retry = n
		}
	}
}

// WithRetryDelay sets the wait before retry attempt n (0-based).
func WithRetryDelay(f func(attempt int) time.Duration) Option {
	return func(c *Client) { c.retryDelay = f }
}

// WithFetchTimeout bounds a single fetch attempt.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// Stats summarises the cache.
type Stats struct {
	Entries   int `json:"entries"`
	Observers int `json:"observers"`
	Fetching  int `json:"fetching"`
	Polling   int `json:"polling"`
}

type entry struct {
	key   string
	name  string
	fetch func(ctx context.Context) (any, error)

	value     any
	hasValue  bool
	err       error
	updatedAt time.Time
	fetching  bool
	stale     bool
	// refetch is set when the entry is invalidated mid-fetch.
	refetch bool
	// gen counts fetch starts; only the latest start's waiters apply results.
	gen uint64

	changed   chan struct{}
	observers int
	gcTime    time.Duration
	gcTimer   *clock.Timer
	stopPoll  context.CancelFunc
}

func (e *entry) isStale(now time.Time, staleTime time.Duration) bool {
	if !e.hasValue || e.stale {
		return true
	}
	if staleTime == Forever {
		return false
	}
	return now.Sub(e.updatedAt) >= staleTime
}

// Client caches query results by key, de-duplicates in-flight fetches and
// drives polling for observed keys.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	clock        clock.Clock
	log          *slog.Logger
	retry        int
	retryDelay   func(attempt int) time.Duration
	fetchTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a query client. Close releases its goroutines.
func NewClient(opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		entries:      make(map[string]*entry),
		clock:        clock.New(),
		log:          slog.Default(),
		retry:        defaultRetry,
		retryDelay:   DefaultRetryDelay,
		fetchTimeout: defaultFetchTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops all pollers, timers and in-flight fetches.
func (c *Client) Close() {
	c.cancel()
	c.mu.Lock()
	for _, e := range c.entries {
		if e.gcTimer != nil {
			e.gcTimer.Stop()
			e.gcTimer = nil
		}
		if e.stopPoll != nil {
			e.stopPoll()
			e.stopPoll = nil
		}
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Invalidate marks the entry stale and refetches it when observed.
func (c *Client) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return
	}
	e.stale = true
	if e.fetching {
		e.refetch = true
		return
	}
	if e.observers > 0 {
		c.startFetchLocked(e)
	}
}

// Stats returns cache counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Stats
	s.Entries = len(c.entries)
	for _, e := range c.entries {
		s.Observers += e.observers
		if e.fetching {
			s.Fetching++
		}
		if e.stopPoll != nil {
			s.Polling++
		}
	}
	return s
}

// entryLocked returns the entry for d, creating it if needed.
func entryLocked[T any](c *Client, d Descriptor[T]) *entry {
	k := d.Key.String()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{
			key:     k,
			name:    d.Key.Name(),
			fetch:   d.fetcher(),
			changed: make(chan struct{}),
			gcTime:  d.gcTime(),
		}
		c.entries[k] = e
		metrics.QueryCacheEntries.Set(float64(len(c.entries)))
	}
	if gc := d.gcTime(); gc > e.gcTime {
		e.gcTime = gc
	}
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	return e
}

func (c *Client) notifyLocked(e *entry) {
	close(e.changed)
	e.changed = make(chan struct{})
}

func (c *Client) startFetchLocked(e *entry) {
	if c.ctx.Err() != nil {
		return
	}
	e.fetching = true
	e.gen++
	gen := e.gen
	if !e.hasValue {
		e.err = nil
	}
	c.notifyLocked(e)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		v, err, _ := c.group.Do(e.key, c.run(e))
		c.finish(e, gen, v, err)
	}()
}

// run returns the shared fetch body for e; singleflight keys it by e.key.
// Every waiter calls finish afterwards, so joining a call that is already
// returning still clears the fetching flag.
func (c *Client) run(e *entry) func() (any, error) {
	return func() (any, error) {
		start := c.clock.Now()
		v, err := c.fetchWithRetry(e)

		outcome := "success"
		if err != nil {
			outcome = "error"
			c.log.Warn("Query fetch failed", "query", e.key, "error", err)
		}
		metrics.QueryFetchesTotal.WithLabelValues(e.name, outcome).Inc()
		metrics.QueryFetchLatency.WithLabelValues(e.name).Observe(c.clock.Since(start).Seconds())
		return v, err
	}
}

func (c *Client) fetchWithRetry(e *entry) (any, error) {
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
		v, err := e.fetch(ctx)
		cancel()
		if err == nil {
			return v, nil
		}
		if attempt >= c.retry || c.ctx.Err() != nil {
			return nil, err
		}

		delay := c.retryDelay(attempt)
		c.log.Debug("Query fetch failed, retrying",
			"query", e.key,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-c.ctx.Done():
			return nil, err
		case <-c.clock.After(delay):
		}
	}
}

func (c *Client) finish(e *entry, gen uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != e.gen {
		return
	}

	e.fetching = false
	if err != nil {
		e.err = err
	} else {
		e.value = v
		e.hasValue = true
		e.err = nil
		e.stale = false
		e.updatedAt = c.clock.Now()
	}
	c.notifyLocked(e)

	if e.refetch {
		e.refetch = false
		e.stale = true
		if e.observers > 0 {
			c.startFetchLocked(e)
			return
		}
	}
	if e.observers == 0 {
		c.scheduleGCLocked(e)
	}
}

func (c *Client) scheduleGCLocked(e *entry) {
	if e.gcTime == Forever || e.gcTimer != nil || c.ctx.Err() != nil {
		return
	}
	e.gcTimer = c.clock.AfterFunc(e.gcTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if e.observers > 0 || e.fetching || c.entries[e.key] != e {
			return
		}
		delete(c.entries, e.key)
		metrics.QueryCacheEntries.Set(float64(len(c.entries)))
		c.log.Debug("Query evicted", "query", e.key)
	})
}

func (c *Client) startPollLocked(e *entry, interval time.Duration) {
	ctx, cancel := context.WithCancel(c.ctx)
	e.stopPoll = cancel
	ticker := c.clock.Ticker(interval)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				if !e.fetching {
					c.startFetchLocked(e)
				}
				c.mu.Unlock()
			}
		}
	}()
}

func (c *Client) release(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.observers--
	metrics.QueryObservers.Dec()
	if e.observers > 0 {
		return
	}
	if e.stopPoll != nil {
		e.stopPoll()
		e.stopPoll = nil
	}
	c.scheduleGCLocked(e)
}

// Fetch returns the cached value for d when fresh, otherwise fetches it.
// Concurrent fetches of one key, including those started by observers, share a call.
func Fetch[T any](ctx context.Context, c *Client, d Descriptor[T]) (T, error) {
	var zero T
	if !d.Enabled {
		return zero, fmt.Errorf("query %s: %w", d.Key, ErrDisabled)
	}

	c.mu.Lock()
	e := entryLocked(c, d)
	if !e.isStale(c.clock.Now(), d.StaleTime) {
		v := e.value
		if e.observers == 0 {
			c.scheduleGCLocked(e)
		}
		c.mu.Unlock()
		return cast[T](e.key, v)
	}
	if !e.fetching {
		e.fetching = true
		e.gen++
		if !e.hasValue {
			e.err = nil
		}
		c.notifyLocked(e)
	}
	gen := e.gen
	ch := c.group.DoChan(e.key, c.run(e))
	c.mu.Unlock()

	done := make(chan singleflight.Result, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		r := <-ch
		c.finish(e, gen, r.Val, r.Err)
		done <- r
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		if r.Err != nil {
			return zero, r.Err
		}
		return cast[T](e.key, r.Val)
	}
}

func cast[T any](key string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s: cached value is %T, not %T", key, v, zero)
	}
	return t, nil
}
