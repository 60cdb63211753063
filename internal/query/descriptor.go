package query

import (
	"context"
	"math"
	"strings"
	"time"
)

// Forever disables staleness or garbage collection when used as StaleTime or GCTime.
const Forever = time.Duration(math.MaxInt64)

// DefaultGCTime is how long an unobserved entry stays cached when GCTime is zero.
const DefaultGCTime = 5 * time.Minute

// Key identifies a cache entry. Segments after the first parameterise it,
// e.g. {"usersInfo", "0xabc..."}.
type Key []string

func (k Key) String() string { return strings.Join(k, "/") }

// Name is the first segment, used as the metrics label.
func (k Key) Name() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// Descriptor describes one cached read.
type Descriptor[T any] struct {
	Key   Key
	Fetch func(ctx context.Context) (T, error)

	// StaleTime is how long a value is served without refetching on mount.
	// Zero means always stale.
	StaleTime time.Duration
	// GCTime is how long an entry survives without observers. Zero means DefaultGCTime.
	GCTime time.Duration
	// RefetchInterval polls the key while observed. Zero disables polling.
	RefetchInterval time.Duration
	// Enabled gates every fetch. A disabled descriptor yields Idle results.
	Enabled bool
}

func (d Descriptor[T]) gcTime() time.Duration {
	if d.GCTime <= 0 {
		return DefaultGCTime
	}
	return d.GCTime
}

func (d Descriptor[T]) fetcher() func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return d.Fetch(ctx)
	}
}
