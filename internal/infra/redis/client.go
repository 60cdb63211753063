package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSnapshotNotFound is returned when no snapshot has been published for a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Client wraps Redis operations for dashboard snapshots.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL             string        `yaml:"url"`
	Password        string        `yaml:"password"`
	SnapshotTTL     time.Duration `yaml:"snapshot_ttl"`
	PublishInterval time.Duration `yaml:"publish_interval"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing go-redis client.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key helpers
func snapshotKey(chainID uint64, wallet string) string {
	if wallet == "" {
		wallet = "anonymous"
	}
	return fmt.Sprintf("jackpot:snapshot:%d:%s", chainID, wallet)
}

func latestKey(chainID uint64) string {
	return fmt.Sprintf("jackpot:snapshot:%d:latest", chainID)
}

// PutSnapshot stores an encoded dashboard snapshot for a wallet and marks it as latest.
func (c *Client) PutSnapshot(
	ctx context.Context,
	chainID uint64,
	wallet string,
	payload []byte,
	ttl time.Duration,
) error {
	key := snapshotKey(chainID, wallet)

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key, payload, ttl)
	pipe.Set(ctx, latestKey(chainID), key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set snapshot failed: %w", err)
	}
	return nil
}

// GetSnapshot returns the snapshot for a wallet, or the latest one when wallet is empty.
func (c *Client) GetSnapshot(ctx context.Context, chainID uint64, wallet string) ([]byte, error) {
	key := snapshotKey(chainID, wallet)
	if wallet == "" {
		latest, err := c.rdb.Get(ctx, latestKey(chainID)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get latest failed: %w", err)
		}
		key = latest
	}

	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot failed: %w", err)
	}
	return val, nil
}
