package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 30 * time.Second

// LeaderboardCache keeps rendered leaderboard pages in redis for a short
// window; aggregation over tournament_players is the most expensive query in
// the app. A nil *LeaderboardCache is valid and always misses.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(url string) (*LeaderboardCache, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &LeaderboardCache{client: client, ttl: DefaultTTL}, nil
}

// NewWithClient wires an existing client, used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func Key(offset, limit int) string {
	return fmt.Sprintf("leaderboard:%d:%d", offset, limit)
}

func (c *LeaderboardCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// cache trouble must never fail the request
			return nil, false
		}
		return nil, false
	}
	return data, true
}

func (c *LeaderboardCache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, "leaderboard:*", 100).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}

func (c *LeaderboardCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
