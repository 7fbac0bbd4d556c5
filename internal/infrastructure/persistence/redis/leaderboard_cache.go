// Package redis implements the hot leaderboard cache. The cache is
// strictly optional: every method on a nil cache is a no-op or a miss,
// so callers never branch on whether Redis is configured.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iqc-hub/iqc-community-bot/internal/domain/user"
)

// ErrCacheMiss is returned when the leaderboard is not cached.
var ErrCacheMiss = errors.New("leaderboard_cache: key not found")

const (
	leaderboardKey = "iqc:leaderboard"
	defaultTTL     = 60 * time.Second
)

// Entry is one cached leaderboard row.
type Entry struct {
	TelegramID string `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
	Name       string `json:"name"`
	IQC        int    `json:"iqc"`
	Level      int    `json:"level"`
	Rank       int    `json:"rank"`
}

// payload wraps the cached rows with the limit they were built for, so
// a read asking for more rows than the rebuild fetched misses instead
// of serving a truncated list.
type payload struct {
	Limit   int     `json:"limit"`
	Entries []Entry `json:"entries"`
}

// covers reports whether a payload built for builtLimit can answer a
// read of limit rows. A short entry list under the built limit means
// the whole population fit, so any larger read is still complete.
func covers(builtLimit, stored, limit int) bool {
	if limit <= builtLimit {
		return true
	}
	return stored < builtLimit
}

// LeaderboardCache caches the top-N leaderboard in Redis.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a cache from a Redis URL, verifying the
// connection. Returns an error if the URL is invalid or Redis is down;
// the caller treats that as "run without cache".
func NewLeaderboardCache(ctx context.Context, redisURL string) (*LeaderboardCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("leaderboard_cache: parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("leaderboard_cache: ping redis: %w", err)
	}

	return &LeaderboardCache{client: client, ttl: defaultTTL}, nil
}

// Get returns the cached leaderboard trimmed to limit, or ErrCacheMiss.
func (c *LeaderboardCache) Get(ctx context.Context, limit int) ([]Entry, error) {
	if c == nil {
		return nil, ErrCacheMiss
	}

	data, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("leaderboard_cache: get: %w", err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("leaderboard_cache: decode: %w", err)
	}
	if !covers(p.Limit, len(p.Entries), limit) {
		return nil, ErrCacheMiss
	}

	entries := p.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Set stores the leaderboard with the cache TTL. limit is the row
// count the rebuild asked storage for, recorded so Get can tell a
// truncated list from a complete one.
func (c *LeaderboardCache) Set(ctx context.Context, users []*user.User, limit int) error {
	if c == nil {
		return nil
	}

	entries := make([]Entry, len(users))
	for i, u := range users {
		entries[i] = Entry{
			TelegramID: string(u.TelegramID),
			Username:   u.Username,
			Name:       u.Name,
			IQC:        int(u.IQC),
			Level:      int(u.Level),
			Rank:       i + 1,
		}
	}

	data, err := json.Marshal(payload{Limit: limit, Entries: entries})
	if err != nil {
		return fmt.Errorf("leaderboard_cache: encode: %w", err)
	}

	if err := c.client.Set(ctx, leaderboardKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("leaderboard_cache: set: %w", err)
	}
	return nil
}

// Invalidate drops the cached leaderboard. Called after every balance
// change so stale ranks never outlive a mutation by more than one read.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, leaderboardKey).Err(); err != nil {
		return fmt.Errorf("leaderboard_cache: invalidate: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (c *LeaderboardCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
