package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/stats"
)

var _ StatsCache = (*RedisStatsCache)(nil)

// RedisStatsCache stores computed TeamStatistics as JSON with a TTL.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatsCache(cfg *config.RedisConfig) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStatsCache{client: client, ttl: cfg.StatsTTL}, nil
}

// StatsCacheKey builds the key of one team/period/range combination.
func StatsCacheKey(teamID int64, period stats.Period, r stats.Range) string {
	return fmt.Sprintf("stats:team:%d:%s:%s", teamID, period, r)
}

// Get returns the cached statistics, ok is false on a miss.
func (r *RedisStatsCache) Get(ctx context.Context, key string) (*stats.TeamStatistics, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var ts stats.TeamStatistics
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal team statistics: %w", err)
	}
	return &ts, true, nil
}

func (r *RedisStatsCache) Set(ctx context.Context, key string, value *stats.TeamStatistics) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal team statistics: %w", err)
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

// Close closes the Redis connection
func (r *RedisStatsCache) Close() error {
	return r.client.Close()
}
