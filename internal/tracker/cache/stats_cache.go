// Package cache holds short-lived copies of visibility-scoped project stats
// in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
)

const (
	generationKey   = "tracker:stats:gen"       // bumped on every project mutation
	statsKeyPrefix  = "tracker:stats:"          // tracker:stats:{gen}:{scope}
	defaultStatsTTL = 30 * time.Second
)

// StatsCache stores ProjectStats per scope under a generation-stamped key.
// Invalidate bumps the generation, which orphans every entry at once; the
// orphans expire on their TTL.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Lookup returns the cached stats for scope and the generation it looked
// under. The generation must be passed back to Store so a value computed
// before a concurrent write is never filed under the newer generation.
func (c *StatsCache) Lookup(ctx context.Context, scope policy.Scope) (domain.ProjectStats, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return domain.ProjectStats{}, 0, false, err
	}

	data, err := c.client.Get(ctx, statsKey(gen, scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ProjectStats{}, gen, false, nil
	}
	if err != nil {
		return domain.ProjectStats{}, gen, false, fmt.Errorf("failed to get stats: %w", err)
	}

	var stats domain.ProjectStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return domain.ProjectStats{}, gen, false, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return stats, gen, true, nil
}

func (c *StatsCache) Store(ctx context.Context, gen int64, scope policy.Scope, stats domain.ProjectStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(gen, scope), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set stats: %w", err)
	}
	return nil
}

// Invalidate must be called after the mutating transaction commits.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump stats generation: %w", err)
	}
	return nil
}

func (c *StatsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stats generation: %w", err)
	}
	return gen, nil
}

func statsKey(gen int64, scope policy.Scope) string {
	if scope.All {
		return fmt.Sprintf("%s%d:all", statsKeyPrefix, gen)
	}
	return fmt.Sprintf("%s%d:user:%s", statsKeyPrefix, gen, scope.ActorID)
}
