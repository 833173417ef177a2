package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consultdesk/tracker-backend/internal/tracker/cache"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
)

func TestStats_TotalsByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signUp(t, "m", domain.RoleManager)
	f.signUp(t, "c1", domain.RoleConsultant)
	f.signUp(t, "c2", domain.RoleConsultant)

	f.createProject(t, m, "c1", domain.StatusActive)
	f.createProject(t, m, "c1", domain.StatusCompleted)
	f.createProject(t, m, "c2", domain.StatusUrgent)
	f.createProject(t, m, "", domain.StatusPending)

	got, err := f.stats.GetProjectStats(ctx, "m", true)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStats{Total: 4, Active: 1, Pending: 1, Completed: 1, Urgent: 1}, got)

	got, err = f.stats.GetProjectStats(ctx, "c1", false)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStats{Total: 2, Active: 1, Completed: 1}, got)

	got, err = f.stats.GetProjectStats(ctx, "nobody", false)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStats{}, got)

	_, err = f.stats.GetProjectStats(ctx, "", true)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestStats_TotalIsSumOfStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signUp(t, "m", domain.RoleManager)
	f.signUp(t, "c", domain.RoleConsultant)

	mix := []domain.Status{
		domain.StatusPending, domain.StatusPending, domain.StatusActive,
		domain.StatusUrgent, domain.StatusCompleted, domain.StatusCompleted, domain.StatusCompleted,
	}
	for i, status := range mix {
		assignee := ""
		if i%2 == 0 {
			assignee = "c"
		}
		f.createProject(t, m, assignee, status)
	}

	for _, scope := range []struct {
		id      string
		manager bool
	}{{"m", true}, {"c", false}} {
		s, err := f.stats.GetProjectStats(ctx, scope.id, scope.manager)
		require.NoError(t, err)
		assert.Equal(t, s.Total, s.Active+s.Pending+s.Completed+s.Urgent, scope.id)
	}

	all, err := f.stats.GetProjectStats(ctx, "m", true)
	require.NoError(t, err)
	assert.Equal(t, len(mix), all.Total)
}

func TestStats_CacheIsInvalidatedByWrites(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := newFixture(t)
	ctx := context.Background()
	statsCache := cache.NewStatsCache(client, time.Minute)
	f.stats.WithCache(statsCache)
	f.projects.WithStatsCache(statsCache)

	m := f.signUp(t, "m", domain.RoleManager)
	f.createProject(t, m, "", domain.StatusActive)

	first, err := f.stats.ForActor(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)

	_, _, hit, err := statsCache.Lookup(ctx, policy.ScopeFor(m))
	require.NoError(t, err)
	assert.True(t, hit)

	f.createProject(t, m, "", domain.StatusPending)

	second, err := f.stats.ForActor(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Total)
	assert.Equal(t, 1, second.Pending)
}

type brokenCache struct{}

func (brokenCache) Lookup(context.Context, policy.Scope) (domain.ProjectStats, int64, bool, error) {
	return domain.ProjectStats{}, 0, false, errors.New("redis down")
}

func (brokenCache) Store(context.Context, int64, policy.Scope, domain.ProjectStats) error {
	return errors.New("redis down")
}

func (brokenCache) Invalidate(context.Context) error { return errors.New("redis down") }

func TestStats_CacheFailureFallsThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stats.WithCache(brokenCache{})
	f.projects.WithStatsCache(brokenCache{})

	m := f.signUp(t, "m", domain.RoleManager)
	f.createProject(t, m, "", domain.StatusUrgent)

	got, err := f.stats.ForActor(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStats{Total: 1, Urgent: 1}, got)
}
