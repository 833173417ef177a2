package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/consultdesk/tracker-backend/internal/identity"
	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/storage/memstore"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

type fixture struct {
	store      *memstore.Store
	registry   *identity.Registry
	profiles   *ProfileService
	projects   *ProjectService
	activities *ActivityService
	stats      *StatsService
	clock      *stepClock
}

// stepClock advances by step on every call. A negative step makes time run
// backwards.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *stepClock) set(now time.Time, step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now, c.step = now, step
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	log := logger.Nop()
	clock := &stepClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), step: time.Second}

	return &fixture{
		store:      store,
		registry:   identity.NewRegistry(store, log, identity.ProfileProvisioner{}).WithClock(clock.Now),
		profiles:   NewProfileService(store, log),
		projects:   NewProjectService(store, log).WithClock(clock.Now),
		activities: NewActivityService(store, log).WithClock(clock.Now),
		stats:      NewStatsService(store, log),
		clock:      clock,
	}
}

// signUp provisions a profile through the registry and, for managers,
// promotes it the way the administrative path does.
func (f *fixture) signUp(t *testing.T, id string, role domain.Role) domain.Actor {
	t.Helper()
	ctx := context.Background()
	_, err := f.registry.Register(ctx, domain.NewIdentity{ID: id, Email: id + "@example.com"})
	require.NoError(t, err)
	if role == domain.RoleManager {
		require.NoError(t, f.store.WithinTx(ctx, func(tx repository.Tx) error {
			return tx.SetProfileRole(ctx, id, domain.RoleManager)
		}))
	}
	return domain.Actor{ID: id, Role: role}
}

func (f *fixture) createProject(t *testing.T, manager domain.Actor, assignee string, status domain.Status) *domain.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), manager, projectInput(assignee, status))
	require.NoError(t, err)
	return p
}

func projectInput(assignee string, status domain.Status) domain.ProjectInput {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	in := domain.ProjectInput{
		ClientName:  "Client " + assignee,
		ClientEmail: "client@example.com",
		StartDate:   &start,
		Deadline:    &deadline,
		Status:      status,
	}
	if assignee != "" {
		in.AssignedTo = &assignee
	}
	return in
}

func ids(projects []domain.Project) []int64 {
	out := make([]int64, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.ID)
	}
	return out
}
