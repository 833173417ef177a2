package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

func TestProjects_ManagerAndConsultantScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := f.signUp(t, "m", domain.RoleManager)
	c1 := f.signUp(t, "c1", domain.RoleConsultant)
	f.signUp(t, "c2", domain.RoleConsultant)

	p1 := f.createProject(t, m, "c1", domain.StatusActive)
	p2 := f.createProject(t, m, "c2", domain.StatusPending)
	p3 := f.createProject(t, m, "", domain.StatusUrgent)

	visible, err := f.projects.List(ctx, c1, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{p1.ID}, ids(visible))

	all, err := f.projects.List(ctx, m, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{p3.ID, p2.ID, p1.ID}, ids(all))

	_, err = f.projects.Get(ctx, c1, p2.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.projects.Get(ctx, c1, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.ID)

	status := domain.StatusCompleted
	_, err = f.projects.Update(ctx, c1, p1.ID, domain.ProjectPatch{Status: &status})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	c1Stats, err := f.stats.ForActor(ctx, c1)
	require.NoError(t, err)
	assert.Equal(t, 1, c1Stats.Total)
	assert.Equal(t, 1, c1Stats.Active)

	mStats, err := f.stats.ForActor(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 3, mStats.Total)
}

func TestProjects_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signUp(t, "m", domain.RoleManager)
	c := f.signUp(t, "c", domain.RoleConsultant)

	t.Run("consultant is denied before validation", func(t *testing.T) {
		_, err := f.projects.Create(ctx, c, domain.ProjectInput{})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("unauthenticated is denied", func(t *testing.T) {
		_, err := f.projects.Create(ctx, domain.Actor{}, projectInput("", ""))
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("missing deadline is a validation error", func(t *testing.T) {
		in := projectInput("", "")
		in.Deadline = nil
		_, err := f.projects.Create(ctx, m, in)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "deadline", verr.Field)
	})

	t.Run("unknown assignee is not found", func(t *testing.T) {
		_, err := f.projects.Create(ctx, m, projectInput("ghost", domain.StatusActive))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("defaults and normalisation", func(t *testing.T) {
		in := projectInput("c", "")
		in.ProjectTypes = []string{" phd", "ms", "phd", ""}
		p, err := f.projects.Create(ctx, m, in)
		require.NoError(t, err)
		assert.Positive(t, p.ID)
		assert.Equal(t, domain.StatusPending, p.Status)
		assert.Equal(t, []string{"ms", "phd"}, p.ProjectTypes)
		assert.Equal(t, []string{}, p.TargetUniversities)
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	})
}

func TestProjects_UpdateGateRunsBeforeLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.signUp(t, "c", domain.RoleConsultant)
	m := f.signUp(t, "m", domain.RoleManager)

	_, err := f.projects.Update(ctx, c, 999, domain.ProjectPatch{})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	err = f.projects.Delete(ctx, c, 999)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	_, err = f.projects.Update(ctx, m, 999, domain.ProjectPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjects_UpdatedAtIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signUp(t, "m", domain.RoleManager)
	p := f.createProject(t, m, "", domain.StatusPending)
	created := p.CreatedAt

	// the clock now runs backwards by a minute per call
	f.clock.set(created.Add(2*time.Minute), -time.Minute)

	prev := p.UpdatedAt
	for i := 0; i < 6; i++ {
		note := "note"
		updated, err := f.projects.Update(ctx, m, p.ID, domain.ProjectPatch{Notes: &note})
		require.NoError(t, err)
		assert.False(t, updated.UpdatedAt.Before(prev), "update %d moved updated_at backwards", i)
		assert.Equal(t, created, updated.CreatedAt)
		prev = updated.UpdatedAt
	}

	stored, err := f.projects.Get(ctx, m, p.ID)
	require.NoError(t, err)
	assert.Equal(t, prev, stored.UpdatedAt)
}

func TestProjects_UpdateAppliesPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signUp(t, "m", domain.RoleManager)
	f.signUp(t, "c", domain.RoleConsultant)
	p := f.createProject(t, m, "c", domain.StatusPending)

	status := domain.StatusUrgent
	updated, err := f.projects.Update(ctx, m, p.ID, domain.ProjectPatch{
		Status:             &status,
		Unassign:           true,
		TargetUniversities: []string{"Oxford", "MIT", "Oxford"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUrgent, updated.Status)
	assert.Nil(t, updated.AssignedTo)
	assert.Equal(t, []string{"MIT", "Oxford"}, updated.TargetUniversities)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))

	bad := domain.Status("archived")
	_, err = f.projects.Update(ctx, m, p.ID, domain.ProjectPatch{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProjects_ListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signUp(t, "m", domain.RoleManager)
	f.createProject(t, m, "", domain.StatusActive)
	urgent := f.createProject(t, m, "", domain.StatusUrgent)

	status := domain.StatusUrgent
	got, err := f.projects.List(ctx, m, ProjectFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, []int64{urgent.ID}, ids(got))

	bad := domain.Status("nope")
	_, err = f.projects.List(ctx, m, ProjectFilter{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.projects.List(ctx, domain.Actor{}, ProjectFilter{})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestProjects_DeleteCascadesActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signUp(t, "m", domain.RoleManager)
	p := f.createProject(t, m, "", domain.StatusActive)

	a1, err := f.activities.Create(ctx, m, p.ID, "kick-off call")
	require.NoError(t, err)
	a2, err := f.activities.Create(ctx, m, p.ID, "sent documents")
	require.NoError(t, err)

	require.NoError(t, f.projects.Delete(ctx, m, p.ID))

	for _, id := range []int64{a1.ID, a2.ID} {
		err := f.store.View(ctx, func(tx repository.Tx) error {
			_, err := tx.GetActivity(ctx, id)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}

	_, err = f.projects.Get(ctx, m, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.projects.Delete(ctx, m, p.ID), domain.ErrNotFound)
}

func TestProjects_DeletedProfileIsUnassigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.signUp(t, "m", domain.RoleManager)
	f.signUp(t, "c", domain.RoleConsultant)
	p := f.createProject(t, m, "c", domain.StatusActive)

	require.NoError(t, f.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.DeleteProfile(ctx, "c", f.clock.Now())
	}))

	got, err := f.projects.Get(ctx, m, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)
	assert.True(t, got.UpdatedAt.After(p.UpdatedAt))
}

func TestProjects_EndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := f.signUp(t, "m", domain.RoleManager)
	c := f.signUp(t, "c", domain.RoleConsultant)
	d := f.signUp(t, "d", domain.RoleConsultant)

	p1 := f.createProject(t, m, "c", domain.StatusPending)
	require.NotNil(t, p1.AssignedTo)
	assert.Equal(t, "c", *p1.AssignedTo)
	assert.Equal(t, domain.StatusPending, p1.Status)

	visible, err := f.projects.List(ctx, d, ProjectFilter{})
	require.NoError(t, err)
	assert.NotContains(t, ids(visible), p1.ID)

	active := domain.StatusActive
	updated, err := f.projects.Update(ctx, m, p1.ID, domain.ProjectPatch{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, updated.Status)
	assert.True(t, updated.UpdatedAt.After(p1.UpdatedAt))

	stats, err := f.stats.GetProjectStats(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStats{Total: 1, Active: 1, Pending: 0, Completed: 0, Urgent: 0}, stats)

	completed := domain.StatusCompleted
	_, err = f.projects.Update(ctx, d, p1.ID, domain.ProjectPatch{Status: &completed})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	got, err := f.projects.Get(ctx, c, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
}
