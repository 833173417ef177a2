package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

func seedProfile(t *testing.T, s *Store, id string, role domain.Role) {
	t.Helper()
	err := s.WithinTx(context.Background(), func(tx repository.Tx) error {
		if err := tx.InsertIdentity(context.Background(), &domain.Identity{ID: id, Email: id + "@example.com"}); err != nil {
			return err
		}
		return tx.InsertProfile(context.Background(), &domain.Profile{ID: id, Name: id, Email: id + "@example.com", Role: role})
	})
	require.NoError(t, err)
}

func newProject(assignee *string, status domain.Status) *domain.Project {
	now := time.Now()
	return &domain.Project{
		ClientName:  "Client",
		ClientEmail: "client@example.com",
		StartDate:   domain.DateOnly(now),
		Deadline:    domain.DateOnly(now.AddDate(0, 1, 0)),
		Status:      status,
		AssignedTo:  assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestStore_TransactionRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.InsertIdentity(ctx, &domain.Identity{ID: "u1", Email: "u1@example.com"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.View(ctx, func(tx repository.Tx) error {
		_, err := tx.GetIdentity(ctx, "u1")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CancelledContextCommitsNothing(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.InsertIdentity(ctx, &domain.Identity{ID: "u1", Email: "u1@example.com"}))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	err = s.View(context.Background(), func(tx repository.Tx) error {
		_, err := tx.GetIdentity(context.Background(), "u1")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.View(ctx, func(tx repository.Tx) error {
		return tx.InsertIdentity(ctx, &domain.Identity{ID: "u1"})
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestStore_Conflicts(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProfile(t, s, "u1", domain.RoleConsultant)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.InsertProfile(ctx, &domain.Profile{ID: "u1", Role: domain.RoleConsultant})
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.InsertProfile(ctx, &domain.Profile{ID: "ghost", Role: domain.RoleConsultant})
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "profile without identity")
}

func TestStore_ProjectReferences(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProfile(t, s, "c1", domain.RoleConsultant)

	t.Run("unknown assignee is rejected", func(t *testing.T) {
		ghost := "ghost"
		err := s.WithinTx(ctx, func(tx repository.Tx) error {
			return tx.InsertProject(ctx, newProject(&ghost, domain.StatusPending))
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("activity on missing project is rejected", func(t *testing.T) {
		err := s.WithinTx(ctx, func(tx repository.Tx) error {
			return tx.InsertActivity(ctx, &domain.Activity{ProjectID: 99, Description: "x"})
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ids are monotonic", func(t *testing.T) {
		var ids []int64
		for i := 0; i < 3; i++ {
			p := newProject(nil, domain.StatusPending)
			require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error { return tx.InsertProject(ctx, p) }))
			ids = append(ids, p.ID)
		}
		assert.Less(t, ids[0], ids[1])
		assert.Less(t, ids[1], ids[2])
	})
}

func TestStore_DeleteProjectCascades(t *testing.T) {
	s := New()
	ctx := context.Background()

	p := newProject(nil, domain.StatusActive)
	a := &domain.Activity{Description: "kickoff", CreatedAt: time.Now()}
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.InsertProject(ctx, p); err != nil {
			return err
		}
		a.ProjectID = p.ID
		return tx.InsertActivity(ctx, a)
	}))

	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error { return tx.DeleteProject(ctx, p.ID) }))

	err := s.View(ctx, func(tx repository.Tx) error {
		_, err := tx.GetActivity(ctx, a.ID)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteProfileUnassigns(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProfile(t, s, "c1", domain.RoleConsultant)

	assignee := "c1"
	p := newProject(&assignee, domain.StatusPending)
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error { return tx.InsertProject(ctx, p) }))
	other := newProject(nil, domain.StatusPending)
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error { return tx.InsertProject(ctx, other) }))

	at := p.UpdatedAt.Add(time.Minute)
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error { return tx.DeleteProfile(ctx, "c1", at) }))

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		got, err := tx.GetProject(ctx, p.ID, false)
		require.NoError(t, err)
		assert.Nil(t, got.AssignedTo)
		assert.True(t, got.UpdatedAt.Equal(at))

		untouched, err := tx.GetProject(ctx, other.ID, false)
		require.NoError(t, err)
		assert.True(t, untouched.UpdatedAt.Equal(other.UpdatedAt))

		_, err = tx.GetIdentity(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		return nil
	}))
}

func TestStore_UpdateProjectKeepsTimestampsMonotonic(t *testing.T) {
	s := New()
	ctx := context.Background()

	p := newProject(nil, domain.StatusPending)
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error { return tx.InsertProject(ctx, p) }))

	stale := p.Clone()
	stale.UpdatedAt = p.UpdatedAt.Add(-time.Hour)
	stale.CreatedAt = time.Time{}
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error { return tx.UpdateProject(ctx, &stale) }))

	assert.True(t, stale.UpdatedAt.Equal(p.UpdatedAt))
	assert.True(t, stale.CreatedAt.Equal(p.CreatedAt))
}

func TestStore_CountProjectsByStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProfile(t, s, "c1", domain.RoleConsultant)

	c1 := "c1"
	fixtures := []*domain.Project{
		newProject(&c1, domain.StatusActive),
		newProject(&c1, domain.StatusUrgent),
		newProject(nil, domain.StatusPending),
		newProject(nil, domain.StatusCompleted),
	}
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error {
		for _, p := range fixtures {
			if err := tx.InsertProject(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		all, err := tx.CountProjectsByStatus(ctx, policy.NewScope("m1", true))
		require.NoError(t, err)
		assert.Equal(t, map[domain.Status]int{
			domain.StatusActive: 1, domain.StatusUrgent: 1, domain.StatusPending: 1, domain.StatusCompleted: 1,
		}, all)

		mine, err := tx.CountProjectsByStatus(ctx, policy.NewScope("c1", false))
		require.NoError(t, err)
		assert.Equal(t, map[domain.Status]int{domain.StatusActive: 1, domain.StatusUrgent: 1}, mine)
		return nil
	}))
}

func TestStore_ListProjectsAgreesWithScope(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedProfile(t, s, "c1", domain.RoleConsultant)

	c1 := "c1"
	fixtures := []*domain.Project{
		newProject(&c1, domain.StatusActive),
		newProject(&c1, domain.StatusPending),
		newProject(nil, domain.StatusActive),
	}
	require.NoError(t, s.WithinTx(ctx, func(tx repository.Tx) error {
		for _, p := range fixtures {
			if err := tx.InsertProject(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}))

	scope := policy.NewScope("c1", false)
	active := domain.StatusActive
	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		mine, err := tx.ListProjects(ctx, repository.ProjectQuery{Scope: scope})
		require.NoError(t, err)
		require.Len(t, mine, 2)
		for i := range mine {
			assert.True(t, scope.Includes(&mine[i]))
		}

		activeMine, err := tx.ListProjects(ctx, repository.ProjectQuery{Scope: scope, Status: &active})
		require.NoError(t, err)
		require.Len(t, activeMine, 1)
		assert.Equal(t, fixtures[0].ID, activeMine[0].ID)

		none, err := tx.ListProjects(ctx, repository.ProjectQuery{Scope: policy.ScopeFor(domain.Actor{})})
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	}))
}
