package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

func strPtr(s string) *string { return &s }

var (
	manager    = domain.Actor{ID: "mgr-1", Role: domain.RoleManager}
	consultant = domain.Actor{ID: "con-1", Role: domain.RoleConsultant}
	other      = domain.Actor{ID: "con-2", Role: domain.RoleConsultant}
	anonymous  = domain.Actor{}
)

func TestCanPerform_ProjectRead(t *testing.T) {
	assigned := &domain.Project{ID: 1, AssignedTo: strPtr("con-1")}
	unassigned := &domain.Project{ID: 2}
	elsewhere := &domain.Project{ID: 3, AssignedTo: strPtr("con-2")}

	actors := []domain.Actor{manager, consultant, other, anonymous}
	projects := []*domain.Project{assigned, unassigned, elsewhere}

	for _, a := range actors {
		for _, p := range projects {
			want := a.Authenticated() && (a.Role == domain.RoleManager || (p.AssignedTo != nil && *p.AssignedTo == a.ID))
			assert.Equal(t, want, CanPerform(a, OpRead, KindProject, p),
				"actor=%q role=%q project=%d", a.ID, a.Role, p.ID)
			assert.Equal(t, want, ScopeFor(a).Includes(p),
				"scope mismatch actor=%q project=%d", a.ID, p.ID)
		}
	}
}

func TestCanPerform_ProjectWrites(t *testing.T) {
	p := &domain.Project{ID: 1, AssignedTo: strPtr("con-1")}

	for _, op := range []Operation{OpCreate, OpUpdate, OpDelete} {
		t.Run(string(op), func(t *testing.T) {
			assert.True(t, CanPerform(manager, op, KindProject, p))
			assert.True(t, CanPerform(manager, op, KindProject, nil))
			assert.False(t, CanPerform(consultant, op, KindProject, p), "assignment grants no write")
			assert.False(t, CanPerform(other, op, KindProject, p))
			assert.False(t, CanPerform(anonymous, op, KindProject, p))
		})
	}
}

func TestCanPerform_Profile(t *testing.T) {
	own := &domain.Profile{ID: "con-1", Role: domain.RoleConsultant}
	theirs := &domain.Profile{ID: "con-2", Role: domain.RoleConsultant}

	t.Run("read is global for authenticated actors", func(t *testing.T) {
		assert.True(t, CanPerform(consultant, OpRead, KindProfile, theirs))
		assert.True(t, CanPerform(manager, OpRead, KindProfile, own))
		assert.False(t, CanPerform(anonymous, OpRead, KindProfile, own))
	})

	t.Run("create and update are self-service only", func(t *testing.T) {
		for _, op := range []Operation{OpCreate, OpUpdate} {
			assert.True(t, CanPerform(consultant, op, KindProfile, own))
			assert.False(t, CanPerform(consultant, op, KindProfile, theirs))
			assert.False(t, CanPerform(manager, op, KindProfile, own), "managers do not edit other profiles")
			assert.False(t, CanPerform(consultant, op, KindProfile, nil))
		}
	})

	t.Run("delete has no rule", func(t *testing.T) {
		assert.False(t, CanPerform(consultant, OpDelete, KindProfile, own))
		assert.False(t, CanPerform(manager, OpDelete, KindProfile, theirs))
	})
}

func TestCanPerform_Activity(t *testing.T) {
	parent := &domain.Project{ID: 7, AssignedTo: strPtr("con-1")}
	act := &domain.Activity{ID: 1, ProjectID: 7, Description: "called client"}
	row := ActivityRow{Activity: act, Project: parent}

	t.Run("read follows the parent project", func(t *testing.T) {
		assert.True(t, CanPerform(manager, OpRead, KindActivity, row))
		assert.True(t, CanPerform(consultant, OpRead, KindActivity, row))
		assert.False(t, CanPerform(other, OpRead, KindActivity, row))
	})

	t.Run("read without a parent is denied", func(t *testing.T) {
		assert.False(t, CanPerform(manager, OpRead, KindActivity, ActivityRow{Activity: act}))
		assert.False(t, CanPerform(manager, OpRead, KindActivity, act))
	})

	t.Run("mismatched parent is denied", func(t *testing.T) {
		wrong := ActivityRow{Activity: act, Project: &domain.Project{ID: 8, AssignedTo: strPtr("con-1")}}
		assert.False(t, CanPerform(consultant, OpRead, KindActivity, wrong))
	})

	t.Run("create is manager only", func(t *testing.T) {
		assert.True(t, CanPerform(manager, OpCreate, KindActivity, ActivityRow{Project: parent}))
		assert.False(t, CanPerform(consultant, OpCreate, KindActivity, ActivityRow{Project: parent}))
	})

	t.Run("append-only", func(t *testing.T) {
		for _, op := range []Operation{OpUpdate, OpDelete} {
			assert.False(t, CanPerform(manager, op, KindActivity, row))
			assert.False(t, CanPerform(consultant, op, KindActivity, row))
		}
	})
}

func TestCanPerform_UnknownKindDenied(t *testing.T) {
	assert.False(t, CanPerform(manager, OpRead, ResourceKind("invoice"), nil))
	assert.False(t, CanPerform(manager, Operation("archive"), KindProject, nil))
}

func TestScope(t *testing.T) {
	projects := []domain.Project{
		{ID: 1, AssignedTo: strPtr("con-1")},
		{ID: 2},
		{ID: 3, AssignedTo: strPtr("con-2")},
		{ID: 4, AssignedTo: strPtr("con-1")},
	}

	t.Run("manager scope spans everything", func(t *testing.T) {
		assert.Len(t, NewScope("mgr-1", true).Filter(projects), 4)
	})

	t.Run("consultant scope keeps assignments in order", func(t *testing.T) {
		got := NewScope("con-1", false).Filter(projects)
		if assert.Len(t, got, 2) {
			assert.Equal(t, int64(1), got[0].ID)
			assert.Equal(t, int64(4), got[1].ID)
		}
	})

	t.Run("empty actor sees nothing", func(t *testing.T) {
		assert.Empty(t, NewScope("", false).Filter(projects))
		assert.Empty(t, ScopeFor(anonymous).Filter(projects))
	})

	t.Run("sql rendering", func(t *testing.T) {
		clause, args := NewScope("con-1", false).SQLPredicate("assigned_to", 3)
		assert.Equal(t, "($3::boolean or assigned_to = $4)", clause)
		assert.Equal(t, []any{false, "con-1"}, args)
	})
}
