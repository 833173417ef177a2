// Package repository declares the storage contract the tracker services run
// against. Implementations live under internal/storage.
package repository

import (
	"context"
	"time"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
)

// Store runs units of work. WithinTx commits only when fn returns nil;
// View runs fn against one read-only snapshot.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

// ProjectQuery selects projects for a listing. Scope is mandatory; Status
// narrows the result further when set.
type ProjectQuery struct {
	Scope  policy.Scope
	Status *domain.Status
}

// Tx is one transaction. Lookups of missing rows return domain.ErrNotFound,
// duplicate keys domain.ErrConflict, and references to missing rows
// domain.ErrNotFound.
type Tx interface {
	InsertIdentity(ctx context.Context, identity *domain.Identity) error
	GetIdentity(ctx context.Context, id string) (*domain.Identity, error)

	InsertProfile(ctx context.Context, profile *domain.Profile) error
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) error
	SetProfileRole(ctx context.Context, id string, role domain.Role) error
	// DeleteProfile removes the profile together with its identity. Every
	// project assigned to it is unassigned and its updated_at moved to
	// max(at, updated_at).
	DeleteProfile(ctx context.Context, id string, at time.Time) error

	// InsertProject assigns the new project's ID.
	InsertProject(ctx context.Context, project *domain.Project) error
	// GetProject loads one project; forUpdate locks the row until the
	// transaction ends.
	GetProject(ctx context.Context, id int64, forUpdate bool) (*domain.Project, error)
	ListProjects(ctx context.Context, q ProjectQuery) ([]domain.Project, error)
	UpdateProject(ctx context.Context, project *domain.Project) error
	// DeleteProject removes the project and all of its activities.
	DeleteProject(ctx context.Context, id int64) error
	// CountProjectsByStatus counts in-scope projects per status in one read.
	CountProjectsByStatus(ctx context.Context, scope policy.Scope) (map[domain.Status]int, error)

	// InsertActivity assigns the new activity's ID.
	InsertActivity(ctx context.Context, activity *domain.Activity) error
	GetActivity(ctx context.Context, id int64) (*domain.Activity, error)
	ListActivities(ctx context.Context, projectID int64) ([]domain.Activity, error)
}
