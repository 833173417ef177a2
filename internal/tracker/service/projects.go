package service

import (
	"context"
	"fmt"
	"time"

	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

// ProjectFilter narrows a project listing. Visibility is never part of it;
// that always comes from the actor.
type ProjectFilter struct {
	Status *domain.Status
}

type ProjectService struct {
	store repository.Store
	stats StatsCache
	now   Clock
	log   *logger.Logger
}

func NewProjectService(store repository.Store, log *logger.Logger) *ProjectService {
	return &ProjectService{
		store: store,
		now:   time.Now,
		log:   log.With("component", "project.service"),
	}
}

func (s *ProjectService) WithClock(now Clock) *ProjectService {
	s.now = now
	return s
}

// WithStatsCache makes every committed mutation invalidate the stats cache.
func (s *ProjectService) WithStatsCache(c StatsCache) *ProjectService {
	s.stats = c
	return s
}

func (s *ProjectService) Create(ctx context.Context, actor domain.Actor, in domain.ProjectInput) (p *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.Create", actor)
	defer func() { endSpan(span, err) }()

	if !policy.CanPerform(actor, policy.OpCreate, policy.KindProject, nil) {
		return nil, domain.ErrPermissionDenied
	}
	row, err := in.Build()
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		now := s.now().UTC()
		row.CreatedAt = now
		row.UpdatedAt = now
		return tx.InsertProject(ctx, &row)
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.invalidateStats(ctx)
	s.log.Info("project created", "project_id", row.ID, "actor_id", actor.ID)
	return &row, nil
}

// Get returns the project if the actor can see it. Invisible and missing
// projects both report domain.ErrNotFound.
func (s *ProjectService) Get(ctx context.Context, actor domain.Actor, id int64) (p *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.Get", actor)
	defer func() { endSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, domain.ErrPermissionDenied
	}
	err = s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		p, err = tx.GetProject(ctx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !policy.CanReadProject(actor, p) {
		return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// List returns the projects visible to actor, newest first.
func (s *ProjectService) List(ctx context.Context, actor domain.Actor, f ProjectFilter) (out []domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.List", actor)
	defer func() { endSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, domain.ErrPermissionDenied
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "must be one of pending, active, urgent, completed"}
	}

	q := repository.ProjectQuery{Scope: policy.ScopeFor(actor), Status: f.Status}
	err = s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListProjects(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies patch to the project. The role gate runs before the row is
// looked up, so a consultant is denied whether or not the project exists.
func (s *ProjectService) Update(ctx context.Context, actor domain.Actor, id int64, patch domain.ProjectPatch) (p *domain.Project, err error) {
	ctx, span := startSpan(ctx, "ProjectService.Update", actor)
	defer func() { endSpan(span, err) }()

	if !policy.CanWriteProjects(actor) {
		return nil, domain.ErrPermissionDenied
	}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetProject(ctx, id, true)
		if err != nil {
			return err
		}
		if !policy.CanPerform(actor, policy.OpUpdate, policy.KindProject, current) {
			return domain.ErrPermissionDenied
		}
		if err := patch.Apply(current); err != nil {
			return err
		}
		s.touchProject(current)
		if err := tx.UpdateProject(ctx, current); err != nil {
			return err
		}
		p = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}

	s.invalidateStats(ctx)
	s.log.Info("project updated", "project_id", id, "actor_id", actor.ID)
	return p, nil
}

// Delete removes the project and, with it, its activity log.
func (s *ProjectService) Delete(ctx context.Context, actor domain.Actor, id int64) (err error) {
	ctx, span := startSpan(ctx, "ProjectService.Delete", actor)
	defer func() { endSpan(span, err) }()

	if !policy.CanWriteProjects(actor) {
		return domain.ErrPermissionDenied
	}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetProject(ctx, id, true)
		if err != nil {
			return err
		}
		if !policy.CanPerform(actor, policy.OpDelete, policy.KindProject, current) {
			return domain.ErrPermissionDenied
		}
		return tx.DeleteProject(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}

	s.invalidateStats(ctx)
	s.log.Info("project deleted", "project_id", id, "actor_id", actor.ID)
	return nil
}

// touchProject is the write hook run on every project mutation: updated_at
// becomes max(now, previous) whatever the caller supplied.
func (s *ProjectService) touchProject(p *domain.Project) {
	now := s.now().UTC()
	if now.Before(p.UpdatedAt) {
		now = p.UpdatedAt
	}
	p.UpdatedAt = now
}

func (s *ProjectService) invalidateStats(ctx context.Context) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx); err != nil {
		s.log.Warn("stats cache invalidation failed", "error", err)
	}
}
