package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

// ActivityService manages the append-only activity log. There is no update
// or delete; activities only disappear with their project.
type ActivityService struct {
	store repository.Store
	now   Clock
	log   *logger.Logger
}

func NewActivityService(store repository.Store, log *logger.Logger) *ActivityService {
	return &ActivityService{
		store: store,
		now:   time.Now,
		log:   log.With("component", "activity.service"),
	}
}

func (s *ActivityService) WithClock(now Clock) *ActivityService {
	s.now = now
	return s
}

func (s *ActivityService) Create(ctx context.Context, actor domain.Actor, projectID int64, description string) (a *domain.Activity, err error) {
	ctx, span := startSpan(ctx, "ActivityService.Create", actor)
	defer func() { endSpan(span, err) }()

	if !policy.CanPerform(actor, policy.OpCreate, policy.KindActivity, nil) {
		return nil, domain.ErrPermissionDenied
	}
	row := domain.Activity{ProjectID: projectID, Description: strings.TrimSpace(description)}
	if err := domain.ValidateActivity(row); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetProject(ctx, projectID, false); err != nil {
			return err
		}
		row.CreatedAt = s.now().UTC()
		return tx.InsertActivity(ctx, &row)
	})
	if err != nil {
		return nil, fmt.Errorf("create activity on project %d: %w", projectID, err)
	}

	s.log.Info("activity created", "activity_id", row.ID, "project_id", projectID, "actor_id", actor.ID)
	return &row, nil
}

// Get returns the activity when its project is visible to actor, and
// domain.ErrNotFound otherwise.
func (s *ActivityService) Get(ctx context.Context, actor domain.Actor, id int64) (a *domain.Activity, err error) {
	ctx, span := startSpan(ctx, "ActivityService.Get", actor)
	defer func() { endSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, domain.ErrPermissionDenied
	}
	err = s.store.View(ctx, func(tx repository.Tx) error {
		activity, err := tx.GetActivity(ctx, id)
		if err != nil {
			return err
		}
		project, err := tx.GetProject(ctx, activity.ProjectID, false)
		if err != nil {
			return err
		}
		if !policy.CanPerform(actor, policy.OpRead, policy.KindActivity, policy.ActivityRow{Activity: activity, Project: project}) {
			return fmt.Errorf("activity %d: %w", id, domain.ErrNotFound)
		}
		a = activity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListForProject returns the project's activities, newest first.
func (s *ActivityService) ListForProject(ctx context.Context, actor domain.Actor, projectID int64) (out []domain.Activity, err error) {
	ctx, span := startSpan(ctx, "ActivityService.ListForProject", actor)
	defer func() { endSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, domain.ErrPermissionDenied
	}
	err = s.store.View(ctx, func(tx repository.Tx) error {
		project, err := tx.GetProject(ctx, projectID, false)
		if err != nil {
			return err
		}
		if !policy.CanPerform(actor, policy.OpRead, policy.KindActivity, policy.ActivityRow{Project: project}) {
			return fmt.Errorf("project %d: %w", projectID, domain.ErrNotFound)
		}
		out, err = tx.ListActivities(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
