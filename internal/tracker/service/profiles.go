package service

import (
	"context"
	"fmt"

	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

type ProfileService struct {
	store repository.Store
	log   *logger.Logger
}

func NewProfileService(store repository.Store, log *logger.Logger) *ProfileService {
	return &ProfileService{store: store, log: log.With("component", "profile.service")}
}

func (s *ProfileService) Get(ctx context.Context, actor domain.Actor, id string) (p *domain.Profile, err error) {
	ctx, span := startSpan(ctx, "ProfileService.Get", actor)
	defer func() { endSpan(span, err) }()

	if !policy.CanPerform(actor, policy.OpRead, policy.KindProfile, nil) {
		return nil, domain.ErrPermissionDenied
	}
	err = s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		p, err = tx.GetProfile(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) List(ctx context.Context, actor domain.Actor) (out []domain.Profile, err error) {
	ctx, span := startSpan(ctx, "ProfileService.List", actor)
	defer func() { endSpan(span, err) }()

	if !policy.CanPerform(actor, policy.OpRead, policy.KindProfile, nil) {
		return nil, domain.ErrPermissionDenied
	}
	err = s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListProfiles(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSelf changes the caller's own name or email. Role is not part of the
// self-service surface.
func (s *ProfileService) UpdateSelf(ctx context.Context, actor domain.Actor, upd domain.ProfileUpdate) (p *domain.Profile, err error) {
	ctx, span := startSpan(ctx, "ProfileService.UpdateSelf", actor)
	defer func() { endSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, domain.ErrPermissionDenied
	}
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.GetProfile(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !policy.CanPerform(actor, policy.OpUpdate, policy.KindProfile, current) {
			return domain.ErrPermissionDenied
		}
		if err := upd.Apply(current); err != nil {
			return err
		}
		if err := tx.UpdateProfile(ctx, current); err != nil {
			return err
		}
		p = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update profile %q: %w", actor.ID, err)
	}
	s.log.Info("profile updated", "profile_id", p.ID)
	return p, nil
}
