// Package admin holds operations that are deliberately not exposed over
// HTTP: changing roles and removing profiles. They run from the worker CLI.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

// Invalidator is notified after a change that can alter project stats.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	store repository.Store
	stats Invalidator
	now   func() time.Time
	log   *logger.Logger
}

func NewService(store repository.Store, log *logger.Logger) *Service {
	return &Service{store: store, now: time.Now, log: log.With("component", "admin")}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithStatsCache(c Invalidator) *Service {
	s.stats = c
	return s
}

// SetRole changes a profile's role and returns the previous one.
func (s *Service) SetRole(ctx context.Context, id string, role domain.Role) (domain.Role, error) {
	id = strings.TrimSpace(id)
	role = domain.Role(strings.ToLower(strings.TrimSpace(string(role))))
	if !role.Valid() {
		return "", &domain.ValidationError{Field: "role", Reason: "must be manager or consultant"}
	}

	var previous domain.Role
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		p, err := tx.GetProfile(ctx, id)
		if err != nil {
			return err
		}
		previous = p.Role
		if previous == role {
			return nil
		}
		return tx.SetProfileRole(ctx, id, role)
	})
	if err != nil {
		return "", fmt.Errorf("set role for %q: %w", id, err)
	}

	s.log.Info("profile role changed", "profile_id", id, "from", previous, "to", role)
	return previous, nil
}

// DeleteProfile removes a profile and its identity. Projects assigned to it
// become unassigned. The next sign-in of the same subject registers it
// again as a new consultant.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.DeleteProfile(ctx, id, s.now().UTC())
	})
	if err != nil {
		return fmt.Errorf("delete profile %q: %w", id, err)
	}

	if s.stats != nil {
		if err := s.stats.Invalidate(ctx); err != nil {
			s.log.Warn("stats cache invalidation failed", "error", err)
		}
	}
	s.log.Info("profile deleted", "profile_id", id)
	return nil
}
