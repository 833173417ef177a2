package service

import (
	"context"

	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

// StatsService answers status counts over the projects a caller can see.
// Managers count every project; everyone else counts their assignments.
type StatsService struct {
	store repository.Store
	cache StatsCache
	log   *logger.Logger
}

func NewStatsService(store repository.Store, log *logger.Logger) *StatsService {
	return &StatsService{store: store, log: log.With("component", "stats.service")}
}

func (s *StatsService) WithCache(c StatsCache) *StatsService {
	s.cache = c
	return s
}

// GetProjectStats counts in one snapshot, so Total always equals the sum of
// the per-status counts.
func (s *StatsService) GetProjectStats(ctx context.Context, actorID string, isManager bool) (stats domain.ProjectStats, err error) {
	role := domain.RoleConsultant
	if isManager {
		role = domain.RoleManager
	}
	ctx, span := startSpan(ctx, "StatsService.GetProjectStats", domain.Actor{ID: actorID, Role: role})
	defer func() { endSpan(span, err) }()

	if actorID == "" {
		return domain.ProjectStats{}, domain.ErrPermissionDenied
	}
	scope := policy.NewScope(actorID, isManager)

	var gen int64
	fill := false
	if s.cache != nil {
		var hit bool
		var cerr error
		stats, gen, hit, cerr = s.cache.Lookup(ctx, scope)
		switch {
		case cerr != nil:
			s.log.Warn("stats cache lookup failed", "error", cerr)
		case hit:
			return stats, nil
		default:
			fill = true
		}
	}

	err = s.store.View(ctx, func(tx repository.Tx) error {
		counts, err := tx.CountProjectsByStatus(ctx, scope)
		if err != nil {
			return err
		}
		stats = domain.StatsFromCounts(counts)
		return nil
	})
	if err != nil {
		return domain.ProjectStats{}, err
	}

	if fill {
		if err := s.cache.Store(ctx, gen, scope, stats); err != nil {
			s.log.Warn("stats cache store failed", "error", err)
		}
	}
	return stats, nil
}

// ForActor is GetProjectStats for a resolved actor.
func (s *StatsService) ForActor(ctx context.Context, actor domain.Actor) (domain.ProjectStats, error) {
	return s.GetProjectStats(ctx, actor.ID, actor.IsManager())
}
