package bootstrap

import (
	"github.com/redis/go-redis/v9"

	"github.com/consultdesk/tracker-backend/config"
	"github.com/consultdesk/tracker-backend/internal/admin"
	"github.com/consultdesk/tracker-backend/internal/identity"
	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/cache"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
	"github.com/consultdesk/tracker-backend/internal/tracker/service"
)

// Services is everything the api and the worker run on top of one store.
type Services struct {
	Store      repository.Store
	Redis      *redis.Client
	Registry   *identity.Registry
	Profiles   *service.ProfileService
	Projects   *service.ProjectService
	Activities *service.ActivityService
	Stats      *service.StatsService
	Admin      *admin.Service
}

// NewServices wires the services. rdb may be nil, in which case stats are
// always read from the store.
func NewServices(store repository.Store, rdb *redis.Client, cfg config.RedisConfig, log *logger.Logger) *Services {
	s := &Services{
		Store:      store,
		Redis:      rdb,
		Registry:   identity.NewRegistry(store, log, identity.ProfileProvisioner{}),
		Profiles:   service.NewProfileService(store, log),
		Projects:   service.NewProjectService(store, log),
		Activities: service.NewActivityService(store, log),
		Stats:      service.NewStatsService(store, log),
		Admin:      admin.NewService(store, log),
	}
	if rdb != nil {
		statsCache := cache.NewStatsCache(rdb, cfg.StatsTTL)
		s.Projects.WithStatsCache(statsCache)
		s.Stats.WithCache(statsCache)
		s.Admin.WithStatsCache(statsCache)
	}
	return s
}
