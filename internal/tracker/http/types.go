package http

import (
	"github.com/consultdesk/tracker-backend/internal/identity"
	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/service"
)

// Handler bundles the dependencies for the tracker HTTP endpoints.
type Handler struct {
	registry   *identity.Registry
	profiles   *service.ProfileService
	projects   *service.ProjectService
	activities *service.ActivityService
	stats      *service.StatsService
	log        *logger.Logger
}

type Deps struct {
	Registry   *identity.Registry
	Profiles   *service.ProfileService
	Projects   *service.ProjectService
	Activities *service.ActivityService
	Stats      *service.StatsService
	Log        *logger.Logger
}

func New(dep Deps) *Handler {
	return &Handler{
		registry:   dep.Registry,
		profiles:   dep.Profiles,
		projects:   dep.Projects,
		activities: dep.Activities,
		stats:      dep.Stats,
		log:        dep.Log.With("component", "tracker.http"),
	}
}
