package bootstrap

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/consultdesk/tracker-backend/config"
	httpapi "github.com/consultdesk/tracker-backend/internal/api/http"
	"github.com/consultdesk/tracker-backend/internal/api/http/middleware"
	"github.com/consultdesk/tracker-backend/internal/auth"
	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	trackerhttp "github.com/consultdesk/tracker-backend/internal/tracker/http"
)

type RouterDeps struct {
	Config   *config.Config
	Services *Services
	Verifier auth.Verifier
	Log      *logger.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	cfg := dep.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(dep.Log))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.App.ServiceName))
	}

	checks := []httpapi.Check{{Name: "store", Pinger: dep.Services.Store, Critical: true}}
	if rdb := dep.Services.Redis; rdb != nil {
		checks = append(checks, httpapi.Check{
			Name:   "cache",
			Pinger: httpapi.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		})
	}
	httpapi.NewHealthHandler(cfg.App.ServiceName, cfg.App.Version, checks...).RegisterRoutes(r)

	api := r.Group("/api/v1")
	tracker := trackerhttp.New(trackerhttp.Deps{
		Registry:   dep.Services.Registry,
		Profiles:   dep.Services.Profiles,
		Projects:   dep.Services.Projects,
		Activities: dep.Services.Activities,
		Stats:      dep.Services.Stats,
		Log:        dep.Log,
	})
	tracker.Register(api,
		auth.RequireIdentity(dep.Verifier),
		auth.WithActor(auth.NewStoreResolver(dep.Services.Store)),
	)

	return r
}
