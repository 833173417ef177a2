package bootstrap

import (
	"context"
	"fmt"

	"github.com/consultdesk/tracker-backend/config"
	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/storage/memstore"
	"github.com/consultdesk/tracker-backend/internal/storage/postgres"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

// OpenStore opens the configured store. The returned close func is never nil.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	case "postgres":
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, func() {}, err
		}
		log.Info("connected to postgres", "driver", cfg.Database.Driver, "host", cfg.Database.Host)
		return postgres.NewStore(db), func() { _ = db.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
