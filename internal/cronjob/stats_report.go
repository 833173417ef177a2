package cronjob

import (
	"context"

	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

// ReporterID is the actor id the report runs under. It is not a profile.
const ReporterID = "system:stats-report"

type StatsReader interface {
	GetProjectStats(ctx context.Context, actorID string, isManager bool) (domain.ProjectStats, error)
}

// StatsReport returns a job that logs the organisation-wide project counts.
func StatsReport(stats StatsReader, log *logger.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		s, err := stats.GetProjectStats(ctx, ReporterID, true)
		if err != nil {
			return err
		}
		log.Info("project stats",
			"total", s.Total,
			"pending", s.Pending,
			"active", s.Active,
			"urgent", s.Urgent,
			"completed", s.Completed,
		)
		return nil
	}
}
