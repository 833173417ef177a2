package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/consultdesk/tracker-backend/config"
	"github.com/consultdesk/tracker-backend/internal/bootstrap"
	"github.com/consultdesk/tracker-backend/internal/platform/logger"
)

const usage = `usage: worker <command> [flags]

commands:
  stats-report    log project totals, once or on a cron schedule
  register        register an identity and provision its profile
  set-role        change a profile's role (manager or consultant)
  delete-profile  delete a profile and unassign its projects
  issue-token     mint a signed token for a user id (AUTH_MODE=jwt only)
`

type command func(ctx context.Context, env *worker, args []string) error

var commands = map[string]command{
	"stats-report":   runStatsReport,
	"register":       runRegister,
	"set-role":       runSetRole,
	"delete-profile": runDeleteProfile,
	"issue-token":    runIssueToken,
}

type worker struct {
	cfg      *config.Config
	log      *logger.Logger
	services *bootstrap.Services
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err := start(os.Args[1], run, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func start(name string, run command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log = log.With("command", name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, stats cache disabled", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	return run(ctx, &worker{
		cfg:      cfg,
		log:      log,
		services: bootstrap.NewServices(store, rdb, cfg.Redis, log),
	}, args)
}
