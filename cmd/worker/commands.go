package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/consultdesk/tracker-backend/internal/auth"
	"github.com/consultdesk/tracker-backend/internal/cronjob"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

func parseFlags(name string, args []string, define func(fs *pflag.FlagSet)) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	define(fs)
	return fs.Parse(args)
}

func runStatsReport(ctx context.Context, w *worker, args []string) error {
	var schedule string
	var once bool
	var timeout time.Duration
	err := parseFlags("stats-report", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&schedule, "schedule", w.cfg.Worker.StatsSchedule, "cron spec with a seconds field")
		fs.BoolVar(&once, "once", false, "report once and exit")
		fs.DurationVar(&timeout, "timeout", 30*time.Second, "per-run timeout")
	})
	if err != nil {
		return err
	}

	job := cronjob.StatsReport(w.services.Stats, w.log)
	if once {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return job(rctx)
	}

	s := cronjob.NewScheduler(w.log)
	if err := s.Add("stats-report", schedule, timeout, job); err != nil {
		return err
	}
	s.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.Stop(stopCtx)
	return nil
}

func runRegister(ctx context.Context, w *worker, args []string) error {
	var id, email, name string
	err := parseFlags("register", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&id, "id", "", "identity id (required)")
		fs.StringVar(&email, "email", "", "email address (required)")
		fs.StringVar(&name, "name", "", "display name")
	})
	if err != nil {
		return err
	}

	in := domain.NewIdentity{ID: id, Email: email}
	if strings.TrimSpace(name) != "" {
		in.DisplayName = &name
	}
	identity, err := w.services.Registry.Register(ctx, in)
	if err != nil {
		return err
	}
	w.log.Info("identity registered", "id", identity.ID, "email", identity.Email)
	return nil
}

func runSetRole(ctx context.Context, w *worker, args []string) error {
	var id, role string
	err := parseFlags("set-role", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&id, "id", "", "profile id (required)")
		fs.StringVar(&role, "role", "", "manager or consultant (required)")
	})
	if err != nil {
		return err
	}
	if id == "" {
		return errors.New("--id is required")
	}

	previous, err := w.services.Admin.SetRole(ctx, id, domain.Role(role))
	if err != nil {
		return err
	}
	w.log.Info("role updated", "id", id, "from", previous, "to", role)
	return nil
}

func runDeleteProfile(ctx context.Context, w *worker, args []string) error {
	var id string
	err := parseFlags("delete-profile", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&id, "id", "", "profile id (required)")
	})
	if err != nil {
		return err
	}
	if id == "" {
		return errors.New("--id is required")
	}

	if err := w.services.Admin.DeleteProfile(ctx, id); err != nil {
		return err
	}
	w.log.Info("profile deleted", "id", id)
	return nil
}

func runIssueToken(_ context.Context, w *worker, args []string) error {
	var id, email, name string
	var ttl time.Duration
	err := parseFlags("issue-token", args, func(fs *pflag.FlagSet) {
		fs.StringVar(&id, "id", "", "subject (required)")
		fs.StringVar(&email, "email", "", "email claim")
		fs.StringVar(&name, "name", "", "name claim")
		fs.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	})
	if err != nil {
		return err
	}
	if !strings.EqualFold(w.cfg.Auth.Mode, "jwt") {
		return fmt.Errorf("issue-token needs AUTH_MODE=jwt, got %q", w.cfg.Auth.Mode)
	}
	if id == "" {
		return errors.New("--id is required")
	}

	token, err := auth.NewJWTVerifier(w.cfg.Auth.JWTSecret, w.cfg.Auth.JWTIssuer).
		Issue(auth.Claims{UID: id, Email: email, Name: name}, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
