package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/consultdesk/tracker-backend/config"
	"github.com/consultdesk/tracker-backend/internal/bootstrap"
	"github.com/consultdesk/tracker-backend/internal/observability"
	"github.com/consultdesk/tracker-backend/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, log, cfg.App, cfg.Tracing)

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", "error", err)
	}
	defer closeStore()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, stats cache disabled", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("stats cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.StatsTTL)
	}

	verifier, err := bootstrap.NewVerifier(ctx, &cfg.Auth)
	if err != nil {
		log.Fatal("failed to init auth", "mode", cfg.Auth.Mode, "error", err)
	}

	services := bootstrap.NewServices(store, rdb, cfg.Redis, log)
	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config:   cfg,
		Services: services,
		Verifier: verifier,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", srv.Addr, "auth", cfg.Auth.Mode, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown", "error", err)
	}
}
