package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"landreg/internal/platform/config"
	"landreg/internal/platform/httpserver"
	"landreg/internal/platform/logger"
	httptransport "landreg/internal/transport/http"
)

const shutdownGrace = 10 * time.Second

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close()

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		Validator:     app.tokens,
		AdminToken:    cfg.AdminToken,
		Timeouts:      cfg.Timeouts,
		Users:         app.users,
		Properties:    app.properties,
		Documents:     app.documents,
		Payments:      app.payments,
		Disputes:      app.disputes,
		Notifications: app.notifications,
		Admin:         app.admin,
	})
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting landreg server",
		"addr", cfg.Addr,
		"postgres", cfg.Postgres.DSN != "",
		"redis", cfg.Redis.URL != "",
		"kafka", len(cfg.Kafka.Brokers) > 0,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
