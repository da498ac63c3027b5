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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/carfinder/internal/buildinfo"
	"github.com/dmitrijs2005/carfinder/internal/cli"
	"github.com/dmitrijs2005/carfinder/internal/config"
	"github.com/dmitrijs2005/carfinder/internal/controllers"
	"github.com/dmitrijs2005/carfinder/internal/filex"
	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/metrics"
	"github.com/dmitrijs2005/carfinder/internal/repositories/auth"
	"github.com/dmitrijs2005/carfinder/internal/repositories/cars"
	"github.com/dmitrijs2005/carfinder/internal/repositories/profile"
	"github.com/dmitrijs2005/carfinder/internal/session"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.LoadConfig()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewTextLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	if err := filex.EnsureParentDir(cfg.SessionDBPath); err != nil {
		return err
	}
	store, err := session.OpenSQLite(ctx, cfg.SessionDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	backend, err := openGateway(ctx, cfg, store, log)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	registry := prometheus.NewRegistry()
	instrumented, err := metrics.Instrument(backend, registry)
	if err != nil {
		_ = backend.Close()
		return err
	}
	gw := gateway.NewHandle(instrumented)
	defer gw.Close()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info(ctx, "metrics endpoint listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "metrics endpoint", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	users := auth.NewRepository(gw, log)
	app := cli.NewApp(
		controllers.NewAuthController(users, log),
		controllers.NewCarController(cars.NewRepository(gw, cars.WithLogger(log)), log),
		controllers.NewProfileController(profile.NewRepository(gw, profile.WithLogger(log)), users, log),
		cli.WithLogger(log),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Run(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Info(ctx, "interrupted")
	}
	return nil
}

func metricsMux(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	return mux
}
