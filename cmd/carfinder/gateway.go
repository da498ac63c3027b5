package main

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/carfinder/internal/config"
	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/gateway/direct"
	"github.com/dmitrijs2005/carfinder/internal/gateway/rest"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/session"
)

// Seams for tests.
var (
	openREST = func(ctx context.Context, cfg *config.Config, store session.Store, log logging.Logger) (gateway.Gateway, error) {
		return rest.New(ctx, cfg.BaseURL, cfg.AnonKey,
			rest.WithTimeout(cfg.RequestTimeout),
			rest.WithSessionStore(store),
			rest.WithLogger(log),
		)
	}

	openDirect = func(ctx context.Context, cfg *config.Config, store session.Store, log logging.Logger) (gateway.Gateway, error) {
		return direct.Open(ctx, direct.Config{
			DatabaseDSN:         cfg.DatabaseDSN,
			SecretKey:           cfg.SecretKey,
			AccessTokenValidity: cfg.AccessTokenValidityDuration,
			S3: direct.S3Config{
				Region:       cfg.S3Region,
				AccessKey:    cfg.S3RootUser,
				SecretKey:    cfg.S3RootPassword,
				BaseEndpoint: cfg.S3BaseEndpoint,
			},
			PublicBaseURL: cfg.S3PublicBaseURL,
		}, direct.WithSessionStore(store), direct.WithLogger(log))
	}
)

// openGateway builds the backend selected by cfg.Backend.
func openGateway(ctx context.Context, cfg *config.Config, store session.Store, log logging.Logger) (gateway.Gateway, error) {
	switch cfg.Backend {
	case config.BackendREST:
		return openREST(ctx, cfg, store, log)
	case config.BackendDirect:
		return openDirect(ctx, cfg, store, log)
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
