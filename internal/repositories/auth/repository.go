// Package auth exposes sign-up, sign-in and sign-out on top of the gateway.
package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/models"
)

// Repository is a thin view of the gateway session. Gateway errors are
// returned unchanged.
type Repository interface {
	IsLoggedIn() bool
	// CurrentUser returns nil when anonymous.
	CurrentUser() *models.User
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
}

type repository struct {
	gw  gateway.Gateway
	log logging.Logger
}

func NewRepository(gw gateway.Gateway, log logging.Logger) Repository {
	if log == nil {
		log = logging.Nop()
	}
	return &repository{gw: gw, log: log}
}

func (r *repository) IsLoggedIn() bool {
	return r.gw.CurrentSession() != nil
}

func (r *repository) CurrentUser() *models.User {
	s := r.gw.CurrentSession()
	if s == nil {
		return nil
	}
	u := s.User
	return &u
}

func (r *repository) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	s, err := r.gw.SignUp(ctx, email, password)
	if errors.Is(err, gateway.ErrConfirmationPending) {
		r.log.Info(ctx, "signed up, confirmation pending", "email", email)
		return nil, err
	}
	if err != nil {
		r.log.Warn(ctx, "sign up failed", "email", email, "error", err)
		return nil, err
	}
	r.log.Info(ctx, "signed up", "user_id", s.User.ID)
	return s, nil
}

func (r *repository) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	s, err := r.gw.SignIn(ctx, email, password)
	if err != nil {
		r.log.Warn(ctx, "sign in failed", "email", email, "error", err)
		return nil, err
	}
	r.log.Info(ctx, "signed in", "user_id", s.User.ID)
	return s, nil
}

func (r *repository) SignOut(ctx context.Context) error {
	return r.gw.SignOut(ctx)
}
