// Package controllers drives one screen each: it runs repository calls and
// publishes the outcome as snapshots on a viewstate.Store.
//
// Every operation publishes Loading first and then exactly one terminal
// snapshot (Success or Error). Terminal phases stay until Reset.
package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/dmitrijs2005/carfinder/internal/repositories/auth"
	"github.com/dmitrijs2005/carfinder/internal/viewstate"
)

// User-facing authentication messages.
const (
	MsgInvalidCredentials = "Invalid email or password."
	MsgAlreadyRegistered  = "Email already registered."
	MsgNetwork            = "Network error. Check connection."
	MsgAuthFailed         = "Authentication failed."
	MsgConfirmEmail       = "Account created. Check your e-mail to confirm it, then sign in."
)

// AuthErrorMessage maps a sign-up/sign-in failure to one of the canned
// messages by looking at the error text.
func AuthErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid"):
		return MsgInvalidCredentials
	case strings.Contains(msg, "registered"):
		return MsgAlreadyRegistered
	case strings.Contains(msg, "network"):
		return MsgNetwork
	}
	return MsgAuthFailed
}

// AuthState is the sign-in screen snapshot. Pending marks a successful
// sign-up that still awaits e-mail confirmation; no session exists yet.
type AuthState struct {
	Phase    viewstate.Phase
	User     *models.User
	SignedIn bool
	Pending  bool
	Err      string
}

type AuthController struct {
	repo  auth.Repository
	log   logging.Logger
	state *viewstate.Store[AuthState]
}

func NewAuthController(repo auth.Repository, log logging.Logger) *AuthController {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthController{
		repo:  repo,
		log:   log,
		state: viewstate.New(AuthState{}),
	}
}

func (c *AuthController) State() *viewstate.Store[AuthState] { return c.state }

// CheckSession picks up a session restored by the gateway. It does no I/O
// and leaves the phase alone.
func (c *AuthController) CheckSession() {
	u := c.repo.CurrentUser()
	c.state.Update(func(s AuthState) AuthState {
		s.User = u
		s.SignedIn = u != nil
		return s
	})
}

func (c *AuthController) loading() {
	c.state.Update(func(s AuthState) AuthState {
		s.Phase = viewstate.Loading
		s.Err = ""
		s.Pending = false
		return s
	})
}

func (c *AuthController) finish(ctx context.Context, op string, sess *models.Session, err error) {
	if errors.Is(err, gateway.ErrConfirmationPending) {
		c.log.Info(ctx, op+" awaits e-mail confirmation")
		c.state.Set(AuthState{Phase: viewstate.Success, Pending: true})
		return
	}
	if err != nil {
		c.log.Warn(ctx, op+" failed", "error", err)
		c.state.Update(func(s AuthState) AuthState {
			s.Phase = viewstate.Error
			s.Err = AuthErrorMessage(err)
			return s
		})
		return
	}
	u := sess.User
	c.state.Update(func(s AuthState) AuthState {
		s.Phase = viewstate.Success
		s.User = &u
		s.SignedIn = true
		return s
	})
}

func (c *AuthController) SignUp(ctx context.Context, email, password string) {
	c.loading()
	sess, err := c.repo.SignUp(ctx, email, password)
	c.finish(ctx, "sign up", sess, err)
}

func (c *AuthController) SignIn(ctx context.Context, email, password string) {
	c.loading()
	sess, err := c.repo.SignIn(ctx, email, password)
	c.finish(ctx, "sign in", sess, err)
}

// SignOut always ends signed out. A failed remote logout is only logged.
func (c *AuthController) SignOut(ctx context.Context) {
	c.loading()
	if err := c.repo.SignOut(ctx); err != nil {
		c.log.Warn(ctx, "remote sign out failed", "error", err)
	}
	c.state.Set(AuthState{Phase: viewstate.Success})
}

// Reset returns to Idle and clears the error.
func (c *AuthController) Reset() {
	c.state.Update(func(s AuthState) AuthState {
		s.Phase = viewstate.Idle
		s.Err = ""
		s.Pending = false
		return s
	})
}
