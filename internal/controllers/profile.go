package controllers

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/dmitrijs2005/carfinder/internal/repositories/auth"
	"github.com/dmitrijs2005/carfinder/internal/repositories/profile"
	"github.com/dmitrijs2005/carfinder/internal/viewstate"
)

const (
	MsgUpdateFailed = "Update failed"
	MsgUploadFailed = "Image upload failed"
)

// ProfileState is the profile screen snapshot.
type ProfileState struct {
	Phase     viewstate.Phase
	User      *models.User
	Profile   models.Profile
	Err       string
	Updated   bool
	LoggedOut bool
}

type ProfileController struct {
	profiles profile.Repository
	users    auth.Repository
	log      logging.Logger
	state    *viewstate.Store[ProfileState]
}

func NewProfileController(profiles profile.Repository, users auth.Repository, log logging.Logger) *ProfileController {
	if log == nil {
		log = logging.Nop()
	}
	return &ProfileController{
		profiles: profiles,
		users:    users,
		log:      log,
		state:    viewstate.New(ProfileState{}),
	}
}

func (c *ProfileController) State() *viewstate.Store[ProfileState] { return c.state }

// current reads the session view. Malformed metadata still yields a usable
// profile and is only logged.
func (c *ProfileController) current(ctx context.Context) (*models.User, models.Profile) {
	p, err := c.profiles.Current()
	switch {
	case errors.Is(err, profile.ErrNotLoggedIn):
		return nil, models.Profile{}
	case err != nil:
		c.log.Warn(ctx, "profile metadata", "error", err)
	}
	return c.users.CurrentUser(), p
}

// Load refreshes the snapshot from the current session without I/O.
func (c *ProfileController) Load(ctx context.Context) {
	u, p := c.current(ctx)
	c.state.Update(func(s ProfileState) ProfileState {
		s.User = u
		s.Profile = p
		s.LoggedOut = u == nil
		return s
	})
}

func (c *ProfileController) run(ctx context.Context, op, fallback string, call func(context.Context) error) {
	c.state.Update(func(s ProfileState) ProfileState {
		s.Phase = viewstate.Loading
		s.Err = ""
		s.Updated = false
		return s
	})

	if err := call(ctx); err != nil {
		c.log.Warn(ctx, op+" failed", "error", err)
		msg := err.Error()
		if msg == "" {
			msg = fallback
		}
		c.state.Update(func(s ProfileState) ProfileState {
			s.Phase = viewstate.Error
			s.Err = msg
			return s
		})
		return
	}

	u, p := c.current(ctx)
	c.state.Update(func(s ProfileState) ProfileState {
		s.Phase = viewstate.Success
		s.Updated = true
		s.User = u
		s.Profile = p
		return s
	})
}

func (c *ProfileController) UpdateProfile(ctx context.Context, fullName, phone string) {
	c.run(ctx, "update profile", MsgUpdateFailed, func(ctx context.Context) error {
		return c.profiles.UpdateProfile(ctx, fullName, phone)
	})
}

func (c *ProfileController) UploadAvatar(ctx context.Context, src []byte) {
	c.run(ctx, "upload avatar", MsgUploadFailed, func(ctx context.Context) error {
		_, err := c.profiles.UploadAvatar(ctx, src)
		return err
	})
}

// SignOut ends with LoggedOut set even when the remote call fails.
func (c *ProfileController) SignOut(ctx context.Context) {
	c.state.Update(func(s ProfileState) ProfileState {
		s.Phase = viewstate.Loading
		s.Err = ""
		return s
	})
	if err := c.users.SignOut(ctx); err != nil {
		c.log.Warn(ctx, "remote sign out failed", "error", err)
	}
	c.state.Set(ProfileState{Phase: viewstate.Success, LoggedOut: true})
}

func (c *ProfileController) Reset() {
	c.state.Update(func(s ProfileState) ProfileState {
		s.Phase = viewstate.Idle
		s.Err = ""
		s.Updated = false
		return s
	})
}
