package rest

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/models"
)

const (
	pathSignUp = "/auth/v1/signup"
	pathToken  = "/auth/v1/token"
	pathUser   = "/auth/v1/user"
	pathLogout = "/auth/v1/logout"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the session payload. A sign-up that still needs e-mail
// confirmation returns only the user fields at the top level.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *models.User `json:"user"`

	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) sessionFrom(tr tokenResponse) *models.Session {
	s := &models.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	switch {
	case tr.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(tr.ExpiresAt, 0).UTC()
	case tr.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
	}
	if tr.User != nil {
		s.User = *tr.User
	}
	if s.User.Metadata == nil {
		s.User.Metadata = map[string]any{}
	}
	return s
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     pathSignUp,
		jsonBody: credentials{Email: email, Password: password},
	}, &tr)
	if err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		c.log.Info(ctx, "account created, confirmation pending", "email", email)
		return nil, gateway.ErrConfirmationPending
	}

	s := c.sessionFrom(tr)
	c.setSession(ctx, s)
	return s, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     pathToken,
		query:    url.Values{"grant_type": {"password"}},
		jsonBody: credentials{Email: email, Password: password},
	}, &tr)
	if err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, &gateway.RemoteError{Status: http.StatusOK, Message: "sign-in response carried no session"}
	}

	s := c.sessionFrom(tr)
	c.setSession(ctx, s)
	return s, nil
}

// SignOut revokes the session remotely and always forgets it locally.
func (c *Client) SignOut(ctx context.Context) error {
	s := c.sess.Load()
	if s == nil {
		c.setSession(ctx, nil)
		return nil
	}

	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pathLogout,
		bearer: s.AccessToken,
	}, nil)
	c.setSession(ctx, nil)
	if err != nil {
		c.log.Warn(ctx, "remote sign-out failed", "error", err)
	}
	return err
}

func (c *Client) UpdateUserMetadata(ctx context.Context, patch map[string]any) error {
	if c.sess.Load() == nil {
		return gateway.ErrUnauthenticated
	}
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     pathUser,
		jsonBody: map[string]any{"data": patch},
		authed:   true,
	}, nil)
}

// RefreshSession exchanges the refresh token for a new session. Concurrent
// callers share one round trip.
func (c *Client) RefreshSession(ctx context.Context) (*models.Session, error) {
	if c.sess.Load() == nil {
		return nil, gateway.ErrUnauthenticated
	}

	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		cur := c.sess.Load()
		if cur == nil {
			return nil, gateway.ErrUnauthenticated
		}
		var tr tokenResponse
		err := c.do(ctx, request{
			method:   http.MethodPost,
			path:     pathToken,
			query:    url.Values{"grant_type": {"refresh_token"}},
			jsonBody: map[string]string{"refresh_token": cur.RefreshToken},
		}, &tr)
		if err != nil {
			return nil, err
		}
		s := c.sessionFrom(tr)
		c.setSession(ctx, s)
		c.log.Debug(ctx, "session refreshed", "user_id", s.User.ID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Session), nil
}

// freshSession returns the current session, refreshing it first when the
// access token has expired.
func (c *Client) freshSession(ctx context.Context) (*models.Session, error) {
	s := c.sess.Load()
	if s == nil || !s.Expired(c.now()) {
		return s, nil
	}
	return c.RefreshSession(ctx)
}
