// Package rest implements gateway.Gateway against a hosted backend-as-a-service
// speaking the PostgREST, GoTrue and Storage HTTP APIs under one base URL.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/dmitrijs2005/carfinder/internal/session"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds a single HTTP round trip.
const DefaultTimeout = 30 * time.Second

var ErrMissingConfig = errors.New("base url and api key are required")

// Client talks to the hosted backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	store      session.Store
	log        logging.Logger
	now        func() time.Time

	sess    atomic.Pointer[models.Session]
	refresh singleflight.Group
}

var _ gateway.Gateway = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithSessionStore persists the session across runs.
func WithSessionStore(s session.Store) Option {
	return func(c *Client) {
		c.store = s
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New builds a client for baseURL authenticated with the project's public
// apiKey and restores the last saved session, if any.
func New(ctx context.Context, baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || apiKey == "" {
		return nil, ErrMissingConfig
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		store:   session.NewMemoryStore(),
		log:     logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	s, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn(ctx, "could not restore session", "error", err)
	} else if s != nil {
		c.sess.Store(s)
		c.log.Debug(ctx, "session restored", "user_id", s.User.ID)
	}
	return c, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) CurrentSession() *models.Session {
	return c.sess.Load()
}

// setSession replaces the session and persists it. Persistence failures are
// logged only; the in-memory session stays authoritative.
func (c *Client) setSession(ctx context.Context, s *models.Session) {
	c.sess.Store(s)
	var err error
	if s == nil {
		err = c.store.Clear(ctx)
	} else {
		err = c.store.Save(ctx, s)
	}
	if err != nil {
		c.log.Warn(ctx, "could not persist session", "error", err)
	}
}

// Close releases idle connections. The client stays usable.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
