// Package direct implements gateway.Gateway against infrastructure the
// operator runs: PostgreSQL for tables and accounts, an S3-compatible store
// for objects and locally signed HS256 tokens for sessions.
package direct

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/gateway/direct/migrations"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/dmitrijs2005/carfinder/internal/session"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DefaultAccessTokenValidity is used when Config leaves it zero.
const DefaultAccessTokenValidity = time.Hour

var ErrMissingSecret = errors.New("secret key is required")

// Config carries everything Open needs.
type Config struct {
	DatabaseDSN string
	SecretKey   string
	// AccessTokenValidity defaults to DefaultAccessTokenValidity.
	AccessTokenValidity time.Duration
	S3                  S3Config
	// PublicBaseURL prefixes public object URLs: {PublicBaseURL}/{bucket}/{key}.
	PublicBaseURL string
}

// Gateway is the self-hosted backend. It is safe for concurrent use.
type Gateway struct {
	db         *sql.DB
	objects    ObjectStore
	secret     []byte
	tokenTTL   time.Duration
	publicBase string
	store      session.Store
	log        logging.Logger
	now        func() time.Time

	sess atomic.Pointer[models.Session]
}

var _ gateway.Gateway = (*Gateway)(nil)

// Option configures the gateway.
type Option func(*Gateway)

func WithSessionStore(s session.Store) Option {
	return func(g *Gateway) { g.store = s }
}

func WithLogger(l logging.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithClock replaces time.Now for token issue and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations creates or upgrades the cars and users tables.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// Open connects to the database and the object store, applies migrations
// and restores the saved session.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Gateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecret
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	objects, err := NewS3Store(ctx, cfg.S3)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}

	return New(ctx, db, objects, cfg, opts...)
}

// New builds a gateway over an already migrated db and an object store.
// The gateway owns db and closes it in Close.
func New(ctx context.Context, db *sql.DB, objects ObjectStore, cfg Config, opts ...Option) (*Gateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecret
	}
	g := &Gateway{
		db:         db,
		objects:    objects,
		secret:     []byte(cfg.SecretKey),
		tokenTTL:   cfg.AccessTokenValidity,
		publicBase: cfg.PublicBaseURL,
		store:      session.NewMemoryStore(),
		log:        logging.Nop(),
		now:        time.Now,
	}
	if g.tokenTTL <= 0 {
		g.tokenTTL = DefaultAccessTokenValidity
	}
	for _, opt := range opts {
		opt(g)
	}

	s, err := g.store.Load(ctx)
	if err != nil {
		g.log.Warn(ctx, "could not restore session", "error", err)
	} else if s != nil {
		g.sess.Store(s)
	}
	return g, nil
}

func (g *Gateway) CurrentSession() *models.Session {
	return g.sess.Load()
}

func (g *Gateway) setSession(ctx context.Context, s *models.Session) {
	g.sess.Store(s)
	var err error
	if s == nil {
		err = g.store.Clear(ctx)
	} else {
		err = g.store.Save(ctx, s)
	}
	if err != nil {
		g.log.Warn(ctx, "could not persist session", "error", err)
	}
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

// dbError maps a database failure to a RemoteError.
func dbError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &gateway.RemoteError{Status: http.StatusBadRequest, Code: pgErr.Code, Message: pgErr.Message, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return gateway.NetworkError(err)
	}
	return &gateway.RemoteError{Status: http.StatusInternalServerError, Code: "db_error", Message: err.Error(), Err: err}
}
