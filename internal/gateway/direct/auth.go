package direct

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength mirrors the hosted backend's default policy.
const MinPasswordLength = 6

const pgUniqueViolation = "23505"

var (
	errUserExists = &gateway.RemoteError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	errBadLogin   = &gateway.RemoteError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	errNoUser     = &gateway.RemoteError{Status: http.StatusNotFound, Code: "user_not_found", Message: "User not found"}
	errWeakPass   = &gateway.RemoteError{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: fmt.Sprintf("Password should be at least %d characters.", MinPasswordLength)}
	errBadEmail   = &gateway.RemoteError{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Unable to validate email address: invalid format"}
)

type userRow struct {
	id       string
	email    string
	hash     string
	metadata []byte
}

func (r userRow) user() (models.User, error) {
	md := map[string]any{}
	if len(r.metadata) > 0 {
		if err := json.Unmarshal(r.metadata, &md); err != nil {
			return models.User{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return models.User{ID: r.id, Email: r.email, Metadata: md}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// issue signs a new token pair for u and installs it as the current session.
func (g *Gateway) issue(ctx context.Context, u models.User) (*models.Session, error) {
	now := g.now()
	access, exp, err := GenerateToken(u.ID, kindAccess, g.secret, now, g.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, _, err := GenerateToken(u.ID, kindRefresh, g.secret, now, RefreshTokenValidity)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	s := &models.Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp.UTC(), User: u}
	g.setSession(ctx, s)
	return s, nil
}

func (g *Gateway) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errBadEmail
	}
	if len(password) < MinPasswordLength {
		return nil, errWeakPass
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	_, err = g.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, metadata) VALUES ($1, $2, $3, '{}'::jsonb)`,
		id, email, string(hash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, errUserExists
		}
		return nil, dbError(err)
	}
	g.log.Info(ctx, "user registered", "user_id", id)

	return g.issue(ctx, models.User{ID: id, Email: email, Metadata: map[string]any{}})
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var r userRow
	err := g.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, metadata FROM users WHERE email = $1`,
		normalizeEmail(email)).Scan(&r.id, &r.email, &r.hash, &r.metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errBadLogin
	}
	if err != nil {
		return nil, dbError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(r.hash), []byte(password)) != nil {
		return nil, errBadLogin
	}

	u, err := r.user()
	if err != nil {
		return nil, err
	}
	return g.issue(ctx, u)
}

// SignOut forgets the session. Tokens are stateless, so there is nothing to
// revoke remotely.
func (g *Gateway) SignOut(ctx context.Context) error {
	g.setSession(ctx, nil)
	return nil
}

// authorize returns the signed-in user's id, refreshing an expired access
// token first.
func (g *Gateway) authorize(ctx context.Context) (string, error) {
	s := g.sess.Load()
	if s == nil {
		return "", gateway.ErrUnauthenticated
	}
	if s.Expired(g.now()) {
		var err error
		if s, err = g.RefreshSession(ctx); err != nil {
			return "", err
		}
	}
	uid, err := GetUserIDFromToken(s.AccessToken, kindAccess, g.secret, g.now())
	if err != nil {
		return "", errors.Join(gateway.ErrUnauthenticated, err)
	}
	return uid, nil
}

func (g *Gateway) UpdateUserMetadata(ctx context.Context, patch map[string]any) error {
	uid, err := g.authorize(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode metadata patch: %w", err)
	}

	res, err := g.db.ExecContext(ctx,
		`UPDATE users SET metadata = metadata || $1::jsonb WHERE id = $2`,
		string(raw), uid)
	if err != nil {
		return dbError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errNoUser
	}
	return nil
}

// RefreshSession re-reads the user row, so metadata changes become visible.
func (g *Gateway) RefreshSession(ctx context.Context) (*models.Session, error) {
	s := g.sess.Load()
	if s == nil {
		return nil, gateway.ErrUnauthenticated
	}
	uid, err := GetUserIDFromToken(s.RefreshToken, kindRefresh, g.secret, g.now())
	if err != nil {
		return nil, &gateway.RemoteError{Status: http.StatusBadRequest, Code: "invalid_grant", Message: "Invalid Refresh Token", Err: err}
	}

	var r userRow
	err = g.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, metadata FROM users WHERE id = $1`,
		uid).Scan(&r.id, &r.email, &r.hash, &r.metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNoUser
	}
	if err != nil {
		return nil, dbError(err)
	}

	u, err := r.user()
	if err != nil {
		return nil, err
	}
	return g.issue(ctx, u)
}
