// Package profile edits the signed-in user's profile stored in session metadata.
package profile

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/imaging"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/models"
)

const AvatarBucket = "avatars"

var ErrNotLoggedIn = fmt.Errorf("%w: not logged in", gateway.ErrUnauthenticated)

// Repository reads and writes the profile projection.
//
// Metadata patches are only visible through the session after a refresh, so
// every mutating call refreshes unconditionally once the patch succeeded.
type Repository interface {
	// Current projects the metadata of the active session. Without a session
	// it returns a zero Profile and ErrNotLoggedIn.
	Current() (models.Profile, error)
	UpdateProfile(ctx context.Context, fullName, phone string) error
	// UploadAvatar stores the avatar under a per-user key and returns its URL
	// with a cache-busting parameter.
	UploadAvatar(ctx context.Context, src []byte) (string, error)
}

type repository struct {
	gw  gateway.Gateway
	log logging.Logger
	now func() time.Time
}

type Option func(*repository)

func WithLogger(l logging.Logger) Option {
	return func(r *repository) { r.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *repository) { r.now = now }
}

func NewRepository(gw gateway.Gateway, opts ...Option) Repository {
	r := &repository{gw: gw, log: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AvatarKey is the object key of the avatar of userID.
func AvatarKey(userID string) string {
	return "avatars/" + userID + ".jpg"
}

func (r *repository) Current() (models.Profile, error) {
	s := r.gw.CurrentSession()
	if s == nil {
		return models.Profile{}, ErrNotLoggedIn
	}
	return models.ProfileFromMetadata(s.User.Metadata)
}

func (r *repository) patchAndRefresh(ctx context.Context, patch map[string]any) error {
	if err := r.gw.UpdateUserMetadata(ctx, patch); err != nil {
		return err
	}
	if _, err := r.gw.RefreshSession(ctx); err != nil {
		r.log.Warn(ctx, "session refresh after metadata update failed", "error", err)
		return err
	}
	return nil
}

func (r *repository) UpdateProfile(ctx context.Context, fullName, phone string) error {
	if r.gw.CurrentSession() == nil {
		return ErrNotLoggedIn
	}
	return r.patchAndRefresh(ctx, map[string]any{
		models.MetaFullName: fullName,
		models.MetaPhone:    phone,
	})
}

func (r *repository) UploadAvatar(ctx context.Context, src []byte) (string, error) {
	s := r.gw.CurrentSession()
	if s == nil {
		return "", ErrNotLoggedIn
	}

	jpg, err := imaging.Compress(src, imaging.AvatarMaxSide, imaging.AvatarMaxSide, imaging.DefaultQuality)
	if err != nil {
		return "", err
	}

	key := AvatarKey(s.User.ID)
	err = r.gw.Upload(ctx, AvatarBucket, key, jpg, gateway.UploadOptions{ContentType: "image/jpeg", Upsert: true})
	if err != nil {
		return "", err
	}

	url := r.gw.PublicURL(AvatarBucket, key) + "?t=" + strconv.FormatInt(r.now().UnixMilli(), 10)
	if err := r.patchAndRefresh(ctx, map[string]any{models.MetaAvatarURL: url}); err != nil {
		return "", err
	}
	r.log.Info(ctx, "avatar updated", "user_id", s.User.ID)
	return url, nil
}
