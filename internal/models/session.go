package models

import (
	"errors"
	"fmt"
	"time"
)

// Metadata keys used for the profile projection.
const (
	MetaFullName  = "full_name"
	MetaPhone     = "phone"
	MetaAvatarURL = "avatar_url"
)

var ErrMalformedMetadata = errors.New("malformed user metadata")

// User is the authenticated identity as reported by the backend.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// Session is the authenticated state held by a gateway. Values are replaced
// as a whole on sign-in, refresh and sign-out and never modified afterwards.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry. A zero
// ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Profile is the typed view over session metadata.
type Profile struct {
	FullName  string
	Phone     string
	AvatarURL *string
}

// ProfileFromMetadata projects md into a Profile. Absent or null keys default
// to empty values. A key holding a non-string value also defaults, and the
// returned error (ErrMalformedMetadata) names every offending key; the
// profile is still usable.
func ProfileFromMetadata(md map[string]any) (Profile, error) {
	var (
		p   Profile
		bad []string
	)

	text := func(key string) (string, bool) {
		v, ok := md[key]
		if !ok || v == nil {
			return "", false
		}
		s, ok := v.(string)
		if !ok {
			bad = append(bad, key)
			return "", false
		}
		return s, true
	}

	p.FullName, _ = text(MetaFullName)
	p.Phone, _ = text(MetaPhone)
	if url, ok := text(MetaAvatarURL); ok && url != "" {
		p.AvatarURL = &url
	}

	if len(bad) > 0 {
		return p, fmt.Errorf("%w: %v", ErrMalformedMetadata, bad)
	}
	return p, nil
}
