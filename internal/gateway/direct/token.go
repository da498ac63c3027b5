package direct

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds.
const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// RefreshTokenValidity is the lifetime of refresh tokens.
const RefreshTokenValidity = 30 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims are the registered claims plus the user id and token kind.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Kind   string `json:"kind"`
}

// newTokenID returns 16 random bytes hex encoded.
func newTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateToken signs an HS256 token for userID valid for validity from now.
// Every token carries a random jti, so two tokens issued within the same
// second still differ.
func GenerateToken(userID, kind string, secretKey []byte, now time.Time, validity time.Duration) (string, time.Time, error) {
	id, err := newTokenID()
	if err != nil {
		return "", time.Time{}, err
	}

	exp := now.Add(validity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
		Kind:   kind,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, exp, nil
}

// GetUserIDFromToken validates tokenString as a token of the given kind at
// time now and returns its user id.
func GetUserIDFromToken(tokenString, kind string, secretKey []byte, now time.Time) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}

	if !token.Valid || claims.Kind != kind || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
