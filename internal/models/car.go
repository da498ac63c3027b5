// Package models defines the domain types shared by the gateway, repositories
// and controllers: lost/found car reports, the authenticated session and the
// profile projection derived from session metadata.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/timex"
)

// CarStatus classifies a report.
type CarStatus string

const (
	CarStatusLost  CarStatus = "LOST"
	CarStatusFound CarStatus = "FOUND"
)

var (
	ErrInvalidStatus = errors.New("status must be LOST or FOUND")
	ErrMakeRequired  = errors.New("make is required")
	ErrModelRequired = errors.New("model is required")
)

// Valid reports whether s is one of the known statuses.
func (s CarStatus) Valid() bool {
	return s == CarStatusLost || s == CarStatusFound
}

// ParseCarStatus accepts "lost"/"found" in any letter case.
func ParseCarStatus(v string) (CarStatus, error) {
	s := CarStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

// Car is one lost/found report. ID and CreatedAt are assigned by the backend
// and stay zero until the row has been read back.
type Car struct {
	ID            int64            `json:"id,omitempty"`
	CreatedAt     *timex.Timestamp `json:"created_at,omitempty"`
	Make          string           `json:"make"`
	Model         string           `json:"model"`
	Year          *int             `json:"year"`
	Color         *string          `json:"color"`
	LicensePlate  *string          `json:"license_plate"`
	ChassisNumber *string          `json:"chassis_number"`
	Status        CarStatus        `json:"status"`
	Description   *string          `json:"description"`
	ContactInfo   *string          `json:"contact_info"`
	ImageURL      *string          `json:"image_url"`
	UserID        *string          `json:"user_id"`
}

// Validate checks the fields that must be present before submission.
func (c *Car) Validate() error {
	if strings.TrimSpace(c.Make) == "" {
		return ErrMakeRequired
	}
	if strings.TrimSpace(c.Model) == "" {
		return ErrModelRequired
	}
	if !c.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// InsertRecord builds the partial row sent on insert. It never carries id;
// owner and creation time come from the caller, not from the car itself.
func (c *Car) InsertRecord(ownerID string, now time.Time) map[string]any {
	return map[string]any{
		"make":           c.Make,
		"model":          c.Model,
		"year":           c.Year,
		"color":          c.Color,
		"license_plate":  c.LicensePlate,
		"chassis_number": c.ChassisNumber,
		"status":         string(c.Status),
		"description":    c.Description,
		"contact_info":   c.ContactInfo,
		"image_url":      c.ImageURL,
		"user_id":        ownerID,
		"created_at":     now.UTC().Format(time.RFC3339Nano),
	}
}

// StringPtr returns nil for blank input and a pointer to the trimmed value otherwise.
func StringPtr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
