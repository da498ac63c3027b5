// Package cars translates lost/found report operations into gateway calls.
package cars

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/imaging"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/google/uuid"
)

const (
	Table       = "cars"
	ImageBucket = "car-images"
)

// SearchColumns are matched by Search.
var SearchColumns = []string{"make", "model", "license_plate", "color", "chassis_number"}

var ErrForeignURL = errors.New("url does not point into the car image bucket")

// Repository is the car report store as seen by controllers.
//
// Contract:
//   - ListAll / ListByStatus / Search: row order is whatever the backend returns.
//   - Search does not special-case blank input.
//   - UploadImage never overwrites an existing object.
//   - Add requires a session and fails with gateway.ErrUnauthenticated
//     before any network call otherwise.
type Repository interface {
	ListAll(ctx context.Context) ([]models.Car, error)
	ListByStatus(ctx context.Context, status models.CarStatus) ([]models.Car, error)
	Search(ctx context.Context, query string) ([]models.Car, error)
	UploadImage(ctx context.Context, src []byte) (string, error)
	DiscardImage(ctx context.Context, publicURL string) error
	Add(ctx context.Context, car models.Car) error
}

type repository struct {
	gw     gateway.Gateway
	log    logging.Logger
	now    func() time.Time
	newKey func() string
}

// Option configures the repository.
type Option func(*repository)

func WithLogger(l logging.Logger) Option {
	return func(r *repository) { r.log = l }
}

// WithClock replaces time.Now for created_at.
func WithClock(now func() time.Time) Option {
	return func(r *repository) { r.now = now }
}

// WithKeyGenerator replaces the random object key generator.
func WithKeyGenerator(f func() string) Option {
	return func(r *repository) { r.newKey = f }
}

// NewRepository returns a Repository backed by gw.
func NewRepository(gw gateway.Gateway, opts ...Option) Repository {
	r := &repository{
		gw:     gw,
		log:    logging.Nop(),
		now:    time.Now,
		newKey: func() string { return uuid.NewString() + ".jpg" },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *repository) list(ctx context.Context, f gateway.Filter) ([]models.Car, error) {
	cars := make([]models.Car, 0)
	if err := r.gw.Select(ctx, Table, f, &cars); err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Car, error) {
	return r.list(ctx, nil)
}

func (r *repository) ListByStatus(ctx context.Context, status models.CarStatus) ([]models.Car, error) {
	if !status.Valid() {
		return nil, models.ErrInvalidStatus
	}
	return r.list(ctx, gateway.Where(gateway.Eq("status", string(status))))
}

func (r *repository) Search(ctx context.Context, query string) ([]models.Car, error) {
	pattern := gateway.Contains(query)
	conds := make([]gateway.Condition, len(SearchColumns))
	for i, col := range SearchColumns {
		conds[i] = gateway.ILike(col, pattern)
	}
	return r.list(ctx, gateway.Where(gateway.Or(conds...)))
}

func (r *repository) UploadImage(ctx context.Context, src []byte) (string, error) {
	jpg, err := imaging.Compress(src, imaging.CarImageMaxSide, imaging.CarImageMaxSide, imaging.DefaultQuality)
	if err != nil {
		return "", err
	}

	key := r.newKey()
	err = r.gw.Upload(ctx, ImageBucket, key, jpg, gateway.UploadOptions{ContentType: "image/jpeg"})
	if err != nil {
		return "", err
	}
	r.log.Debug(ctx, "car image uploaded", "key", key, "bytes", len(jpg))
	return r.gw.PublicURL(ImageBucket, key), nil
}

// DiscardImage removes an image previously returned by UploadImage.
func (r *repository) DiscardImage(ctx context.Context, publicURL string) error {
	prefix := r.gw.PublicURL(ImageBucket, "")
	if prefix == "" || !strings.HasPrefix(publicURL, prefix) {
		return fmt.Errorf("%w: %s", ErrForeignURL, publicURL)
	}
	key, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || key == "" {
		return fmt.Errorf("%w: %s", ErrForeignURL, publicURL)
	}
	return r.gw.Remove(ctx, ImageBucket, key)
}

func (r *repository) Add(ctx context.Context, car models.Car) error {
	s := r.gw.CurrentSession()
	if s == nil {
		return gateway.ErrUnauthenticated
	}
	if err := car.Validate(); err != nil {
		return err
	}

	if err := r.gw.Insert(ctx, Table, car.InsertRecord(s.User.ID, r.now())); err != nil {
		return err
	}
	r.log.Info(ctx, "car reported", "status", car.Status, "make", car.Make, "user_id", s.User.ID)
	return nil
}
