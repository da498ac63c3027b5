// Package metrics instruments the backend gateway with Prometheus counters
// and latency histograms.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK              = "ok"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeNetwork         = "network"
	OutcomeRemote          = "remote"
	OutcomeError           = "error"
)

// Classify maps an operation error to an outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, gateway.ErrUnauthenticated):
		return OutcomeUnauthenticated
	}
	if re, ok := gateway.IsRemote(err); ok {
		if re.Code == gateway.CodeNetwork {
			return OutcomeNetwork
		}
		return OutcomeRemote
	}
	return OutcomeError
}

// Gateway wraps another gateway.Gateway and records every call.
type Gateway struct {
	next     gateway.Gateway
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ gateway.Gateway = (*Gateway)(nil)

// Instrument registers the collectors on registerer (the default registerer
// when nil) and returns the decorated gateway.
func Instrument(next gateway.Gateway, registerer prometheus.Registerer) (*Gateway, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	g := &Gateway{
		next: next,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carfinder",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Backend gateway calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carfinder",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Backend gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{g.requests, g.duration} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Handler serves the collected metrics of gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (g *Gateway) observe(op string, start time.Time, err error) {
	g.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	g.requests.WithLabelValues(op, Classify(err)).Inc()
}

func (g *Gateway) Select(ctx context.Context, table string, f gateway.Filter, dst any) error {
	start := time.Now()
	err := g.next.Select(ctx, table, f, dst)
	g.observe("select", start, err)
	return err
}

func (g *Gateway) Insert(ctx context.Context, table string, record map[string]any) error {
	start := time.Now()
	err := g.next.Insert(ctx, table, record)
	g.observe("insert", start, err)
	return err
}

func (g *Gateway) Upload(ctx context.Context, bucket, key string, data []byte, opts gateway.UploadOptions) error {
	start := time.Now()
	err := g.next.Upload(ctx, bucket, key, data, opts)
	g.observe("upload", start, err)
	return err
}

func (g *Gateway) Remove(ctx context.Context, bucket string, keys ...string) error {
	start := time.Now()
	err := g.next.Remove(ctx, bucket, keys...)
	g.observe("remove", start, err)
	return err
}

func (g *Gateway) PublicURL(bucket, key string) string {
	return g.next.PublicURL(bucket, key)
}

func (g *Gateway) CurrentSession() *models.Session {
	return g.next.CurrentSession()
}

func (g *Gateway) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	start := time.Now()
	s, err := g.next.SignUp(ctx, email, password)
	g.observe("sign_up", start, err)
	return s, err
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	start := time.Now()
	s, err := g.next.SignIn(ctx, email, password)
	g.observe("sign_in", start, err)
	return s, err
}

func (g *Gateway) SignOut(ctx context.Context) error {
	start := time.Now()
	err := g.next.SignOut(ctx)
	g.observe("sign_out", start, err)
	return err
}

func (g *Gateway) UpdateUserMetadata(ctx context.Context, patch map[string]any) error {
	start := time.Now()
	err := g.next.UpdateUserMetadata(ctx, patch)
	g.observe("update_user", start, err)
	return err
}

func (g *Gateway) RefreshSession(ctx context.Context) (*models.Session, error) {
	start := time.Now()
	s, err := g.next.RefreshSession(ctx)
	g.observe("refresh", start, err)
	return s, err
}

func (g *Gateway) Close() error {
	return g.next.Close()
}
