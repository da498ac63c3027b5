package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/gateway/gatewaytest"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeOK, Classify(nil))
	assert.Equal(t, OutcomeUnauthenticated, Classify(gateway.ErrUnauthenticated))
	assert.Equal(t, OutcomeNetwork, Classify(gateway.NetworkError(errors.New("refused"))))
	assert.Equal(t, OutcomeRemote, Classify(&gateway.RemoteError{Status: 400, Code: "invalid_credentials"}))
	assert.Equal(t, OutcomeError, Classify(errors.New("boom")))
}

func TestGateway_CountsByOpAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	fake := gatewaytest.New()
	g, err := Instrument(fake, reg)
	require.NoError(t, err)
	ctx := context.Background()

	var cars []models.Car
	require.NoError(t, g.Select(ctx, "cars", nil, &cars))
	require.NoError(t, g.Select(ctx, "cars", nil, &cars))
	_, err = g.SignIn(ctx, "nobody@b.c", "pw")
	require.Error(t, err)
	_, err = g.SignUp(ctx, "a@b.c", "secret1")
	require.NoError(t, err)
	require.NoError(t, g.Insert(ctx, "cars", map[string]any{"make": "VW"}))

	assert.Equal(t, float64(2), testutil.ToFloat64(g.requests.WithLabelValues("select", OutcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(g.requests.WithLabelValues("sign_in", OutcomeRemote)))
	assert.Equal(t, float64(1), testutil.ToFloat64(g.requests.WithLabelValues("sign_up", OutcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(g.requests.WithLabelValues("insert", OutcomeOK)))
	assert.Equal(t, 4, testutil.CollectAndCount(g.duration))

	// pass-through calls are not measured
	assert.Equal(t, fake.PublicURL("b", "k"), g.PublicURL("b", "k"))
	assert.Same(t, fake.CurrentSession(), g.CurrentSession())
	assert.Equal(t, 4, fake.CountCalls("select")+fake.CountCalls("signin")+fake.CountCalls("insert"))
}

func TestInstrument_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := Instrument(gatewaytest.New(), reg)
	require.NoError(t, err)
	_, err = Instrument(gatewaytest.New(), reg)
	require.Error(t, err)
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g, err := Instrument(gatewaytest.New(), reg)
	require.NoError(t, err)
	require.NoError(t, g.SignOut(context.Background()))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `carfinder_gateway_requests_total{op="sign_out",outcome="ok"} 1`)
}
