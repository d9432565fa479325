package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestNew_RegistersInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.NotificationsSent.WithLabelValues("inactivity").Inc()
	m.GrantsReleased.WithLabelValues("date").Add(2)
	m.OwnerFailures.Inc()
	m.SweepDuration.Observe(0.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("inactivity")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GrantsReleased.WithLabelValues("date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OwnerFailures))

	n, err := testutil.GatherAndCount(reg, "legacylink_sweep_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.OwnersProcessed.Inc()

	srv := httptest.NewServer(NewRouter(reg, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "legacylink_sweep_owners_processed_total 1")
}

func TestRouter_Healthz(t *testing.T) {
	reg := prometheus.NewRegistry()

	ok := httptest.NewRecorder()
	NewRouter(reg, pingerFunc(func(context.Context) error { return nil })).
		ServeHTTP(ok, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, ok.Code)

	down := httptest.NewRecorder()
	NewRouter(reg, pingerFunc(func(context.Context) error { return errors.New("down") })).
		ServeHTTP(down, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}
