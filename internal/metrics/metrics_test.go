package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveJob(t *testing.T) {
	m := New()
	m.ObserveJob("expirar_cotizaciones", 3, nil)
	m.ObserveJob("expirar_cotizaciones", 0, errors.New("db down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("expirar_cotizaciones", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("expirar_cotizaciones", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.JobAffected.WithLabelValues("expirar_cotizaciones")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveJob("x", 1, nil)
		m.ObservePublish("reserva.creada", nil)
		m.ObserveCache("hit")
		m.ObserveRateLimited("auth")
	})
}

func TestHandlerServesCollectors(t *testing.T) {
	m := New()
	m.ObservePublish("reserva.creada", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `salon_events_published_total{queue="reserva.creada",result="ok"} 1`))
}

func TestObserveCacheAndRateLimit(t *testing.T) {
	m := New()
	m.ObserveCache("hit")
	m.ObserveCache("hit")
	m.ObserveCache("miss")
	m.ObserveRateLimited("auth")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("auth")))
}
