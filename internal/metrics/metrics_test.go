package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRun(ResultMatched, 200*time.Millisecond, 6, 120, 2)
	m.ObserveRun(ResultNoMatches, 10*time.Millisecond, 4, 80, 0)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsTotal.WithLabelValues(ResultMatched)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsTotal.WithLabelValues(ResultNoMatches)), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.PairsTotal), 0)
	assert.InDelta(t, 200, testutil.ToFloat64(m.ComparisonsTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.EvidenceTotal), 0)
}

func TestNew_NilRegistry(t *testing.T) {
	a := New(nil)
	b := New(nil)
	assert.NotNil(t, a.Handler())
	assert.NotNil(t, b.Handler())
}

func TestMiddleware(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rr.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418"))
	assert.InDelta(t, 2, got, 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.HTTPRequestsInFlight), 0)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
	assert.Contains(t, rr.Body.String(), "match_pairs_total")
}
