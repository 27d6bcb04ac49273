package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveQuery(OpSuggest, true, 0.1)
		m.ObserveIngest(true)
		m.ObserveBuild(false, 1)
		m.SetIndexSize(1, 2, 3)
		m.ObserveSuggestCacheHit()
		m.ObserveHTTP(http.MethodGet, "/suggest", http.StatusOK, 0.01)
	})
}

func TestObserveQuery(t *testing.T) {
	m := New()

	m.ObserveQuery(OpLookup, true, 0.001)
	m.ObserveQuery(OpLookup, false, 0.001)
	m.ObserveQuery(OpLookup, false, 0.001)
	m.ObserveQuery(OpDescribe, true, 0.001)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.QueriesTotal.WithLabelValues(OpLookup, "hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.QueriesTotal.WithLabelValues(OpLookup, "empty")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.QueriesTotal.WithLabelValues(OpDescribe, "hit")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.QueryLatency))
}

func TestObserveBuildAndIngest(t *testing.T) {
	m := New()

	m.ObserveIngest(true)
	m.ObserveIngest(true)
	m.ObserveIngest(false)
	m.ObserveBuild(true, 0.5)
	m.ObserveBuild(false, 0.1)
	m.SetIndexSize(10, 20, 30)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.EntitiesIngestedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EntitiesRejectedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(10), testutil.ToFloat64(m.IndexWords))
	assert.Equal(t, float64(20), testutil.ToFloat64(m.IndexTokens))
	assert.Equal(t, float64(30), testutil.ToFloat64(m.IndexPaths))
}

func TestObserveHTTP(t *testing.T) {
	m := New()

	m.ObserveHTTP(http.MethodGet, "/suggest", http.StatusOK, 0.002)
	m.ObserveHTTP(http.MethodGet, "/suggest", http.StatusOK, 0.003)
	m.ObserveHTTP(http.MethodGet, "/describe", http.StatusNotFound, 0.001)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/suggest", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/describe", "404")))
}

func TestHandlerServesPrivateRegistry(t *testing.T) {
	m := New()
	m.ObserveSuggestCacheHit()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docsearch_suggest_cache_hits_total 1")
	assert.Contains(t, string(body), "go_goroutines")

	// Collectors of one instance never leak into another
	other := New()
	assert.Equal(t, float64(0), testutil.ToFloat64(other.SuggestCacheHitsTotal))
}
