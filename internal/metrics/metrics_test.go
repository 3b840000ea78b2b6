package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordSignup(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignup("created")
	c.RecordSignup("created")
	c.RecordSignup("postal_code_not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.signups.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.signups.WithLabelValues("postal_code_not_found")))
}

func TestCollector_RecordPostalLookup(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPostalLookup("ok", 120*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.postalLookups.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.postalLatency))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(http.MethodPost, "/api/users", http.StatusCreated)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `cepusers_http_responses_total{method="POST",route="/api/users",status_code="201"} 1`)
}
