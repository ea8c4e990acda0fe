package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe("POST /api/auth/login", 201, 30*time.Millisecond)
	m.Observe("POST /api/auth/login", 201, 10*time.Millisecond)
	m.Observe("POST /api/auth/login", 403, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("POST /api/auth/login", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("POST /api/auth/login", "403")))
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.Forgery.WithLabelValues("GET /api/user/me/publicKeyArmored").Inc()
	m.RateLimited.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "gophagenda_forgery_attempts_total")
	assert.Contains(t, body, "gophagenda_rate_limited_total 1")
}
