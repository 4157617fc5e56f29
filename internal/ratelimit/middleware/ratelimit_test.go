package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casecheck/internal/ratelimit/metrics"
	"casecheck/internal/ratelimit/models"
	"casecheck/internal/ratelimit/store/bucket"
	casetest "casecheck/pkg/testutil"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	return nil, errors.New("redis down")
}

func newMiddleware(store BucketStore, opts ...Option) *Middleware {
	limits := map[models.EndpointClass]models.Limit{
		models.ClassAPI:     {Requests: 2, Window: time.Minute},
		models.ClassWebhook: {Requests: 1, Window: time.Minute},
	}
	return New(store, limits, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestByClientIP(t *testing.T) {
	m := metrics.NewWith(prometheus.NewRegistry())
	h := newMiddleware(bucket.NewInMemoryBucketStore(), WithMetrics(m)).ByClientIP(models.ClassAPI)(okHandler)

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/checks", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234").Code)
	rr := do("10.0.0.1:5678")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = do("10.0.0.1:9999")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsRejected.WithLabelValues("api")))

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234").Code, "other clients keep their budget")
}

func TestByActor(t *testing.T) {
	h := newMiddleware(bucket.NewInMemoryBucketStore()).ByActor(models.ClassWebhook)(okHandler)

	do := func(actor string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", nil)
		req = casetest.WithActor(req, actor)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do("provider-a"))
	assert.Equal(t, http.StatusTooManyRequests, do("provider-a"))
	assert.Equal(t, http.StatusOK, do("provider-b"))
}

func TestFailsOpen(t *testing.T) {
	m := metrics.NewWith(prometheus.NewRegistry())
	h := newMiddleware(failingStore{}, WithMetrics(m)).ByClientIP(models.ClassAPI)(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/checks", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors))
}

func TestDisabled(t *testing.T) {
	h := newMiddleware(failingStore{}, WithDisabled(true)).ByClientIP(models.ClassAPI)(okHandler)

	for range 5 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/checks", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}
