//go:build e2e

package e2e

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"casecheck/internal/checks/catalog"
	checkhandler "casecheck/internal/checks/handler"
	"casecheck/internal/checks/metrics"
	"casecheck/internal/checks/service"
	checkstore "casecheck/internal/checks/store/check"
	"casecheck/internal/checks/store/delivery"
	"casecheck/internal/platform/middleware"
	"casecheck/internal/providertoken"
	"casecheck/pkg/platform/audit/publisher"
	auditmemory "casecheck/pkg/platform/audit/store/memory"
	"casecheck/pkg/platform/middleware/requesttime"
)

const (
	e2eSigningKey = "e2e-signing-key"
	e2eIssuer     = "casecheck-e2e"
	e2eAudience   = "casecheck"
	e2eProvider   = "idv-provider"
)

// startServer runs the check API on in-memory stores and returns its base
// URL with a valid provider token.
func startServer(t *testing.T) (string, string) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	auditor := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	t.Cleanup(auditor.Close)

	svc, err := service.New(
		catalog.NewStaticRegistry(catalog.Builtin()),
		checkstore.NewInMemoryStore(),
		service.WithLogger(log),
		service.WithAuditPublisher(auditor),
		service.WithDeliveryStore(delivery.NewInMemoryStore()),
		service.WithMetrics(metrics.NewWith(prometheus.NewRegistry())),
	)
	require.NoError(t, err)

	tokens := providertoken.NewService(e2eSigningKey, e2eIssuer, e2eAudience)
	token, err := tokens.Issue(e2eProvider, time.Now(), time.Hour)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(log))
	r.Use(requesttime.Middleware)
	checkhandler.New(svc, providertoken.NewAdapter(tokens), log).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL, token
}
