package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"casecheck/internal/checks/catalog"
	checkhandler "casecheck/internal/checks/handler"
	checkmetrics "casecheck/internal/checks/metrics"
	"casecheck/internal/checks/ports"
	checkservice "casecheck/internal/checks/service"
	checkstore "casecheck/internal/checks/store/check"
	"casecheck/internal/checks/store/delivery"
	"casecheck/internal/platform/config"
	"casecheck/internal/platform/httpserver"
	"casecheck/internal/platform/logger"
	"casecheck/internal/platform/middleware"
	redisclient "casecheck/internal/platform/redis"
	"casecheck/internal/providertoken"
	ratelimitmetrics "casecheck/internal/ratelimit/metrics"
	ratelimitmw "casecheck/internal/ratelimit/middleware"
	ratelimitmodels "casecheck/internal/ratelimit/models"
	"casecheck/internal/ratelimit/store/bucket"
	"casecheck/pkg/platform/audit"
	"casecheck/pkg/platform/audit/publisher"
	kafkasink "casecheck/pkg/platform/audit/publishers/kafka"
	auditmemory "casecheck/pkg/platform/audit/store/memory"
	auditpostgres "casecheck/pkg/platform/audit/store/postgres"
	"casecheck/pkg/platform/httputil"
	"casecheck/pkg/platform/middleware/requesttime"
)

const startupTimeout = 15 * time.Second

type infra struct {
	db      *sql.DB
	redis   *redisclient.Client
	sink    *kafkasink.Sink
	auditor *publisher.Publisher
}

func (i *infra) close(log *slog.Logger) {
	if i.auditor != nil {
		i.auditor.Close()
	}
	if i.sink != nil {
		i.sink.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Warn("database close failed", "error", err)
		}
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	registry, err := catalog.NewRegistry(cfg.CatalogPath, log)
	if err != nil {
		return err
	}

	deps := &infra{}
	defer deps.close(log)

	store, auditStore, err := buildStores(ctx, cfg, log, deps)
	if err != nil {
		return err
	}

	deliveries, err := buildDeliveryStore(ctx, cfg, log, deps)
	if err != nil {
		return err
	}

	pubOpts := []publisher.Option{publisher.WithLogger(log)}
	if cfg.Audit.AsyncBuffer > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafkasink.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, kafkasink.WithLogger(log))
		if err != nil {
			return err
		}
		deps.sink = sink
		if err := sink.EnsureTopic(ctx); err != nil {
			return err
		}
		pubOpts = append(pubOpts, publisher.WithSink(sink))
		log.Info("audit events mirrored to kafka", "topic", cfg.Kafka.AuditTopic)
	}
	deps.auditor = publisher.NewPublisher(auditStore, pubOpts...)

	svc, err := checkservice.New(registry, store,
		checkservice.WithLogger(log),
		checkservice.WithMetrics(checkmetrics.New()),
		checkservice.WithAuditPublisher(deps.auditor),
		checkservice.WithDeliveryStore(deliveries),
		checkservice.WithDedupeTTL(cfg.Webhooks.DedupeTTL),
	)
	if err != nil {
		return err
	}

	limiter := buildRateLimiter(cfg, log, deps)
	tokens := providertoken.NewService(cfg.Webhooks.Secret, cfg.Webhooks.Issuer, cfg.Webhooks.Audience)
	handler := checkhandler.New(svc, providertoken.NewAdapter(tokens), log,
		checkhandler.WithAPILimiter(limiter.ByClientIP(ratelimitmodels.ClassAPI)),
		checkhandler.WithWebhookLimiter(limiter.ByActor(ratelimitmodels.ClassWebhook)),
	)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(log))
	r.Use(middleware.Logger(log))
	r.Use(requesttime.Middleware)
	r.Get("/health", healthHandler(deps))
	r.Handle("/metrics", promhttp.Handler())
	handler.Register(r)

	srv := httpserver.New(cfg.Addr, otelhttp.NewHandler(r, "casecheck"))

	go watchCatalog(registry, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting casecheck", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStores picks postgres when DATABASE_URL is set and in-memory stores
// otherwise.
func buildStores(ctx context.Context, cfg config.Server, log *slog.Logger, deps *infra) (ports.CheckStore, audit.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set; checks and audit events are kept in memory")
		return checkstore.NewInMemoryStore(), auditmemory.NewInMemoryStore(), nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.db = db
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}

	checks := checkstore.NewPostgres(db)
	if err := checks.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	events := auditpostgres.New(db)
	if err := events.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	return checks, events, nil
}

func buildDeliveryStore(ctx context.Context, cfg config.Server, log *slog.Logger, deps *infra) (ports.DeliveryStore, error) {
	client, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Warn("REDIS_URL not set; webhook delivery dedupe is per process")
		return delivery.NewInMemoryStore(), nil
	}
	deps.redis = client
	return delivery.NewRedisStore(client.Client), nil
}

// buildRateLimiter shares budgets through Redis when it is configured.
func buildRateLimiter(cfg config.Server, log *slog.Logger, deps *infra) *ratelimitmw.Middleware {
	var store ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore()
	if deps.redis != nil {
		store = bucket.NewRedisBucketStore(deps.redis.Client)
	}
	limits := map[ratelimitmodels.EndpointClass]ratelimitmodels.Limit{
		ratelimitmodels.ClassAPI:     {Requests: cfg.RateLimit.APIPerMinute, Window: time.Minute},
		ratelimitmodels.ClassWebhook: {Requests: cfg.RateLimit.WebhookPerMinute, Window: time.Minute},
	}
	return ratelimitmw.New(store, limits, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithMetrics(ratelimitmetrics.New()),
	)
}

// watchCatalog reloads the check type catalog on SIGHUP.
func watchCatalog(registry *catalog.Registry, log *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	for range hup {
		if err := registry.Reload(); err != nil {
			log.Warn("keeping previous check type catalog", "error", err)
		}
	}
}

func healthHandler(deps *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if deps.db != nil {
			if err := deps.db.PingContext(r.Context()); err != nil {
				status["database"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if deps.redis != nil {
			if err := deps.redis.Health(r.Context()); err != nil {
				status["redis"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, status)
	}
}
