// Package service orchestrates the check lifecycle: creation, task selection,
// submission, provider event ingestion and assessment summaries. Domain rules
// live in the rules package; the service adds persistence, locking, audit,
// metrics and tracing around them.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"casecheck/internal/checks/catalog"
	"casecheck/internal/checks/metrics"
	"casecheck/internal/checks/models"
	"casecheck/internal/checks/ports"
	"casecheck/internal/checks/store/delivery"
	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
	"casecheck/pkg/platform/audit"
	"casecheck/pkg/platform/sentinel"
	"casecheck/pkg/requestcontext"
)

const (
	defaultDedupeTTL          = 72 * time.Hour
	defaultSummaryConcurrency = 8
)

// Catalog resolves check type definitions; satisfied by *catalog.Registry.
type Catalog interface {
	Lookup(typeID models.CheckTypeID) (catalog.Definition, error)
	List() []catalog.Definition
}

type Service struct {
	catalog            Catalog
	store              ports.CheckStore
	deliveries         ports.DeliveryStore
	auditor            ports.AuditPublisher
	logger             *slog.Logger
	metrics            *metrics.Metrics
	tracer             trace.Tracer
	dedupeTTL          time.Duration
	summaryConcurrency int
	locks              *keyedMutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithDeliveryStore replaces the in-process delivery dedupe store.
func WithDeliveryStore(d ports.DeliveryStore) Option {
	return func(s *Service) {
		s.deliveries = d
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithDedupeTTL sets how long a delivery id is remembered.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithSummaryConcurrency bounds the parallel loads of a batch summary.
func WithSummaryConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.summaryConcurrency = n
		}
	}
}

func New(cat Catalog, store ports.CheckStore, opts ...Option) (*Service, error) {
	if cat == nil {
		return nil, errors.New("check type catalog is required")
	}
	if store == nil {
		return nil, errors.New("check store is required")
	}
	s := &Service{
		catalog:            cat,
		store:              store,
		dedupeTTL:          defaultDedupeTTL,
		summaryConcurrency: defaultSummaryConcurrency,
		locks:              newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.deliveries == nil {
		s.deliveries = delivery.NewInMemoryStore()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("casecheck/checks")
	}
	return s, nil
}

// startSpan opens a span named after the operation and times it.
func (s *Service) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "checks."+operation, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(*errp)))
		}
		span.End()
		s.metrics.ObserveOperation(operation, time.Since(start))
	}
}

func checkAttr(checkID id.CheckID) attribute.KeyValue {
	return attribute.String("check.id", checkID.String())
}

// load fetches a check and translates store facts into domain errors.
func (s *Service) load(ctx context.Context, checkID id.CheckID) (*models.Check, error) {
	check, err := s.store.FindByID(ctx, checkID)
	if err != nil {
		return nil, translateStoreErr(err, "check not found")
	}
	return check, nil
}

func (s *Service) save(ctx context.Context, check *models.Check) error {
	if err := s.store.Update(ctx, check); err != nil {
		return translateStoreErr(err, "check not found")
	}
	return nil
}

func translateStoreErr(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "check was modified concurrently")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "storage timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}

// emit publishes an audit event. The check change is already persisted, so a
// failure is logged rather than returned.
func (s *Service) emit(ctx context.Context, check *models.Check, action audit.AuditEvent, decision, reason string, details map[string]string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		CheckID:   check.ID,
		MatterID:  check.MatterID,
		Action:    string(action),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.ActorID(ctx),
		Details:   details,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "CRITICAL: audit emit failed",
			"action", action,
			"check_id", check.ID,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
