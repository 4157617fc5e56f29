package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"casecheck/internal/checks/models"
	"casecheck/internal/checks/rules"
	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
)

// MaxBatchSummaries caps the ids accepted by Summaries.
const MaxBatchSummaries = 100

// Summary aggregates a check's outcomes into the reviewer view.
func (s *Service) Summary(ctx context.Context, checkID id.CheckID) (_ *CheckSummary, err error) {
	ctx, end := s.startSpan(ctx, "Summary", checkAttr(checkID))
	defer end(&err)

	check, err := s.load(ctx, checkID)
	if err != nil {
		return nil, err
	}
	return s.summarize(check), nil
}

// Summaries aggregates several checks in parallel. Results follow the order
// of checkIDs; the first failure aborts the batch.
func (s *Service) Summaries(ctx context.Context, checkIDs []id.CheckID) (_ []CheckSummary, err error) {
	ctx, end := s.startSpan(ctx, "Summaries", attribute.Int("batch.size", len(checkIDs)))
	defer end(&err)

	if len(checkIDs) > MaxBatchSummaries {
		return nil, dErrors.New(dErrors.CodeValidation, "too many check ids")
	}

	out := make([]CheckSummary, len(checkIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.summaryConcurrency)
	for i, checkID := range checkIDs {
		g.Go(func() error {
			check, err := s.load(gctx, checkID)
			if err != nil {
				return err
			}
			out[i] = *s.summarize(check)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) summarize(check *models.Check) *CheckSummary {
	summary := rules.Aggregate(check)
	if s.metrics != nil {
		counts := make(map[models.Severity]int)
		for _, w := range summary.Warnings {
			counts[w.Severity]++
		}
		for severity, n := range counts {
			s.metrics.AddWarnings(string(severity), n)
		}
	}
	return &CheckSummary{
		CheckID: check.ID,
		Type:    check.Type,
		Status:  check.Status,
		Summary: summary,
	}
}
