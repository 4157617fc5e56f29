package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"casecheck/internal/checks/models"
	dErrors "casecheck/pkg/domain-errors"
	"casecheck/pkg/platform/audit"
	"casecheck/pkg/requestcontext"
)

// ApplyProviderEvent ingests one provider webhook delivery. The event is
// applied atomically: either every part is persisted or none is. A
// delivery id seen before is acknowledged without applying anything.
func (s *Service) ApplyProviderEvent(ctx context.Context, event ProviderEvent) (_ *EventResult, err error) {
	ctx, end := s.startSpan(ctx, "ApplyProviderEvent",
		checkAttr(event.CheckID),
		attribute.String("delivery.id", event.DeliveryID),
	)
	defer end(&err)

	if event.DeliveryID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "delivery_id is required")
	}

	unlock := s.locks.Lock(event.CheckID)
	defer unlock()

	first, err := s.deliveries.MarkDelivered(ctx, event.DeliveryID, s.dedupeTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "delivery dedupe unavailable")
	}
	if !first {
		s.metrics.IncDuplicateDelivery()
		s.logger.InfoContext(ctx, "duplicate provider delivery ignored",
			"request_id", requestcontext.RequestID(ctx),
			"delivery_id", event.DeliveryID,
			"check_id", event.CheckID,
		)
		check, err := s.load(ctx, event.CheckID)
		if err != nil {
			return nil, err
		}
		return &EventResult{Check: check, Duplicate: true}, nil
	}

	result, err := s.applyEvent(ctx, event)
	if err != nil {
		// Let the provider retry the same delivery once the cause is fixed.
		if ferr := s.deliveries.Forget(ctx, event.DeliveryID); ferr != nil {
			s.logger.WarnContext(ctx, "failed to release delivery id",
				"delivery_id", event.DeliveryID,
				"error", ferr,
			)
		}
		s.logger.WarnContext(ctx, "provider event rejected",
			"request_id", requestcontext.RequestID(ctx),
			"delivery_id", event.DeliveryID,
			"check_id", event.CheckID,
			"error", err,
		)
		return nil, err
	}
	return result, nil
}

func (s *Service) applyEvent(ctx context.Context, event ProviderEvent) (*EventResult, error) {
	check, err := s.load(ctx, event.CheckID)
	if err != nil {
		return nil, err
	}
	if !check.IsSubmitted() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "check has not been submitted")
	}
	if event.Status != "" && !event.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status "+string(event.Status))
	}

	now := requestcontext.Now(ctx)
	wasTerminal := check.Status.IsTerminal()
	updatesMeta := event.Assessment != nil || event.SafeHarbour != nil || event.Tasks != nil
	if wasTerminal && (len(event.Outcomes) > 0 || updatesMeta) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "check is "+string(check.Status)+"; results are frozen")
	}

	recorded := make([]models.TaskOutcome, 0, len(event.Outcomes))
	for _, report := range event.Outcomes {
		outcome := models.NewTaskOutcome(report.TaskType, report.Result, report.Data, now)
		if err := check.RecordOutcome(outcome); err != nil {
			return nil, err
		}
		recorded = append(recorded, outcome)
	}

	if event.Assessment != nil {
		a := *event.Assessment
		check.Assessment = &a
	}
	if event.SafeHarbour != nil {
		sh := *event.SafeHarbour
		check.SafeHarbour = &sh
	}
	if event.Tasks != nil {
		check.ProviderTasks = append([]models.ProviderTask(nil), event.Tasks...)
	}
	if updatesMeta {
		check.UpdatedAt = now
	}

	previous := check.Status
	changed := false
	if event.Status != "" {
		if changed, err = check.ApplyStatus(event.Status, now); err != nil {
			return nil, err
		}
	}

	if len(recorded) == 0 && !changed && !updatesMeta {
		return &EventResult{Check: check}, nil
	}
	if err := s.save(ctx, check); err != nil {
		return nil, err
	}

	for _, o := range recorded {
		s.metrics.IncOutcome(string(o.TaskType), string(o.Result))
		s.emit(ctx, check, audit.EventOutcomeRecorded, string(o.Result), "", map[string]string{
			"task_type":   string(o.TaskType),
			"delivery_id": event.DeliveryID,
		})
	}
	if event.Assessment != nil {
		s.emit(ctx, check, audit.EventAssessmentRecorded, string(event.Assessment.Outcome), "", map[string]string{
			"confidence":  strconv.FormatFloat(event.Assessment.Confidence, 'f', -1, 64),
			"delivery_id": event.DeliveryID,
		})
	}
	if changed {
		s.metrics.IncTransition(string(check.Status))
		s.emit(ctx, check, audit.EventStatusChanged, string(check.Status), "", map[string]string{
			"from":        string(previous),
			"delivery_id": event.DeliveryID,
		})
	}

	s.logger.InfoContext(ctx, "provider event applied",
		"request_id", requestcontext.RequestID(ctx),
		"delivery_id", event.DeliveryID,
		"check_id", check.ID,
		"outcomes", len(recorded),
		"status", check.Status,
	)
	return &EventResult{Check: check, StatusChanged: changed, Recorded: len(recorded)}, nil
}
