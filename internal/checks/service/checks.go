package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"casecheck/internal/checks/catalog"
	"casecheck/internal/checks/models"
	"casecheck/internal/checks/rules"
	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
	"casecheck/pkg/platform/audit"
	"casecheck/pkg/requestcontext"
)

// ListCheckTypes returns every catalog definition sorted by id.
func (s *Service) ListCheckTypes(_ context.Context) []catalog.Definition {
	return s.catalog.List()
}

// GetCheckType resolves one definition.
func (s *Service) GetCheckType(_ context.Context, typeID models.CheckTypeID) (catalog.Definition, error) {
	return s.catalog.Lookup(typeID)
}

// CreateCheck opens a check with the type's default tasks pre-selected.
func (s *Service) CreateCheck(ctx context.Context, req CreateCheckRequest) (_ *models.Check, err error) {
	ctx, end := s.startSpan(ctx, "CreateCheck", attribute.String("check.type", string(req.CheckType)))
	defer end(&err)

	if req.MatterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "matter_id is required")
	}
	def, err := s.catalog.Lookup(req.CheckType)
	if err != nil {
		return nil, err
	}

	check := models.NewCheck(id.NewCheckID(), req.MatterID, req.MatterCategory, def.ID, def.DefaultTasks, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, check); err != nil {
		return nil, translateStoreErr(err, "check not found")
	}

	s.metrics.IncChecksCreated(string(def.ID))
	s.emit(ctx, check, audit.EventCheckCreated, "", "", map[string]string{
		"check_type":      string(def.ID),
		"matter_category": check.MatterCategory,
	})
	s.logger.InfoContext(ctx, "check created",
		"request_id", requestcontext.RequestID(ctx),
		"check_id", check.ID,
		"matter_id", check.MatterID,
		"check_type", def.ID,
	)
	return check, nil
}

func (s *Service) GetCheck(ctx context.Context, checkID id.CheckID) (_ *models.Check, err error) {
	ctx, end := s.startSpan(ctx, "GetCheck", checkAttr(checkID))
	defer end(&err)
	return s.load(ctx, checkID)
}

// ListByMatter returns a matter's checks, oldest first.
func (s *Service) ListByMatter(ctx context.Context, matterID id.MatterID) (_ []*models.Check, err error) {
	ctx, end := s.startSpan(ctx, "ListByMatter", attribute.String("matter.id", matterID.String()))
	defer end(&err)

	checks, err := s.store.ListByMatter(ctx, matterID)
	if err != nil {
		return nil, translateStoreErr(err, "matter not found")
	}
	return checks, nil
}

// SelectTasks replaces the draft selection of an unsubmitted check. Every
// task must be relevant for the check type.
func (s *Service) SelectTasks(ctx context.Context, checkID id.CheckID, tasks models.TaskSet) (_ *models.Check, err error) {
	ctx, end := s.startSpan(ctx, "SelectTasks", checkAttr(checkID))
	defer end(&err)

	unlock := s.locks.Lock(checkID)
	defer unlock()

	check, err := s.load(ctx, checkID)
	if err != nil {
		return nil, err
	}
	def, err := s.catalog.Lookup(check.Type)
	if err != nil {
		return nil, err
	}
	if err := rules.CheckSelectable(def, tasks); err != nil {
		return nil, err
	}
	if err := check.SelectTasks(tasks, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.save(ctx, check); err != nil {
		return nil, err
	}

	s.emit(ctx, check, audit.EventTasksSelected, "", "", map[string]string{
		"tasks": strings.Join(check.SelectedTasks.Strings(), ","),
	})
	return check, nil
}

// Validate reports the selection verdict without changing the check.
func (s *Service) Validate(ctx context.Context, checkID id.CheckID) (_ rules.Verdict, err error) {
	ctx, end := s.startSpan(ctx, "Validate", checkAttr(checkID))
	defer end(&err)

	check, err := s.load(ctx, checkID)
	if err != nil {
		return rules.Verdict{}, err
	}
	verdict, err := rules.Validate(s.catalog, check)
	if err != nil {
		return rules.Verdict{}, err
	}
	s.metrics.IncVerdict(string(verdict.Kind))
	return verdict, nil
}

// Submit locks the selection and hands the check to the provider. Missing
// required tasks always block; a soft policy warning blocks unless
// confirmSoftPolicy is set.
func (s *Service) Submit(ctx context.Context, checkID id.CheckID, confirmSoftPolicy bool) (_ *SubmitResult, err error) {
	ctx, end := s.startSpan(ctx, "Submit", checkAttr(checkID))
	defer end(&err)

	unlock := s.locks.Lock(checkID)
	defer unlock()

	check, err := s.load(ctx, checkID)
	if err != nil {
		return nil, err
	}
	verdict, err := rules.Validate(s.catalog, check)
	if err != nil {
		return nil, err
	}
	s.metrics.IncVerdict(string(verdict.Kind))

	if err := verdict.SubmissionErr(confirmSoftPolicy); err != nil {
		if verdict.Kind == rules.VerdictMissingRequiredTasks {
			s.metrics.IncSubmission("missing_required_tasks")
		} else {
			s.metrics.IncSubmission("confirmation_required")
		}
		return nil, err
	}

	if err := check.MarkSubmitted(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.save(ctx, check); err != nil {
		return nil, err
	}

	confirmed := verdict.Kind == rules.VerdictSoftPolicyWarning
	if confirmed {
		s.emit(ctx, check, audit.EventSoftPolicyConfirmed, "confirmed", verdict.Reason, nil)
	}
	s.emit(ctx, check, audit.EventCheckSubmitted, "submitted", "", map[string]string{
		"tasks": strings.Join(check.SelectedTasks.Strings(), ","),
	})
	s.metrics.IncSubmission("submitted")
	s.logger.InfoContext(ctx, "check submitted",
		"request_id", requestcontext.RequestID(ctx),
		"check_id", check.ID,
		"soft_policy_confirmed", confirmed,
	)

	return &SubmitResult{Check: check, Verdict: verdict, Confirmed: confirmed}, nil
}
