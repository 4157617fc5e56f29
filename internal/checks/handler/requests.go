package handler

import (
	"strings"

	"casecheck/internal/checks/models"
	"casecheck/internal/checks/service"
	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
	pstrings "casecheck/pkg/platform/strings"
)

const (
	maxTasksPerRequest     = 32
	maxOutcomesPerEvent    = 32
	maxCategoryLength      = 64
	maxDeliveryIDLength    = 128
	maxAssessmentReasons   = 32
	maxSafeHarbourCriteria = 32
)

// CreateCheckRequest is the body of POST /checks.
type CreateCheckRequest struct {
	MatterID       string `json:"matter_id"`
	MatterCategory string `json:"matter_category"`
	CheckType      string `json:"check_type"`

	parsedMatterID id.MatterID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateCheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.MatterCategory) > maxCategoryLength {
		return dErrors.New(dErrors.CodeValidation, "matter_category is too long")
	}

	r.CheckType = strings.ToLower(strings.TrimSpace(r.CheckType))
	if r.CheckType == "" {
		return dErrors.New(dErrors.CodeValidation, "check_type is required")
	}
	if strings.TrimSpace(r.MatterID) == "" {
		return dErrors.New(dErrors.CodeValidation, "matter_id is required")
	}
	matterID, err := id.ParseMatterID(r.MatterID)
	if err != nil {
		return err
	}
	r.parsedMatterID = matterID
	r.MatterCategory = strings.TrimSpace(r.MatterCategory)
	return nil
}

// ToServiceRequest converts the validated body for the service layer.
func (r *CreateCheckRequest) ToServiceRequest() service.CreateCheckRequest {
	return service.CreateCheckRequest{
		MatterID:       r.parsedMatterID,
		MatterCategory: r.MatterCategory,
		CheckType:      models.CheckTypeID(r.CheckType),
	}
}

// SelectTasksRequest is the body of PUT /checks/{id}/tasks.
type SelectTasksRequest struct {
	Tasks []string `json:"tasks"`

	parsed models.TaskSet
}

func (r *SelectTasksRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Tasks == nil {
		return dErrors.New(dErrors.CodeValidation, "tasks is required")
	}
	if len(r.Tasks) > maxTasksPerRequest {
		return dErrors.New(dErrors.CodeValidation, "too many tasks")
	}
	r.parsed = make(models.TaskSet, len(r.Tasks))
	for _, raw := range r.Tasks {
		task, ok := models.ParseTaskType(raw)
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "task names must not be empty")
		}
		r.parsed[task] = struct{}{}
	}
	return nil
}

// ParsedTasks returns the validated selection.
func (r *SelectTasksRequest) ParsedTasks() models.TaskSet {
	return r.parsed
}

// SubmitRequest is the body of POST /checks/{id}/submit. The body is optional.
type SubmitRequest struct {
	ConfirmSoftPolicy bool `json:"confirm_soft_policy"`
}

func (r *SubmitRequest) Validate() error {
	return nil
}

// SummariesRequest is the body of POST /checks/summaries.
type SummariesRequest struct {
	CheckIDs []string `json:"check_ids"`

	parsed []id.CheckID
}

func (r *SummariesRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.CheckIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "check_ids is required")
	}
	if len(r.CheckIDs) > service.MaxBatchSummaries {
		return dErrors.New(dErrors.CodeValidation, "too many check_ids")
	}
	r.parsed = make([]id.CheckID, len(r.CheckIDs))
	for i, raw := range r.CheckIDs {
		checkID, err := id.ParseCheckID(raw)
		if err != nil {
			return err
		}
		r.parsed[i] = checkID
	}
	return nil
}

// ParsedCheckIDs returns the validated ids in request order.
func (r *SummariesRequest) ParsedCheckIDs() []id.CheckID {
	return r.parsed
}

// ProviderEventRequest is the webhook body the verification provider posts.
type ProviderEventRequest struct {
	DeliveryID  string                `json:"delivery_id"`
	CheckID     string                `json:"check_id"`
	Status      string                `json:"status,omitempty"`
	Outcomes    []OutcomePayload      `json:"outcomes,omitempty"`
	Assessment  *AssessmentPayload    `json:"assessment,omitempty"`
	SafeHarbour *SafeHarbourPayload   `json:"safe_harbour,omitempty"`
	Tasks       []ProviderTaskPayload `json:"tasks,omitempty"`

	event service.ProviderEvent
}

// OutcomePayload is one task result.
type OutcomePayload struct {
	TaskType string         `json:"task_type"`
	Result   string         `json:"result"`
	Data     map[string]any `json:"data,omitempty"`
}

type AssessmentPayload struct {
	Outcome    string   `json:"outcome"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
}

type SafeHarbourPayload struct {
	IsCompliant bool     `json:"is_compliant"`
	Criteria    []string `json:"criteria,omitempty"`
}

type ProviderTaskPayload struct {
	Type string `json:"type"`
	Opts struct {
		Monitored bool `json:"monitored"`
	} `json:"opts"`
}

func (r *ProviderEventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.DeliveryID) > maxDeliveryIDLength {
		return dErrors.New(dErrors.CodeValidation, "delivery_id is too long")
	}
	if len(r.Outcomes) > maxOutcomesPerEvent || len(r.Tasks) > maxTasksPerRequest {
		return dErrors.New(dErrors.CodeValidation, "too many entries in event")
	}

	r.DeliveryID = strings.TrimSpace(r.DeliveryID)
	if r.DeliveryID == "" {
		return dErrors.New(dErrors.CodeValidation, "delivery_id is required")
	}
	checkID, err := id.ParseCheckID(r.CheckID)
	if err != nil {
		return err
	}
	event := service.ProviderEvent{DeliveryID: r.DeliveryID, CheckID: checkID}

	if r.Status != "" {
		status, ok := models.ParseCheckStatus(r.Status)
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "unknown status "+r.Status)
		}
		event.Status = status
	}

	for _, o := range r.Outcomes {
		task, ok := models.ParseTaskType(o.TaskType)
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "outcome task_type is required")
		}
		result, ok := models.ParseResult(o.Result)
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "invalid result for task "+string(task))
		}
		event.Outcomes = append(event.Outcomes, service.OutcomeReport{TaskType: task, Result: result, Data: o.Data})
	}

	if a := r.Assessment; a != nil {
		outcome, ok := models.ParseAssessmentOutcome(a.Outcome)
		if !ok {
			return dErrors.New(dErrors.CodeValidation, "invalid assessment outcome")
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			return dErrors.New(dErrors.CodeValidation, "assessment confidence must be between 0 and 1")
		}
		if len(a.Reasons) > maxAssessmentReasons {
			return dErrors.New(dErrors.CodeValidation, "too many assessment reasons")
		}
		event.Assessment = &models.Assessment{Outcome: outcome, Confidence: a.Confidence, Reasons: pstrings.Compact(a.Reasons)}
	}

	if sh := r.SafeHarbour; sh != nil {
		if len(sh.Criteria) > maxSafeHarbourCriteria {
			return dErrors.New(dErrors.CodeValidation, "too many safe harbour criteria")
		}
		event.SafeHarbour = &models.SafeHarbour{IsCompliant: sh.IsCompliant, Criteria: pstrings.Compact(sh.Criteria)}
	}

	if r.Tasks != nil {
		event.Tasks = make([]models.ProviderTask, 0, len(r.Tasks))
		for _, t := range r.Tasks {
			task, ok := models.ParseTaskType(t.Type)
			if !ok {
				return dErrors.New(dErrors.CodeValidation, "provider task type is required")
			}
			event.Tasks = append(event.Tasks, models.ProviderTask{Type: task, Monitored: t.Opts.Monitored})
		}
	}

	r.event = event
	return nil
}

// ToEvent returns the validated event.
func (r *ProviderEventRequest) ToEvent() service.ProviderEvent {
	return r.event
}
