package service

import (
	"casecheck/internal/checks/models"
	"casecheck/internal/checks/rules"
	id "casecheck/pkg/domain"
)

// CreateCheckRequest opens a new check for a matter.
type CreateCheckRequest struct {
	MatterID       id.MatterID
	MatterCategory string
	CheckType      models.CheckTypeID
}

// SubmitResult reports the verdict a submission passed with.
type SubmitResult struct {
	Check   *models.Check
	Verdict rules.Verdict
	// Confirmed is true when a soft policy warning was overridden.
	Confirmed bool
}

// OutcomeReport is one task result carried by a provider event.
type OutcomeReport struct {
	TaskType models.TaskType
	Result   models.Result
	Data     map[string]any
}

// ProviderEvent is a decoded provider webhook delivery. Every field except
// DeliveryID and CheckID is optional; present fields are applied in the
// order outcomes, assessment, safe harbour, tasks, status.
type ProviderEvent struct {
	DeliveryID  string
	CheckID     id.CheckID
	Status      models.CheckStatus
	Outcomes    []OutcomeReport
	Assessment  *models.Assessment
	SafeHarbour *models.SafeHarbour
	Tasks       []models.ProviderTask
}

// EventResult reports what a provider event did.
type EventResult struct {
	Check *models.Check
	// Duplicate is true when the delivery id was already processed and the
	// event was ignored.
	Duplicate     bool
	StatusChanged bool
	Recorded      int
}

// CheckSummary pairs a check with its aggregated assessment.
type CheckSummary struct {
	CheckID id.CheckID
	Type    models.CheckTypeID
	Status  models.CheckStatus
	rules.Summary
}
