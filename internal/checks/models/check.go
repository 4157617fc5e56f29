package models

import (
	"maps"
	"slices"
	"strings"
	"time"

	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
)

// CheckTypeID references a definition in the check-type catalog.
type CheckTypeID string

// CheckTypeElectronicID is the enhanced electronic identity check. Several
// rules (NFC downgrade, safe harbour badge) only apply to it.
const CheckTypeElectronicID CheckTypeID = "electronic-id"

func (c CheckTypeID) String() string { return string(c) }

// MatterCategoryConveyancing is the matter category subject to the
// source-of-funds soft policy.
const MatterCategoryConveyancing = "conveyancing"

// AssessmentOutcome is the overall verdict shown to reviewers.
type AssessmentOutcome string

const (
	AssessmentClear    AssessmentOutcome = "clear"
	AssessmentConsider AssessmentOutcome = "consider"
)

// ParseAssessmentOutcome normalises a provider assessment value.
func ParseAssessmentOutcome(s string) (AssessmentOutcome, bool) {
	o := AssessmentOutcome(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case AssessmentClear, AssessmentConsider:
		return o, true
	}
	return "", false
}

// Assessment is an explicit verdict reported by the provider.
type Assessment struct {
	Outcome    AssessmentOutcome `json:"outcome"`
	Confidence float64           `json:"confidence"`
	Reasons    []string          `json:"reasons"`
}

// SafeHarbour records whether the check meets the enhanced-verification standard.
type SafeHarbour struct {
	IsCompliant bool     `json:"is_compliant"`
	Criteria    []string `json:"criteria"`
}

// ProviderTask is one entry of the provider's task list for a check.
type ProviderTask struct {
	Type      TaskType `json:"type"`
	Monitored bool     `json:"monitored"`
}

// Check is a single verification case tracked against a matter.
type Check struct {
	ID             id.CheckID
	MatterID       id.MatterID
	MatterCategory string
	Type           CheckTypeID
	Status         CheckStatus
	SelectedTasks  TaskSet
	// Outcomes are kept in the order they were recorded.
	Outcomes      []TaskOutcome
	Assessment    *Assessment
	SafeHarbour   *SafeHarbour
	ProviderTasks []ProviderTask
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SubmittedAt   *time.Time
}

// NewCheck creates an open check with the given default selection.
func NewCheck(checkID id.CheckID, matterID id.MatterID, category string, checkType CheckTypeID, defaults TaskSet, now time.Time) *Check {
	return &Check{
		ID:             checkID,
		MatterID:       matterID,
		MatterCategory: strings.ToLower(strings.TrimSpace(category)),
		Type:           checkType,
		Status:         StatusOpen,
		SelectedTasks:  defaults.Clone(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsSubmitted reports whether the task selection has been submitted.
func (c *Check) IsSubmitted() bool {
	return c.SubmittedAt != nil
}

// IsConveyancing reports whether the matter falls under conveyancing policy.
func (c *Check) IsConveyancing() bool {
	return strings.EqualFold(c.MatterCategory, MatterCategoryConveyancing)
}

// Outcome returns the recorded outcome for a task type.
func (c *Check) Outcome(taskType TaskType) (TaskOutcome, bool) {
	for _, o := range c.Outcomes {
		if o.TaskType == taskType {
			return o, true
		}
	}
	return TaskOutcome{}, false
}

// SelectTasks replaces the draft selection. Only allowed before submission.
func (c *Check) SelectTasks(tasks TaskSet, now time.Time) error {
	if c.IsSubmitted() {
		return dErrors.New(dErrors.CodeInvalidState, "task selection is locked after submission")
	}
	if c.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, "check is "+string(c.Status))
	}
	c.SelectedTasks = tasks.Clone()
	c.UpdatedAt = now
	return nil
}

// MarkSubmitted locks the selection.
func (c *Check) MarkSubmitted(now time.Time) error {
	if c.IsSubmitted() {
		return dErrors.New(dErrors.CodeInvalidState, "check already submitted")
	}
	if c.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, "check is "+string(c.Status))
	}
	c.SubmittedAt = &now
	c.UpdatedAt = now
	return nil
}

// RecordOutcome appends a provider outcome. Outcomes are only accepted for
// selected tasks, once per task, while the check is not terminal.
func (c *Check) RecordOutcome(outcome TaskOutcome) error {
	if c.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, "check is "+string(c.Status)+"; outcomes are immutable")
	}
	if !c.SelectedTasks.Has(outcome.TaskType) {
		return dErrors.New(dErrors.CodeValidation, "task "+string(outcome.TaskType)+" was not requested for this check")
	}
	if _, exists := c.Outcome(outcome.TaskType); exists {
		return dErrors.New(dErrors.CodeConflict, "outcome already recorded for task "+string(outcome.TaskType))
	}
	if !outcome.Result.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid result for task "+string(outcome.TaskType))
	}
	c.Outcomes = append(c.Outcomes, outcome)
	if outcome.RecordedAt.After(c.UpdatedAt) {
		c.UpdatedAt = outcome.RecordedAt
	}
	return nil
}

// ApplyStatus moves the check to next if the transition is legal. Reporting
// the current status again is a no-op and returns changed=false.
func (c *Check) ApplyStatus(next CheckStatus, now time.Time) (changed bool, err error) {
	if next == c.Status {
		return false, nil
	}
	if !c.Status.CanTransitionTo(next) {
		return false, dErrors.New(dErrors.CodeInvalidState,
			"illegal status transition "+string(c.Status)+" -> "+string(next))
	}
	c.Status = next
	c.UpdatedAt = now
	return true, nil
}

// Clone returns a deep copy so stores can hand out snapshots.
func (c *Check) Clone() *Check {
	if c == nil {
		return nil
	}
	out := *c
	out.SelectedTasks = c.SelectedTasks.Clone()
	out.Outcomes = make([]TaskOutcome, len(c.Outcomes))
	for i, o := range c.Outcomes {
		o.Raw = maps.Clone(o.Raw)
		o.Data = DecodeOutcomeData(o.TaskType, o.Raw)
		out.Outcomes[i] = o
	}
	if c.Assessment != nil {
		a := *c.Assessment
		a.Reasons = slices.Clone(a.Reasons)
		out.Assessment = &a
	}
	if c.SafeHarbour != nil {
		sh := *c.SafeHarbour
		sh.Criteria = slices.Clone(sh.Criteria)
		out.SafeHarbour = &sh
	}
	out.ProviderTasks = slices.Clone(c.ProviderTasks)
	if c.SubmittedAt != nil {
		t := *c.SubmittedAt
		out.SubmittedAt = &t
	}
	return &out
}
