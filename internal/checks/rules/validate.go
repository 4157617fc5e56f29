// Package rules holds the check engine's pure domain logic: task selection
// validation, outcome classification and assessment aggregation. No I/O, no
// clocks, no shared state; every function depends only on its arguments.
package rules

import (
	"strings"

	"casecheck/internal/checks/catalog"
	"casecheck/internal/checks/models"
	dErrors "casecheck/pkg/domain-errors"
)

// VerdictKind classifies the result of a selection validation.
type VerdictKind string

const (
	VerdictOK                   VerdictKind = "ok"
	VerdictMissingRequiredTasks VerdictKind = "missing_required_tasks"
	VerdictSoftPolicyWarning    VerdictKind = "soft_policy_warning"
)

// ReasonSourceOfFundsRecommended is the soft policy raised for conveyancing
// matters submitted without a source-of-funds task.
const ReasonSourceOfFundsRecommended = "source_of_funds_recommended_for_conveyancing"

// Verdict is the outcome of ValidateSelection. Missing is set only for
// VerdictMissingRequiredTasks, Reason only for VerdictSoftPolicyWarning.
type Verdict struct {
	Kind    VerdictKind
	Missing []models.TaskType
	Reason  string
}

// OK reports whether the selection may be submitted without confirmation.
func (v Verdict) OK() bool { return v.Kind == VerdictOK }

// Err converts a hard failure into an error; soft warnings and OK yield nil.
func (v Verdict) Err() error {
	if v.Kind != VerdictMissingRequiredTasks {
		return nil
	}
	return &MissingRequiredTasksError{Missing: v.Missing}
}

// SubmissionErr is the error a submission with this verdict must fail with.
// A soft warning blocks submission until the user confirms it.
func (v Verdict) SubmissionErr(confirmed bool) error {
	switch v.Kind {
	case VerdictMissingRequiredTasks:
		return &MissingRequiredTasksError{Missing: v.Missing}
	case VerdictSoftPolicyWarning:
		if !confirmed {
			return &ConfirmationRequiredError{Reason: v.Reason}
		}
	}
	return nil
}

// ConfirmationRequiredError blocks a submission until the soft policy
// warning named by Reason is confirmed.
type ConfirmationRequiredError struct {
	Reason string
}

func (e *ConfirmationRequiredError) Error() string {
	return "confirmation required: " + e.Reason
}

func (e *ConfirmationRequiredError) Unwrap() error {
	return dErrors.New(dErrors.CodeConfirmationRequired, e.Error())
}

// MissingRequiredTasksError lists the exact gap between required and selected tasks.
type MissingRequiredTasksError struct {
	Missing []models.TaskType
}

func (e *MissingRequiredTasksError) Error() string {
	names := make([]string, len(e.Missing))
	for i, t := range e.Missing {
		names[i] = string(t)
	}
	return "missing required tasks: " + strings.Join(names, ", ")
}

// Unwrap exposes the domain code so callers can use dErrors.HasCode.
func (e *MissingRequiredTasksError) Unwrap() error {
	return dErrors.New(dErrors.CodeMissingRequiredTasks, e.Error())
}

// ValidateSelection checks a draft selection against its check type.
// Rule priority:
//  1. Required tasks must all be selected (hard failure)
//  2. Conveyancing matters should include source of funds (soft, needs confirmation)
func ValidateSelection(def catalog.Definition, check *models.Check) Verdict {
	if missing := check.SelectedTasks.Missing(def.RequiredTasks); len(missing) > 0 {
		return Verdict{Kind: VerdictMissingRequiredTasks, Missing: missing}
	}

	if check.IsConveyancing() && !check.SelectedTasks.Has(models.TaskSourceOfFunds) {
		return Verdict{Kind: VerdictSoftPolicyWarning, Reason: ReasonSourceOfFundsRecommended}
	}

	return Verdict{Kind: VerdictOK}
}

// CheckSelectable verifies that every selected task is relevant for the
// check type. Used when a draft selection is replaced.
func CheckSelectable(def catalog.Definition, tasks models.TaskSet) error {
	if extra := def.RelevantTasks.Missing(tasks); len(extra) > 0 {
		names := make([]string, len(extra))
		for i, t := range extra {
			names[i] = string(t)
		}
		return dErrors.New(dErrors.CodeValidation,
			"tasks not available for check type "+string(def.ID)+": "+strings.Join(names, ", "))
	}
	return nil
}

// DefinitionLookup resolves check types; satisfied by *catalog.Catalog and *catalog.Registry.
type DefinitionLookup interface {
	Lookup(typeID models.CheckTypeID) (catalog.Definition, error)
}

// Validate resolves the check's type and validates its selection. The only
// error is an unknown check type.
func Validate(defs DefinitionLookup, check *models.Check) (Verdict, error) {
	def, err := defs.Lookup(check.Type)
	if err != nil {
		return Verdict{}, err
	}
	return ValidateSelection(def, check), nil
}
