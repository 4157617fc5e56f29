package handler

import (
	"time"

	"casecheck/internal/checks/catalog"
	"casecheck/internal/checks/models"
	"casecheck/internal/checks/rules"
	"casecheck/internal/checks/service"
)

// CheckTypeResponse renders one catalog definition. Hidden tasks are
// relevant but not listed in VisibleTasks.
type CheckTypeResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	VisibleSections []string `json:"visible_sections"`
	RelevantTasks   []string `json:"relevant_tasks"`
	VisibleTasks    []string `json:"visible_tasks"`
	DefaultTasks    []string `json:"default_tasks"`
	RequiredTasks   []string `json:"required_tasks"`
}

func toStrings(tasks []models.TaskType) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = string(t)
	}
	return out
}

func FromDefinition(def catalog.Definition) CheckTypeResponse {
	sections := def.VisibleSections
	if sections == nil {
		sections = []string{}
	}
	return CheckTypeResponse{
		ID:              string(def.ID),
		Name:            def.Name,
		VisibleSections: sections,
		RelevantTasks:   def.RelevantTasks.Strings(),
		VisibleTasks:    toStrings(def.VisibleTasks()),
		DefaultTasks:    def.DefaultTasks.Strings(),
		RequiredTasks:   def.RequiredTasks.Strings(),
	}
}

// CheckResponse is the HTTP view of a check.
type CheckResponse struct {
	ID             string                `json:"id"`
	MatterID       string                `json:"matter_id"`
	MatterCategory string                `json:"matter_category,omitempty"`
	CheckType      string                `json:"check_type"`
	Status         string                `json:"status"`
	SelectedTasks  []string              `json:"selected_tasks"`
	Outcomes       []OutcomeResponse     `json:"outcomes"`
	Assessment     *models.Assessment    `json:"assessment,omitempty"`
	SafeHarbour    *models.SafeHarbour   `json:"safe_harbour,omitempty"`
	ProviderTasks  []models.ProviderTask `json:"provider_tasks,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	SubmittedAt    *time.Time            `json:"submitted_at,omitempty"`
}

type OutcomeResponse struct {
	TaskType   string         `json:"task_type"`
	Result     string         `json:"result"`
	Data       map[string]any `json:"data,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

func FromCheck(check *models.Check) CheckResponse {
	outcomes := make([]OutcomeResponse, len(check.Outcomes))
	for i, o := range check.Outcomes {
		outcomes[i] = OutcomeResponse{
			TaskType:   string(o.TaskType),
			Result:     string(o.Result),
			Data:       o.Raw,
			RecordedAt: o.RecordedAt,
		}
	}
	return CheckResponse{
		ID:             check.ID.String(),
		MatterID:       check.MatterID.String(),
		MatterCategory: check.MatterCategory,
		CheckType:      string(check.Type),
		Status:         string(check.Status),
		SelectedTasks:  check.SelectedTasks.Strings(),
		Outcomes:       outcomes,
		Assessment:     check.Assessment,
		SafeHarbour:    check.SafeHarbour,
		ProviderTasks:  check.ProviderTasks,
		CreatedAt:      check.CreatedAt,
		UpdatedAt:      check.UpdatedAt,
		SubmittedAt:    check.SubmittedAt,
	}
}

// VerdictResponse is the result of POST /checks/{id}/validate.
type VerdictResponse struct {
	Verdict string   `json:"verdict"`
	Missing []string `json:"missing,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

func FromVerdict(v rules.Verdict) VerdictResponse {
	resp := VerdictResponse{Verdict: string(v.Kind), Reason: v.Reason}
	if len(v.Missing) > 0 {
		resp.Missing = toStrings(v.Missing)
	}
	return resp
}

type SubmitResponse struct {
	Check                 CheckResponse `json:"check"`
	SoftPolicyConfirmed   bool          `json:"soft_policy_confirmed"`
	ConfirmedPolicyReason string        `json:"confirmed_policy_reason,omitempty"`
}

func FromSubmitResult(result *service.SubmitResult) SubmitResponse {
	resp := SubmitResponse{
		Check:               FromCheck(result.Check),
		SoftPolicyConfirmed: result.Confirmed,
	}
	if result.Confirmed {
		resp.ConfirmedPolicyReason = result.Verdict.Reason
	}
	return resp
}

// SummaryResponse is the reviewer view of a check.
type SummaryResponse struct {
	CheckID                 string           `json:"check_id"`
	CheckType               string           `json:"check_type"`
	Status                  string           `json:"status"`
	Outcome                 string           `json:"outcome"`
	OutcomeSource           string           `json:"outcome_source"`
	Warnings                []models.Warning `json:"warnings"`
	MonitoringEnabled       bool             `json:"monitoring_enabled"`
	SafeHarbourBadgeVisible bool             `json:"safe_harbour_badge_visible"`
}

func FromSummary(summary service.CheckSummary) SummaryResponse {
	source := "derived"
	if summary.Explicit {
		source = "provider"
	}
	warnings := summary.Warnings
	if warnings == nil {
		warnings = []models.Warning{}
	}
	return SummaryResponse{
		CheckID:                 summary.CheckID.String(),
		CheckType:               string(summary.Type),
		Status:                  string(summary.Status),
		Outcome:                 string(summary.Outcome),
		OutcomeSource:           source,
		Warnings:                warnings,
		MonitoringEnabled:       summary.MonitoringEnabled,
		SafeHarbourBadgeVisible: summary.SafeHarbourBadgeVisible,
	}
}

// EventResponse acknowledges a provider delivery.
type EventResponse struct {
	CheckID       string `json:"check_id"`
	Status        string `json:"status"`
	Duplicate     bool   `json:"duplicate"`
	StatusChanged bool   `json:"status_changed"`
	Recorded      int    `json:"outcomes_recorded"`
}

func FromEventResult(result *service.EventResult) EventResponse {
	return EventResponse{
		CheckID:       result.Check.ID.String(),
		Status:        string(result.Check.Status),
		Duplicate:     result.Duplicate,
		StatusChanged: result.StatusChanged,
		Recorded:      result.Recorded,
	}
}
