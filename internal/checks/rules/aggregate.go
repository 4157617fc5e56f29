package rules

import "casecheck/internal/checks/models"

// Summary is the renderable assessment of a check.
type Summary struct {
	Outcome                 models.AssessmentOutcome
	Warnings                []models.Warning
	MonitoringEnabled       bool
	SafeHarbourBadgeVisible bool
	// Explicit is true when the outcome came from the provider rather than
	// being derived from task results.
	Explicit bool
}

// Aggregate combines the provider's explicit assessment (which always wins)
// with warnings derived from every recorded outcome, in recorded order.
func Aggregate(check *models.Check) Summary {
	summary := Summary{
		Outcome:                 DeriveOutcome(check.Outcomes),
		Warnings:                []models.Warning{},
		MonitoringEnabled:       monitoringEnabled(check.ProviderTasks),
		SafeHarbourBadgeVisible: check.SafeHarbour != nil && check.SafeHarbour.IsCompliant && check.Type == models.CheckTypeElectronicID,
	}

	if check.Assessment != nil && check.Assessment.Outcome != "" {
		summary.Outcome = check.Assessment.Outcome
		summary.Explicit = true
	}

	for _, outcome := range check.Outcomes {
		summary.Warnings = append(summary.Warnings, Classify(check, outcome)...)
	}

	return summary
}

// DeriveOutcome is the fallback verdict: CONSIDER when any task alerted or
// failed, otherwise CLEAR.
func DeriveOutcome(outcomes []models.TaskOutcome) models.AssessmentOutcome {
	for _, o := range outcomes {
		if o.Result == models.ResultAlert || o.Result == models.ResultFail {
			return models.AssessmentConsider
		}
	}
	return models.AssessmentClear
}

func monitoringEnabled(tasks []models.ProviderTask) bool {
	for _, t := range tasks {
		if t.Type == models.TaskPEPs && t.Monitored {
			return true
		}
	}
	return false
}
