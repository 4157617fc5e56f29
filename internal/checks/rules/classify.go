package rules

import (
	"strconv"

	"casecheck/internal/checks/models"
)

const addressQualityThreshold = 80

// Classify turns one recorded outcome into reviewer warnings. Warnings are
// only raised once the check is closed. A clear result never raises a
// warning, whatever its data says. Classify never fails: absent data fields
// carry no signal.
func Classify(check *models.Check, outcome models.TaskOutcome) []models.Warning {
	if check.Status != models.StatusClosed || outcome.Result == models.ResultClear {
		return nil
	}

	switch data := outcome.Data.(type) {
	case models.AddressData:
		return classifyAddress(outcome.Result, data)
	case models.FacialSimilarityData:
		return classifyFacialSimilarity(data)
	case models.DocumentData:
		return classifyDocument(data)
	case models.IdentityData:
		return classifyIdentity(check.Type, data)
	case models.ScreeningData:
		return classifyScreening(outcome.TaskType, data)
	default:
		return classifyUnrecognized(outcome.TaskType, outcome.Result)
	}
}

func classifyAddress(result models.Result, data models.AddressData) []models.Warning {
	var warnings []models.Warning
	if result == models.ResultFail {
		warnings = append(warnings, models.NewWarning(models.SeverityFail, "Address count less than 2"))
	}
	if data.Quality != nil && *data.Quality < addressQualityThreshold {
		warnings = append(warnings, models.NewWarning(models.SeverityWarning, "Address quality not sufficient"))
	}
	return warnings
}

func classifyFacialSimilarity(data models.FacialSimilarityData) []models.Warning {
	if data.Comparison == nil || *data.Comparison == models.ComparisonGoodMatch {
		return nil
	}
	message := "Facial similarity only 80%"
	if *data.Comparison == models.ComparisonPoorMatch {
		message = "Facial similarity only 60%"
	}
	return []models.Warning{models.NewWarning(models.SeverityInfo, message)}
}

func classifyDocument(data models.DocumentData) []models.Warning {
	if data.Integrity == nil || *data.Integrity == models.IntegrityPassed {
		return nil
	}
	return []models.Warning{models.NewWarning(models.SeverityFail, "Document integrity failed")}
}

func classifyIdentity(checkType models.CheckTypeID, data models.IdentityData) []models.Warning {
	if checkType != models.CheckTypeElectronicID || data.NFCUsed == nil || *data.NFCUsed {
		return nil
	}
	return []models.Warning{models.NewWarning(models.SeverityInfo, "Enhanced Downgrade")}
}

func classifyScreening(taskType models.TaskType, data models.ScreeningData) []models.Warning {
	if data.TotalHits == nil || *data.TotalHits <= 0 {
		return nil
	}
	label := "PEP"
	if taskType == models.TaskSanctions {
		label = "Sanctions"
	}
	return []models.Warning{
		models.NewWarning(models.SeverityWarning, strconv.Itoa(*data.TotalHits)+" "+label+" hits"),
	}
}

func classifyUnrecognized(taskType models.TaskType, result models.Result) []models.Warning {
	switch result {
	case models.ResultAlert:
		return []models.Warning{models.NewWarning(models.SeverityWarning, string(taskType)+" alert")}
	case models.ResultFail:
		return []models.Warning{models.NewWarning(models.SeverityFail, string(taskType)+" failed")}
	}
	return nil
}
