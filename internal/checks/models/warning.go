package models

// Severity ranks a warning for reviewer attention.
type Severity string

const (
	SeverityFail    Severity = "fail"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Icon returns the icon name the UI renders for the severity.
func (s Severity) Icon() string {
	switch s {
	case SeverityFail:
		return "circle-x"
	case SeverityWarning:
		return "triangle-alert"
	default:
		return "info"
	}
}

// Warning is derived on demand from outcomes and never persisted.
type Warning struct {
	Severity Severity `json:"severity"`
	Icon     string   `json:"icon"`
	Message  string   `json:"message"`
}

// NewWarning builds a warning with the icon for its severity.
func NewWarning(severity Severity, message string) Warning {
	return Warning{Severity: severity, Icon: severity.Icon(), Message: message}
}
