package models

import "strings"

// CheckStatus is the provider-driven lifecycle of a check.
//
//	open -> processing -> {closed, aborted, cancelled}
//
// A check may also go straight from open to a terminal status when the
// provider gives up before starting work. Terminal statuses are sinks.
type CheckStatus string

const (
	StatusOpen       CheckStatus = "open"
	StatusProcessing CheckStatus = "processing"
	StatusClosed     CheckStatus = "closed"
	StatusAborted    CheckStatus = "aborted"
	StatusCancelled  CheckStatus = "cancelled"
)

var statusTransitions = map[CheckStatus][]CheckStatus{
	StatusOpen:       {StatusProcessing, StatusClosed, StatusAborted, StatusCancelled},
	StatusProcessing: {StatusClosed, StatusAborted, StatusCancelled},
}

// ParseCheckStatus normalises a provider status string.
func ParseCheckStatus(s string) (CheckStatus, bool) {
	st := CheckStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// IsValid checks if the status is one of the supported enum values.
func (s CheckStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusProcessing, StatusClosed, StatusAborted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s CheckStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusAborted || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s CheckStatus) CanTransitionTo(next CheckStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
