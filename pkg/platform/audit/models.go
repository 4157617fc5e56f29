package audit

import (
	"context"
	"time"

	id "casecheck/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// submissions, provider verdicts, soft-policy overrides.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from the check service to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	CheckID   id.CheckID    `json:"check_id"`
	MatterID  id.MatterID   `json:"matter_id"`
	Action    string        `json:"action"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	// ActorID is the user or provider delivery responsible for the action.
	ActorID string            `json:"actor_id,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type AuditEvent string

const (
	EventCheckCreated        AuditEvent = "check_created"
	EventTasksSelected       AuditEvent = "tasks_selected"
	EventCheckSubmitted      AuditEvent = "check_submitted"
	EventSoftPolicyConfirmed AuditEvent = "soft_policy_confirmed"
	EventOutcomeRecorded     AuditEvent = "outcome_recorded"
	EventStatusChanged       AuditEvent = "status_changed"
	EventAssessmentRecorded  AuditEvent = "assessment_recorded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCheckSubmitted:      CategoryCompliance,
	EventSoftPolicyConfirmed: CategoryCompliance,
	EventOutcomeRecorded:     CategoryCompliance,
	EventAssessmentRecorded:  CategoryCompliance,
	EventStatusChanged:       CategoryCompliance,

	EventCheckCreated:  CategoryOperations,
	EventTasksSelected: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events and lists them per check.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCheck(ctx context.Context, checkID id.CheckID) ([]Event, error)
}

// Sink receives a copy of every persisted event (e.g. a message broker).
type Sink interface {
	Append(ctx context.Context, event Event) error
}
