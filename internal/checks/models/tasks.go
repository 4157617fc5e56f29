package models

import (
	"encoding/json"
	"slices"
	"strings"
)

// TaskType names one verification capability offered by the provider.
// Unknown values are legal: providers add task types faster than we ship
// rules for them, and the classifier falls back to a default rule.
type TaskType string

const (
	TaskIdentity         TaskType = "identity"
	TaskDocument         TaskType = "document"
	TaskFacialSimilarity TaskType = "facial_similarity"
	TaskAddress          TaskType = "address"
	TaskPEPs             TaskType = "peps"
	TaskSanctions        TaskType = "sanctions"
	TaskSourceOfFunds    TaskType = "source_of_funds"
)

// taskPriority is the declared display/ordering priority of known task types.
// Unknown types sort after every known type, alphabetically.
var taskPriority = map[TaskType]int{
	TaskIdentity:         0,
	TaskDocument:         1,
	TaskFacialSimilarity: 2,
	TaskAddress:          3,
	TaskPEPs:             4,
	TaskSanctions:        5,
	TaskSourceOfFunds:    6,
}

// IsKnown reports whether the task type has dedicated handling.
func (t TaskType) IsKnown() bool {
	_, ok := taskPriority[t]
	return ok
}

func (t TaskType) String() string { return string(t) }

// ParseTaskType normalises a task type coming from a client or provider.
func ParseTaskType(s string) (TaskType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	return TaskType(s), true
}

// CompareTaskTypes orders task types by declared priority.
func CompareTaskTypes(a, b TaskType) int {
	pa, okA := taskPriority[a]
	pb, okB := taskPriority[b]
	switch {
	case okA && okB:
		return pa - pb
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(string(a), string(b))
	}
}

// TaskSet is an unordered set of task types. It serialises as a sorted array.
type TaskSet map[TaskType]struct{}

// NewTaskSet builds a set from the given task types.
func NewTaskSet(tasks ...TaskType) TaskSet {
	set := make(TaskSet, len(tasks))
	for _, t := range tasks {
		set[t] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s TaskSet) Has(t TaskType) bool {
	_, ok := s[t]
	return ok
}

// Sorted returns the members in declared priority order.
func (s TaskSet) Sorted() []TaskType {
	out := make([]TaskType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.SortFunc(out, CompareTaskTypes)
	return out
}

// Missing returns the members of required absent from s, in priority order.
func (s TaskSet) Missing(required TaskSet) []TaskType {
	var missing []TaskType
	for _, t := range required.Sorted() {
		if !s.Has(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// SubsetOf reports whether every member of s is in other.
func (s TaskSet) SubsetOf(other TaskSet) bool {
	for t := range s {
		if !other.Has(t) {
			return false
		}
	}
	return true
}

// Without returns a new set with the members of other removed.
func (s TaskSet) Without(other TaskSet) TaskSet {
	out := make(TaskSet, len(s))
	for t := range s {
		if !other.Has(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Clone returns an independent copy.
func (s TaskSet) Clone() TaskSet {
	out := make(TaskSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Strings returns the sorted members as plain strings.
func (s TaskSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, t := range sorted {
		out[i] = string(t)
	}
	return out
}

func (s TaskSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *TaskSet) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	set := make(TaskSet, len(raw))
	for _, r := range raw {
		if t, ok := ParseTaskType(r); ok {
			set[t] = struct{}{}
		}
	}
	*s = set
	return nil
}
