package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Result is the provider's verdict for one task.
type Result string

const (
	ResultClear Result = "clear"
	ResultAlert Result = "alert"
	ResultFail  Result = "fail"
)

// IsValid checks if the result is one of the supported enum values.
func (r Result) IsValid() bool {
	switch r {
	case ResultClear, ResultAlert, ResultFail:
		return true
	}
	return false
}

// ParseResult normalises a provider result string.
func ParseResult(s string) (Result, bool) {
	r := Result(strings.ToLower(strings.TrimSpace(s)))
	return r, r.IsValid()
}

// OutcomeData is the task-specific payload of a TaskOutcome. The set of
// variants is closed; providers' loosely typed maps are decoded into one of
// them by DecodeOutcomeData, with UnrecognizedData as the fallback.
type OutcomeData interface {
	outcomeData()
}

// AddressData carries the address verification signals.
type AddressData struct {
	Quality *float64
}

// FacialSimilarityData carries the selfie-to-document comparison verdict.
type FacialSimilarityData struct {
	Comparison *string
}

// DocumentData carries the document integrity verdict.
type DocumentData struct {
	Integrity *string
}

// IdentityData carries identity-task signals. NFCUsed is false when the chip
// of the identity document was not read.
type IdentityData struct {
	NFCUsed *bool
}

// ScreeningData is shared by the PEP and sanctions screening tasks.
type ScreeningData struct {
	TotalHits *int
}

// UnrecognizedData keeps the raw payload of a task type without dedicated rules.
type UnrecognizedData struct {
	Raw map[string]any
}

func (AddressData) outcomeData()          {}
func (FacialSimilarityData) outcomeData() {}
func (DocumentData) outcomeData()         {}
func (IdentityData) outcomeData()         {}
func (ScreeningData) outcomeData()        {}
func (UnrecognizedData) outcomeData()     {}

// Known comparison and integrity values.
const (
	ComparisonGoodMatch = "good_match"
	ComparisonPoorMatch = "poor_match"
	IntegrityPassed     = "passed"
)

// TaskOutcome is one provider result for one task. Raw is kept verbatim for
// persistence; Data is the decoded view the rules work with.
type TaskOutcome struct {
	TaskType   TaskType
	Result     Result
	Raw        map[string]any
	Data       OutcomeData
	RecordedAt time.Time
}

// NewTaskOutcome decodes raw provider data for the task type.
func NewTaskOutcome(taskType TaskType, result Result, raw map[string]any, recordedAt time.Time) TaskOutcome {
	return TaskOutcome{
		TaskType:   taskType,
		Result:     result,
		Raw:        raw,
		Data:       DecodeOutcomeData(taskType, raw),
		RecordedAt: recordedAt,
	}
}

// DecodeOutcomeData maps a provider data map to the variant for the task
// type. Absent or mistyped fields decode to nil: they carry no signal.
func DecodeOutcomeData(taskType TaskType, raw map[string]any) OutcomeData {
	switch taskType {
	case TaskAddress:
		return AddressData{Quality: numberField(raw, "quality")}
	case TaskFacialSimilarity:
		return FacialSimilarityData{Comparison: stringField(raw, "comparison")}
	case TaskDocument:
		return DocumentData{Integrity: stringField(raw, "integrity")}
	case TaskIdentity:
		return IdentityData{NFCUsed: boolField(raw, "nfc_used")}
	case TaskPEPs, TaskSanctions:
		return ScreeningData{TotalHits: intField(raw, "total_hits")}
	default:
		return UnrecognizedData{Raw: raw}
	}
}

func numberField(raw map[string]any, key string) *float64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func intField(raw map[string]any, key string) *int {
	f := numberField(raw, key)
	if f == nil || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

func stringField(raw map[string]any, key string) *string {
	s, ok := raw[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func boolField(raw map[string]any, key string) *bool {
	switch v := raw[key].(type) {
	case bool:
		return &v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &b
	}
	return nil
}
