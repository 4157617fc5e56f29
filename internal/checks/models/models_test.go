package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
)

func TestCheckStatus_Transitions(t *testing.T) {
	tests := []struct {
		from CheckStatus
		to   CheckStatus
		want bool
	}{
		{StatusOpen, StatusProcessing, true},
		{StatusOpen, StatusCancelled, true},
		{StatusProcessing, StatusClosed, true},
		{StatusProcessing, StatusAborted, true},
		{StatusProcessing, StatusOpen, false},
		{StatusClosed, StatusProcessing, false},
		{StatusAborted, StatusClosed, false},
		{StatusCancelled, StatusOpen, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	for _, terminal := range []CheckStatus{StatusClosed, StatusAborted, StatusCancelled} {
		assert.True(t, terminal.IsTerminal())
	}
	assert.False(t, StatusProcessing.IsTerminal())
}

func TestDecodeOutcomeData(t *testing.T) {
	t.Run("address quality accepts json numbers", func(t *testing.T) {
		var raw map[string]any
		require.NoError(t, json.Unmarshal([]byte(`{"quality": 79}`), &raw))
		data, ok := DecodeOutcomeData(TaskAddress, raw).(AddressData)
		require.True(t, ok)
		require.NotNil(t, data.Quality)
		assert.Equal(t, 79.0, *data.Quality)
	})

	t.Run("mistyped fields carry no signal", func(t *testing.T) {
		data := DecodeOutcomeData(TaskPEPs, map[string]any{"total_hits": "many"}).(ScreeningData)
		assert.Nil(t, data.TotalHits)

		doc := DecodeOutcomeData(TaskDocument, map[string]any{"integrity": 3}).(DocumentData)
		assert.Nil(t, doc.Integrity)
	})

	t.Run("fractional hit counts are ignored", func(t *testing.T) {
		data := DecodeOutcomeData(TaskSanctions, map[string]any{"total_hits": 1.5}).(ScreeningData)
		assert.Nil(t, data.TotalHits)
	})

	t.Run("nfc flag accepts bool and string", func(t *testing.T) {
		data := DecodeOutcomeData(TaskIdentity, map[string]any{"nfc_used": false}).(IdentityData)
		require.NotNil(t, data.NFCUsed)
		assert.False(t, *data.NFCUsed)

		data = DecodeOutcomeData(TaskIdentity, map[string]any{"nfc_used": "true"}).(IdentityData)
		require.NotNil(t, data.NFCUsed)
		assert.True(t, *data.NFCUsed)
	})

	t.Run("unknown task types keep raw data", func(t *testing.T) {
		raw := map[string]any{"score": 12}
		data := DecodeOutcomeData(TaskType("bank_statement"), raw).(UnrecognizedData)
		assert.Equal(t, raw, data.Raw)
	})

	t.Run("nil data decodes to empty variant", func(t *testing.T) {
		data := DecodeOutcomeData(TaskAddress, nil).(AddressData)
		assert.Nil(t, data.Quality)
	})
}

func TestTaskSet(t *testing.T) {
	set := NewTaskSet(TaskSanctions, TaskType("zeta"), TaskIdentity, TaskType("alpha"))
	assert.Equal(t, []TaskType{TaskIdentity, TaskSanctions, "alpha", "zeta"}, set.Sorted())

	required := NewTaskSet(TaskDocument, TaskIdentity, TaskFacialSimilarity)
	assert.Equal(t, []TaskType{TaskDocument, TaskFacialSimilarity}, set.Missing(required))
	assert.True(t, NewTaskSet(TaskIdentity).SubsetOf(set))
	assert.False(t, required.SubsetOf(set))

	b, err := json.Marshal(NewTaskSet(TaskPEPs, TaskAddress))
	require.NoError(t, err)
	assert.JSONEq(t, `["address","peps"]`, string(b))

	var decoded TaskSet
	require.NoError(t, json.Unmarshal([]byte(`[" PEPS ","address",""]`), &decoded))
	assert.Equal(t, NewTaskSet(TaskPEPs, TaskAddress), decoded)
}

func newTestCheck(tasks ...TaskType) *Check {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	return NewCheck(id.NewCheckID(), id.MatterID(id.NewCheckID()), "Conveyancing", CheckTypeElectronicID, NewTaskSet(tasks...), now)
}

func TestCheck_RecordOutcome(t *testing.T) {
	now := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)

	t.Run("appends in recorded order", func(t *testing.T) {
		c := newTestCheck(TaskPEPs, TaskDocument)
		require.NoError(t, c.RecordOutcome(NewTaskOutcome(TaskPEPs, ResultAlert, nil, now)))
		require.NoError(t, c.RecordOutcome(NewTaskOutcome(TaskDocument, ResultClear, nil, now)))
		require.Len(t, c.Outcomes, 2)
		assert.Equal(t, TaskPEPs, c.Outcomes[0].TaskType)
		assert.Equal(t, TaskDocument, c.Outcomes[1].TaskType)
	})

	t.Run("rejects tasks that were not selected", func(t *testing.T) {
		c := newTestCheck(TaskPEPs)
		err := c.RecordOutcome(NewTaskOutcome(TaskSanctions, ResultClear, nil, now))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects a second outcome for the same task", func(t *testing.T) {
		c := newTestCheck(TaskPEPs)
		require.NoError(t, c.RecordOutcome(NewTaskOutcome(TaskPEPs, ResultClear, nil, now)))
		err := c.RecordOutcome(NewTaskOutcome(TaskPEPs, ResultAlert, nil, now))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("rejects outcomes on terminal checks", func(t *testing.T) {
		c := newTestCheck(TaskPEPs)
		_, err := c.ApplyStatus(StatusCancelled, now)
		require.NoError(t, err)
		err = c.RecordOutcome(NewTaskOutcome(TaskPEPs, ResultClear, nil, now))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestCheck_SelectionLifecycle(t *testing.T) {
	now := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)
	c := newTestCheck(TaskIdentity)
	assert.True(t, c.IsConveyancing())

	require.NoError(t, c.SelectTasks(NewTaskSet(TaskIdentity, TaskDocument), now))
	require.NoError(t, c.MarkSubmitted(now))
	assert.True(t, c.IsSubmitted())

	err := c.SelectTasks(NewTaskSet(TaskIdentity), now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	err = c.MarkSubmitted(now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestCheck_ApplyStatus(t *testing.T) {
	now := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)
	c := newTestCheck(TaskIdentity)

	changed, err := c.ApplyStatus(StatusOpen, now)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = c.ApplyStatus(StatusProcessing, now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = c.ApplyStatus(StatusClosed, now)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = c.ApplyStatus(StatusProcessing, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestCheck_CloneIsIndependent(t *testing.T) {
	now := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)
	c := newTestCheck(TaskPEPs)
	require.NoError(t, c.RecordOutcome(NewTaskOutcome(TaskPEPs, ResultAlert, map[string]any{"total_hits": 2}, now)))
	c.Assessment = &Assessment{Outcome: AssessmentConsider, Reasons: []string{"pep"}}

	clone := c.Clone()
	clone.SelectedTasks[TaskSanctions] = struct{}{}
	clone.Outcomes[0].Raw["total_hits"] = 5
	clone.Assessment.Reasons[0] = "changed"

	assert.False(t, c.SelectedTasks.Has(TaskSanctions))
	assert.Equal(t, 2, c.Outcomes[0].Raw["total_hits"])
	assert.Equal(t, "pep", c.Assessment.Reasons[0])
}
