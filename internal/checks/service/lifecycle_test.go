package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casecheck/internal/checks/catalog"
	"casecheck/internal/checks/metrics"
	"casecheck/internal/checks/models"
	"casecheck/internal/checks/service"
	checkstore "casecheck/internal/checks/store/check"
	"casecheck/internal/checks/store/delivery"
	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
	"casecheck/pkg/platform/audit"
	"casecheck/pkg/platform/audit/publisher"
	auditmemory "casecheck/pkg/platform/audit/store/memory"
	"casecheck/pkg/requestcontext"
)

type harness struct {
	svc     *service.Service
	auditor *publisher.Publisher
	start   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	auditor := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	t.Cleanup(auditor.Close)

	svc, err := service.New(
		catalog.NewStaticRegistry(catalog.Builtin()),
		checkstore.NewInMemoryStore(),
		service.WithAuditPublisher(auditor),
		service.WithDeliveryStore(delivery.NewInMemoryStore()),
		service.WithMetrics(metrics.NewWith(prometheus.NewRegistry())),
	)
	require.NoError(t, err)
	return &harness{svc: svc, auditor: auditor, start: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (h *harness) at(offset time.Duration) context.Context {
	ctx := requestcontext.WithTime(context.Background(), h.start.Add(offset))
	return requestcontext.WithActorID(ctx, "fee-earner-7")
}

// TestCheckLifecycle walks an enhanced identity check from creation to the
// reviewer summary the way a matter would see it.
func TestCheckLifecycle(t *testing.T) {
	h := newHarness(t)
	matterID := id.MatterID(uuid.New())

	check, err := h.svc.CreateCheck(h.at(0), service.CreateCheckRequest{
		MatterID:       matterID,
		MatterCategory: "Conveyancing",
		CheckType:      models.CheckTypeElectronicID,
	})
	require.NoError(t, err)

	// Defaults do not include source of funds, so a conveyancing matter
	// needs confirmation.
	_, err = h.svc.Submit(h.at(time.Minute), check.ID, false)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConfirmationRequired))

	_, err = h.svc.SelectTasks(h.at(2*time.Minute), check.ID, models.NewTaskSet(
		models.TaskIdentity, models.TaskDocument, models.TaskFacialSimilarity,
		models.TaskPEPs, models.TaskSourceOfFunds,
	))
	require.NoError(t, err)

	submitted, err := h.svc.Submit(h.at(3*time.Minute), check.ID, false)
	require.NoError(t, err)
	assert.False(t, submitted.Confirmed)

	_, err = h.svc.ApplyProviderEvent(h.at(10*time.Minute), service.ProviderEvent{
		DeliveryID: "dlv-1",
		CheckID:    check.ID,
		Status:     models.StatusProcessing,
		Outcomes: []service.OutcomeReport{
			{TaskType: models.TaskPEPs, Result: models.ResultAlert, Data: map[string]any{"total_hits": 2.0}},
			{TaskType: models.TaskIdentity, Result: models.ResultAlert, Data: map[string]any{"nfc_used": false}},
		},
	})
	require.NoError(t, err)

	// Warnings only appear once the check is closed.
	summary, err := h.svc.Summary(h.at(11*time.Minute), check.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Warnings)
	assert.Equal(t, models.AssessmentConsider, summary.Outcome)
	assert.False(t, summary.Explicit)

	result, err := h.svc.ApplyProviderEvent(h.at(20*time.Minute), service.ProviderEvent{
		DeliveryID: "dlv-2",
		CheckID:    check.ID,
		Status:     models.StatusClosed,
		Outcomes: []service.OutcomeReport{
			{TaskType: models.TaskDocument, Result: models.ResultFail, Data: map[string]any{"integrity": "failed"}},
			{TaskType: models.TaskFacialSimilarity, Result: models.ResultClear, Data: map[string]any{"comparison": "poor_match"}},
		},
		Assessment:  &models.Assessment{Outcome: models.AssessmentClear, Confidence: 0.92},
		SafeHarbour: &models.SafeHarbour{IsCompliant: true},
		Tasks:       []models.ProviderTask{{Type: models.TaskPEPs, Monitored: true}},
	})
	require.NoError(t, err)
	assert.True(t, result.StatusChanged)
	assert.Equal(t, 2, result.Recorded)

	summary, err = h.svc.Summary(h.at(21*time.Minute), check.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentClear, summary.Outcome, "explicit provider assessment wins")
	assert.True(t, summary.Explicit)
	assert.True(t, summary.MonitoringEnabled)
	assert.True(t, summary.SafeHarbourBadgeVisible)
	assert.Equal(t, []models.Warning{
		models.NewWarning(models.SeverityWarning, "2 PEP hits"),
		models.NewWarning(models.SeverityInfo, "Enhanced Downgrade"),
		models.NewWarning(models.SeverityFail, "Document integrity failed"),
	}, summary.Warnings)

	// Replayed delivery is acknowledged and changes nothing.
	replay, err := h.svc.ApplyProviderEvent(h.at(30*time.Minute), service.ProviderEvent{
		DeliveryID: "dlv-2",
		CheckID:    check.ID,
		Status:     models.StatusClosed,
	})
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assert.Len(t, replay.Check.Outcomes, 4)

	checks, err := h.svc.ListByMatter(h.at(31*time.Minute), matterID)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, models.StatusClosed, checks[0].Status)

	events, err := h.auditor.List(context.Background(), check.ID)
	require.NoError(t, err)
	actions := make([]string, len(events))
	for i, e := range events {
		actions[i] = e.Action
	}
	assert.Equal(t, []string{
		string(audit.EventCheckCreated),
		string(audit.EventTasksSelected),
		string(audit.EventCheckSubmitted),
		string(audit.EventOutcomeRecorded),
		string(audit.EventOutcomeRecorded),
		string(audit.EventStatusChanged),
		string(audit.EventOutcomeRecorded),
		string(audit.EventOutcomeRecorded),
		string(audit.EventAssessmentRecorded),
		string(audit.EventStatusChanged),
	}, actions)
	assert.Equal(t, "fee-earner-7", events[0].ActorID)
}

func TestRejectedEventCanBeRetried(t *testing.T) {
	h := newHarness(t)
	check, err := h.svc.CreateCheck(h.at(0), service.CreateCheckRequest{
		MatterID:  id.MatterID(uuid.New()),
		CheckType: models.CheckTypeElectronicID,
	})
	require.NoError(t, err)

	event := service.ProviderEvent{DeliveryID: "dlv-retry", CheckID: check.ID, Status: models.StatusProcessing}
	_, err = h.svc.ApplyProviderEvent(h.at(time.Minute), event)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = h.svc.Submit(h.at(2*time.Minute), check.ID, false)
	require.NoError(t, err)

	result, err := h.svc.ApplyProviderEvent(h.at(3*time.Minute), event)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, models.StatusProcessing, result.Check.Status)
}

func TestConcurrentDeliveriesForOneCheck(t *testing.T) {
	h := newHarness(t)
	check, err := h.svc.CreateCheck(h.at(0), service.CreateCheckRequest{
		MatterID:  id.MatterID(uuid.New()),
		CheckType: models.CheckTypeElectronicID,
	})
	require.NoError(t, err)
	_, err = h.svc.Submit(h.at(time.Minute), check.ID, false)
	require.NoError(t, err)

	tasks := []models.TaskType{
		models.TaskIdentity, models.TaskDocument, models.TaskFacialSimilarity, models.TaskPEPs, models.TaskSanctions,
	}
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Go(func() {
			_, err := h.svc.ApplyProviderEvent(h.at(2*time.Minute), service.ProviderEvent{
				DeliveryID: "dlv-" + string(rune('a'+i)),
				CheckID:    check.ID,
				Outcomes:   []service.OutcomeReport{{TaskType: task, Result: models.ResultClear}},
			})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	got, err := h.svc.GetCheck(h.at(3*time.Minute), check.ID)
	require.NoError(t, err)
	assert.Len(t, got.Outcomes, len(tasks))
}
