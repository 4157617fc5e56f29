package check

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"casecheck/internal/checks/models"
	"casecheck/internal/checks/ports"
	id "casecheck/pkg/domain"
	"casecheck/pkg/platform/sentinel"
)

// StoreContractSuite runs the same behaviour checks against every CheckStore.
type StoreContractSuite struct {
	suite.Suite
	newStore func() ports.CheckStore
	store    ports.CheckStore
	ctx      context.Context
	now      time.Time
}

func (s *StoreContractSuite) SetupTest() {
	s.store = s.newStore()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func (s *StoreContractSuite) newCheck(matterID id.MatterID, tasks ...models.TaskType) *models.Check {
	return models.NewCheck(id.NewCheckID(), matterID, "conveyancing", models.CheckTypeElectronicID,
		models.NewTaskSet(tasks...), s.now)
}

func (s *StoreContractSuite) TestCreateAndFind() {
	check := s.newCheck(id.MatterID(uuid.New()), models.TaskIdentity, models.TaskDocument)
	s.Require().NoError(s.store.Create(s.ctx, check))

	found, err := s.store.FindByID(s.ctx, check.ID)
	s.Require().NoError(err)
	s.Equal(check.ID, found.ID)
	s.Equal(check.MatterID, found.MatterID)
	s.Equal("conveyancing", found.MatterCategory)
	s.Equal(models.StatusOpen, found.Status)
	s.Equal([]models.TaskType{models.TaskIdentity, models.TaskDocument}, found.SelectedTasks.Sorted())
	s.True(found.CreatedAt.Equal(s.now))
	s.Nil(found.SubmittedAt)
	s.Empty(found.Outcomes)
}

func (s *StoreContractSuite) TestCreateDuplicate() {
	check := s.newCheck(id.MatterID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, check))
	err := s.store.Create(s.ctx, check)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *StoreContractSuite) TestFindUnknown() {
	_, err := s.store.FindByID(s.ctx, id.NewCheckID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestUpdateUnknown() {
	err := s.store.Update(s.ctx, s.newCheck(id.MatterID(uuid.New())))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreContractSuite) TestUpdatePersistsOutcomesInRecordedOrder() {
	check := s.newCheck(id.MatterID(uuid.New()), models.TaskAddress, models.TaskPEPs, models.TaskDocument)
	s.Require().NoError(s.store.Create(s.ctx, check))

	s.Require().NoError(check.MarkSubmitted(s.now.Add(time.Minute)))
	_, err := check.ApplyStatus(models.StatusProcessing, s.now.Add(2*time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(check.RecordOutcome(models.NewTaskOutcome(models.TaskPEPs, models.ResultAlert,
		map[string]any{"total_hits": 2}, s.now.Add(3*time.Minute))))
	s.Require().NoError(check.RecordOutcome(models.NewTaskOutcome(models.TaskAddress, models.ResultFail,
		map[string]any{"quality": 72.5}, s.now.Add(4*time.Minute))))
	s.Require().NoError(s.store.Update(s.ctx, check))

	s.Require().NoError(check.RecordOutcome(models.NewTaskOutcome(models.TaskDocument, models.ResultClear,
		nil, s.now.Add(5*time.Minute))))
	check.Assessment = &models.Assessment{Outcome: models.AssessmentConsider, Confidence: 0.4, Reasons: []string{"pep"}}
	check.SafeHarbour = &models.SafeHarbour{IsCompliant: true, Criteria: []string{"nfc"}}
	check.ProviderTasks = []models.ProviderTask{{Type: models.TaskPEPs, Monitored: true}}
	s.Require().NoError(s.store.Update(s.ctx, check))

	found, err := s.store.FindByID(s.ctx, check.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusProcessing, found.Status)
	s.Require().NotNil(found.SubmittedAt)
	s.Require().Len(found.Outcomes, 3)
	s.Equal(models.TaskPEPs, found.Outcomes[0].TaskType)
	s.Equal(models.TaskAddress, found.Outcomes[1].TaskType)
	s.Equal(models.TaskDocument, found.Outcomes[2].TaskType)

	hits, ok := found.Outcomes[0].Data.(models.ScreeningData)
	s.Require().True(ok)
	s.Require().NotNil(hits.TotalHits)
	s.Equal(2, *hits.TotalHits)

	quality, ok := found.Outcomes[1].Data.(models.AddressData)
	s.Require().True(ok)
	s.Require().NotNil(quality.Quality)
	s.InDelta(72.5, *quality.Quality, 0.001)

	s.Require().NotNil(found.Assessment)
	s.Equal(models.AssessmentConsider, found.Assessment.Outcome)
	s.Equal([]string{"pep"}, found.Assessment.Reasons)
	s.Require().NotNil(found.SafeHarbour)
	s.True(found.SafeHarbour.IsCompliant)
	s.Equal([]models.ProviderTask{{Type: models.TaskPEPs, Monitored: true}}, found.ProviderTasks)
}

func (s *StoreContractSuite) TestUpdateRejectsDroppedOutcomes() {
	check := s.newCheck(id.MatterID(uuid.New()), models.TaskDocument)
	s.Require().NoError(check.RecordOutcome(models.NewTaskOutcome(models.TaskDocument, models.ResultClear, nil, s.now)))
	s.Require().NoError(s.store.Create(s.ctx, check))

	check.Outcomes = nil
	err := s.store.Update(s.ctx, check)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *StoreContractSuite) TestReturnedChecksAreSnapshots() {
	check := s.newCheck(id.MatterID(uuid.New()), models.TaskDocument)
	s.Require().NoError(s.store.Create(s.ctx, check))

	found, err := s.store.FindByID(s.ctx, check.ID)
	s.Require().NoError(err)
	found.SelectedTasks[models.TaskPEPs] = struct{}{}

	again, err := s.store.FindByID(s.ctx, check.ID)
	s.Require().NoError(err)
	s.False(again.SelectedTasks.Has(models.TaskPEPs))
}

func (s *StoreContractSuite) TestListByMatter() {
	matterID := id.MatterID(uuid.New())
	first := s.newCheck(matterID)
	second := s.newCheck(matterID)
	second.CreatedAt = s.now.Add(time.Hour)
	other := s.newCheck(id.MatterID(uuid.New()))

	for _, c := range []*models.Check{second, other, first} {
		s.Require().NoError(s.store.Create(s.ctx, c))
	}

	checks, err := s.store.ListByMatter(s.ctx, matterID)
	s.Require().NoError(err)
	s.Require().Len(checks, 2)
	s.Equal(first.ID, checks[0].ID)
	s.Equal(second.ID, checks[1].ID)

	none, err := s.store.ListByMatter(s.ctx, id.MatterID(uuid.New()))
	s.Require().NoError(err)
	s.Empty(none)
}
