package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casecheck/internal/checks/catalog"
	"casecheck/internal/checks/handler/mocks"
	"casecheck/internal/checks/models"
	"casecheck/internal/checks/rules"
	"casecheck/internal/checks/service"
	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
	authmw "casecheck/pkg/platform/middleware/auth"
	"casecheck/pkg/requestcontext"
	"casecheck/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/service-mocks.go -package=mocks Service

const webhookToken = "provider-token"

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*authmw.Claims, error) {
	if token != webhookToken {
		return nil, errors.New("invalid token")
	}
	return &authmw.Claims{Provider: "idv-provider", JTI: "jti-1"}, nil
}

// =============================================================================
// Check Handler Test Suite
// =============================================================================
// Justification for handler tests: status mapping and body shapes are the
// HTTP contract. The service is mocked so each test pins one mapping.

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	now     time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.now = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	h := New(s.service, stubValidator{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) newCheck() *models.Check {
	return models.NewCheck(id.NewCheckID(), id.MatterID(uuid.New()), "probate",
		models.CheckTypeElectronicID, models.NewTaskSet(models.TaskIdentity, models.TaskDocument), s.now)
}

// =============================================================================
// Catalog
// =============================================================================

func (s *HandlerSuite) TestCheckTypes() {
	def, err := catalog.Builtin().Lookup("aml-screening")
	s.Require().NoError(err)

	s.Run("list", func() {
		s.service.EXPECT().ListCheckTypes(gomock.Any()).Return([]catalog.Definition{def})

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/check-types"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Contains(rr.Body.String(), `"aml-screening"`)
	})

	s.Run("hidden tasks are relevant but not visible", func() {
		s.service.EXPECT().GetCheckType(gomock.Any(), models.CheckTypeID("aml-screening")).Return(def, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/check-types/aml-screening"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[CheckTypeResponse](s.T(), rr)
		s.Contains(resp.RelevantTasks, "address")
		s.NotContains(resp.VisibleTasks, "address")
	})

	s.Run("unknown type is 404", func() {
		s.service.EXPECT().GetCheckType(gomock.Any(), models.CheckTypeID("nope")).
			Return(catalog.Definition{}, dErrors.New(dErrors.CodeUnknownCheckType, "unknown check type nope"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/check-types/nope"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "unknown_check_type")
	})
}

// =============================================================================
// Create and read
// =============================================================================

func (s *HandlerSuite) TestCreateCheck() {
	matterID := uuid.New()

	s.Run("created", func() {
		check := s.newCheck()
		s.service.EXPECT().CreateCheck(gomock.Any(), service.CreateCheckRequest{
			MatterID:       id.MatterID(matterID),
			MatterCategory: "Conveyancing",
			CheckType:      models.CheckTypeElectronicID,
		}).Return(check, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/checks", map[string]string{
			"matter_id":       matterID.String(),
			"matter_category": " Conveyancing ",
			"check_type":      "Electronic-ID",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[CheckResponse](s.T(), rr)
		s.Equal(check.ID.String(), resp.ID)
		s.Equal([]string{"identity", "document"}, resp.SelectedTasks)
		s.Empty(resp.Outcomes)
	})

	s.Run("unknown check type is unprocessable", func() {
		s.service.EXPECT().CreateCheck(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnknownCheckType, "unknown check type nope"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/checks", map[string]string{
			"matter_id":  matterID.String(),
			"check_type": "nope",
		}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "unknown_check_type")
	})

	s.Run("missing matter id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/checks", map[string]string{
			"check_type": "electronic-id",
		}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("unknown fields are rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/checks",
			`{"matter_id":"`+matterID.String()+`","check_type":"electronic-id","priority":1}`))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestGetCheck() {
	s.Run("malformed id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/checks/not-a-uuid"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("not found", func() {
		checkID := id.NewCheckID()
		s.service.EXPECT().GetCheck(gomock.Any(), checkID).Return(nil, dErrors.New(dErrors.CodeNotFound, "check not found"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/checks/"+checkID.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("matter listing", func() {
		check := s.newCheck()
		s.service.EXPECT().ListByMatter(gomock.Any(), check.MatterID).Return([]*models.Check{check}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/matters/"+check.MatterID.String()+"/checks"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[struct {
			Checks []CheckResponse `json:"checks"`
		}](s.T(), rr)
		s.Require().Len(resp.Checks, 1)
		s.Equal(check.ID.String(), resp.Checks[0].ID)
	})
}

// =============================================================================
// Selection and submission
// =============================================================================

func (s *HandlerSuite) TestSelectTasks() {
	check := s.newCheck()

	s.Run("normalizes task names", func() {
		s.service.EXPECT().SelectTasks(gomock.Any(), check.ID,
			models.NewTaskSet(models.TaskPEPs, models.TaskDocument)).Return(check, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut,
			"/checks/"+check.ID.String()+"/tasks", map[string]any{"tasks": []string{" PEPS", "document", "peps"}}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("locked selection is a conflict", func() {
		s.service.EXPECT().SelectTasks(gomock.Any(), check.ID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "task selection is locked after submission"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut,
			"/checks/"+check.ID.String()+"/tasks", map[string]any{"tasks": []string{"document"}}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_state")
	})

	s.Run("tasks field is required", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut,
			"/checks/"+check.ID.String()+"/tasks", map[string]any{}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *HandlerSuite) TestValidate() {
	check := s.newCheck()
	s.service.EXPECT().Validate(gomock.Any(), check.ID).Return(rules.Verdict{
		Kind:    rules.VerdictMissingRequiredTasks,
		Missing: []models.TaskType{models.TaskFacialSimilarity},
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/checks/"+check.ID.String()+"/validate"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[VerdictResponse](s.T(), rr)
	s.Equal(string(rules.VerdictMissingRequiredTasks), resp.Verdict)
	s.Equal([]string{"facial_similarity"}, resp.Missing)
}

func (s *HandlerSuite) TestSubmit() {
	check := s.newCheck()
	path := "/checks/" + check.ID.String() + "/submit"

	s.Run("missing required tasks is 422 with the gap", func() {
		s.service.EXPECT().Submit(gomock.Any(), check.ID, false).Return(nil,
			&rules.MissingRequiredTasksError{Missing: []models.TaskType{models.TaskDocument, models.TaskFacialSimilarity}})

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, path))

		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("missing_required_tasks", body["error"])
		s.Equal([]any{"document", "facial_similarity"}, body["missing"])
	})

	s.Run("unconfirmed soft policy is 409 with reason", func() {
		s.service.EXPECT().Submit(gomock.Any(), check.ID, false).Return(nil,
			&rules.ConfirmationRequiredError{Reason: rules.ReasonSourceOfFundsRecommended})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			map[string]bool{"confirm_soft_policy": false}))

		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("confirmation_required", body["error"])
		s.Equal(rules.ReasonSourceOfFundsRecommended, body["reason"])
	})

	s.Run("confirmed submission", func() {
		submitted := check.Clone()
		s.Require().NoError(submitted.MarkSubmitted(s.now))
		s.service.EXPECT().Submit(gomock.Any(), check.ID, true).Return(&service.SubmitResult{
			Check:     submitted,
			Verdict:   rules.Verdict{Kind: rules.VerdictSoftPolicyWarning, Reason: rules.ReasonSourceOfFundsRecommended},
			Confirmed: true,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path,
			map[string]bool{"confirm_soft_policy": true}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[SubmitResponse](s.T(), rr)
		s.True(resp.SoftPolicyConfirmed)
		s.Equal(rules.ReasonSourceOfFundsRecommended, resp.ConfirmedPolicyReason)
		s.NotNil(resp.Check.SubmittedAt)
	})
}

// =============================================================================
// Summaries
// =============================================================================

func (s *HandlerSuite) TestSummary() {
	checkID := id.NewCheckID()
	s.service.EXPECT().Summary(gomock.Any(), checkID).Return(&service.CheckSummary{
		CheckID: checkID,
		Type:    models.CheckTypeElectronicID,
		Status:  models.StatusClosed,
		Summary: rules.Summary{
			Outcome:  models.AssessmentConsider,
			Warnings: []models.Warning{models.NewWarning(models.SeverityFail, "Document integrity failed")},
		},
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/checks/"+checkID.String()+"/summary"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[SummaryResponse](s.T(), rr)
	s.Equal("consider", resp.Outcome)
	s.Equal("derived", resp.OutcomeSource)
	s.Require().Len(resp.Warnings, 1)
	s.Equal("circle-x", resp.Warnings[0].Icon)
}

func (s *HandlerSuite) TestSummaries() {
	first, second := id.NewCheckID(), id.NewCheckID()

	s.Run("preserves order", func() {
		s.service.EXPECT().Summaries(gomock.Any(), []id.CheckID{first, second}).Return([]service.CheckSummary{
			{CheckID: first, Summary: rules.Summary{Outcome: models.AssessmentClear}},
			{CheckID: second, Summary: rules.Summary{Outcome: models.AssessmentConsider, Explicit: true}},
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/checks/summaries",
			map[string]any{"check_ids": []string{first.String(), second.String()}}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[struct {
			Summaries []SummaryResponse `json:"summaries"`
		}](s.T(), rr)
		s.Require().Len(resp.Summaries, 2)
		s.Equal(first.String(), resp.Summaries[0].CheckID)
		s.Equal("provider", resp.Summaries[1].OutcomeSource)
		s.NotNil(resp.Summaries[0].Warnings)
	})

	s.Run("empty batch is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/checks/summaries",
			map[string]any{"check_ids": []string{}}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

// =============================================================================
// Provider webhook
// =============================================================================

func (s *HandlerSuite) TestProviderWebhook() {
	checkID := id.NewCheckID()
	payload := map[string]any{
		"delivery_id": "dlv-1",
		"check_id":    checkID.String(),
		"status":      "CLOSED",
		"outcomes": []map[string]any{
			{"task_type": "peps", "result": "alert", "data": map[string]any{"total_hits": 2}},
		},
		"assessment": map[string]any{"outcome": "consider", "confidence": 0.4},
		"tasks":      []map[string]any{{"type": "peps", "opts": map[string]any{"monitored": true}}},
	}

	s.Run("missing token", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/provider", payload))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("invalid token", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/provider", payload), "forged")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("event is translated for the service", func() {
		check := s.newCheck()
		s.service.EXPECT().ApplyProviderEvent(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event service.ProviderEvent) (*service.EventResult, error) {
				s.Equal("dlv-1", event.DeliveryID)
				s.Equal(checkID, event.CheckID)
				s.Equal(models.StatusClosed, event.Status)
				s.Require().Len(event.Outcomes, 1)
				s.Equal(models.ResultAlert, event.Outcomes[0].Result)
				s.Equal(models.AssessmentConsider, event.Assessment.Outcome)
				s.Equal([]models.ProviderTask{{Type: models.TaskPEPs, Monitored: true}}, event.Tasks)
				s.Nil(event.SafeHarbour)
				return &service.EventResult{Check: check, StatusChanged: true, Recorded: 1}, nil
			})

		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/provider", payload), webhookToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[EventResponse](s.T(), rr)
		s.True(resp.StatusChanged)
		s.Equal(1, resp.Recorded)
	})

	s.Run("unknown result is rejected before the service", func() {
		bad := map[string]any{
			"delivery_id": "dlv-2",
			"check_id":    checkID.String(),
			"outcomes":    []map[string]any{{"task_type": "peps", "result": "maybe"}},
		}
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/provider", bad), webhookToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("duplicate outcome maps to conflict", func() {
		s.service.EXPECT().ApplyProviderEvent(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "outcome already recorded for task peps"))

		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/provider", payload), webhookToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *HandlerSuite) TestRouteLimiters() {
	var webhookActor string
	rejectAPI := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	recordWebhook := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			webhookActor = requestcontext.ActorID(r.Context())
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}

	h := New(s.service, stubValidator{}, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithAPILimiter(rejectAPI), WithWebhookLimiter(recordWebhook))
	router := chi.NewRouter()
	h.Register(router)

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/check-types"))
	s.Equal(http.StatusTooManyRequests, rr.Code)

	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/provider", map[string]any{}), webhookToken)
	rr = testutil.DoRequest(router, req)
	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.Equal("idv-provider", webhookActor, "webhook limiter runs after authentication")
}
