package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"casecheck/internal/checks/catalog"
	"casecheck/internal/checks/models"
	"casecheck/internal/checks/rules"
	"casecheck/internal/checks/service"
	id "casecheck/pkg/domain"
	dErrors "casecheck/pkg/domain-errors"
	"casecheck/pkg/platform/httputil"
	authmw "casecheck/pkg/platform/middleware/auth"
	"casecheck/pkg/requestcontext"
)

// Service defines the check operations exposed over HTTP.
type Service interface {
	ListCheckTypes(ctx context.Context) []catalog.Definition
	GetCheckType(ctx context.Context, typeID models.CheckTypeID) (catalog.Definition, error)
	CreateCheck(ctx context.Context, req service.CreateCheckRequest) (*models.Check, error)
	GetCheck(ctx context.Context, checkID id.CheckID) (*models.Check, error)
	ListByMatter(ctx context.Context, matterID id.MatterID) ([]*models.Check, error)
	SelectTasks(ctx context.Context, checkID id.CheckID, tasks models.TaskSet) (*models.Check, error)
	Validate(ctx context.Context, checkID id.CheckID) (rules.Verdict, error)
	Submit(ctx context.Context, checkID id.CheckID, confirmSoftPolicy bool) (*service.SubmitResult, error)
	Summary(ctx context.Context, checkID id.CheckID) (*service.CheckSummary, error)
	Summaries(ctx context.Context, checkIDs []id.CheckID) ([]service.CheckSummary, error)
	ApplyProviderEvent(ctx context.Context, event service.ProviderEvent) (*service.EventResult, error)
}

// Handler wires check endpoints to the check service.
type Handler struct {
	service      Service
	webhookAuth  authmw.TokenValidator
	logger       *slog.Logger
	apiLimit     func(http.Handler) http.Handler
	webhookLimit func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithAPILimiter guards the check endpoints.
func WithAPILimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.apiLimit = mw
	}
}

// WithWebhookLimiter guards the provider webhook. It runs after bearer
// authentication so it can key on the provider.
func WithWebhookLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.webhookLimit = mw
	}
}

// New constructs a check handler. webhookAuth validates the provider's
// bearer tokens on the webhook route.
func New(service Service, webhookAuth authmw.TokenValidator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:     service,
		webhookAuth: webhookAuth,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func passthrough(next http.Handler) http.Handler { return next }

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}

// Register mounts check endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(api chi.Router) {
		api.Use(orPassthrough(h.apiLimit))
		api.Get("/check-types", h.HandleListCheckTypes)
		api.Get("/check-types/{id}", h.HandleGetCheckType)

		api.Post("/checks", h.HandleCreateCheck)
		api.Post("/checks/summaries", h.HandleSummaries)
		api.Get("/checks/{id}", h.HandleGetCheck)
		api.Put("/checks/{id}/tasks", h.HandleSelectTasks)
		api.Post("/checks/{id}/validate", h.HandleValidate)
		api.Post("/checks/{id}/submit", h.HandleSubmit)
		api.Get("/checks/{id}/summary", h.HandleSummary)
		api.Get("/matters/{id}/checks", h.HandleListByMatter)
	})

	r.With(authmw.RequireBearer(h.webhookAuth, h.logger), orPassthrough(h.webhookLimit)).
		Post("/webhooks/provider", h.HandleProviderEvent)
}

func (h *Handler) HandleListCheckTypes(w http.ResponseWriter, r *http.Request) {
	defs := h.service.ListCheckTypes(r.Context())
	resp := make([]CheckTypeResponse, len(defs))
	for i, def := range defs {
		resp[i] = FromDefinition(def)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"check_types": resp})
}

func (h *Handler) HandleGetCheckType(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.GetCheckType(r.Context(), models.CheckTypeID(chi.URLParam(r, "id")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDefinition(def))
}

// HandleCreateCheck handles POST /checks. An unknown check type in the body
// is unprocessable rather than a missing resource.
func (h *Handler) HandleCreateCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	check, err := h.service.CreateCheck(ctx, req.ToServiceRequest())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnknownCheckType) {
			httputil.WriteErrorStatus(w, http.StatusUnprocessableEntity, err)
			return
		}
		h.logError(ctx, "failed to create check", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCheck(check))
}

func (h *Handler) HandleGetCheck(w http.ResponseWriter, r *http.Request) {
	checkID, ok := h.checkIDParam(w, r)
	if !ok {
		return
	}
	check, err := h.service.GetCheck(r.Context(), checkID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCheck(check))
}

func (h *Handler) HandleListByMatter(w http.ResponseWriter, r *http.Request) {
	matterID, err := id.ParseMatterID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	checks, err := h.service.ListByMatter(r.Context(), matterID)
	if err != nil {
		h.logError(r.Context(), "failed to list checks", err)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]CheckResponse, len(checks))
	for i, c := range checks {
		resp[i] = FromCheck(c)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"checks": resp})
}

func (h *Handler) HandleSelectTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checkID, ok := h.checkIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SelectTasksRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	check, err := h.service.SelectTasks(ctx, checkID, req.ParsedTasks())
	if err != nil {
		h.logError(ctx, "failed to select tasks", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCheck(check))
}

func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	checkID, ok := h.checkIDParam(w, r)
	if !ok {
		return
	}
	verdict, err := h.service.Validate(r.Context(), checkID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVerdict(verdict))
}

// HandleSubmit handles POST /checks/{id}/submit. Missing required tasks are
// 422 with the missing list; an unconfirmed soft policy is 409 with its
// reason so the client can ask for confirmation and retry.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	checkID, ok := h.checkIDParam(w, r)
	if !ok {
		return
	}

	confirm := false
	if r.ContentLength != 0 && r.Body != http.NoBody {
		req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		confirm = req.ConfirmSoftPolicy
	}

	result, err := h.service.Submit(ctx, checkID, confirm)
	if err != nil {
		var missingErr *rules.MissingRequiredTasksError
		var confirmErr *rules.ConfirmationRequiredError
		switch {
		case errors.As(err, &missingErr):
			httputil.WriteErrorWith(w, err, map[string]any{"missing": toStrings(missingErr.Missing)})
		case errors.As(err, &confirmErr):
			httputil.WriteErrorWith(w, err, map[string]any{"reason": confirmErr.Reason})
		default:
			h.logError(ctx, "failed to submit check", err)
			httputil.WriteError(w, err)
		}
		return
	}

	h.logger.InfoContext(ctx, "check submitted via api",
		"request_id", requestID,
		"check_id", checkID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromSubmitResult(result))
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	checkID, ok := h.checkIDParam(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), checkID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(*summary))
}

func (h *Handler) HandleSummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SummariesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	summaries, err := h.service.Summaries(ctx, req.ParsedCheckIDs())
	if err != nil {
		h.logError(ctx, "failed to summarize checks", err)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = FromSummary(s)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"summaries": resp})
}

// HandleProviderEvent handles POST /webhooks/provider. Duplicate deliveries
// are acknowledged with 200 so the provider stops retrying.
func (h *Handler) HandleProviderEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProviderEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ApplyProviderEvent(ctx, req.ToEvent())
	if err != nil {
		h.logError(ctx, "provider event failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEventResult(result))
}

func (h *Handler) checkIDParam(w http.ResponseWriter, r *http.Request) (id.CheckID, bool) {
	checkID, err := id.ParseCheckID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.CheckID{}, false
	}
	return checkID, true
}

// logError logs at error level for server faults and at warn level for
// client mistakes.
func (h *Handler) logError(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
