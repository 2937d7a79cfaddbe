package controllers

import (
	"encoding/json"
	"net/http"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/caserecord"
	"github.com/unboxed/bops-go/modules/planning/domain/aggregates/validationrequest"
	"github.com/unboxed/bops-go/modules/planning/presentation/mappers"
	"github.com/unboxed/bops-go/modules/planning/services"
	"github.com/unboxed/bops-go/pkg/application"
	"github.com/unboxed/bops-go/pkg/middleware"
	"github.com/unboxed/bops-go/pkg/serrors"
)

type ValidationRequestAPIController struct {
	app      application.Application
	requests *services.ValidationRequestService
	cases    *services.CaseRecordService
	basePath string
}

func NewValidationRequestAPIController(app application.Application) application.Controller {
	return &ValidationRequestAPIController{
		app:      app,
		requests: app.Service(services.ValidationRequestService{}).(*services.ValidationRequestService),
		cases:    app.Service(services.CaseRecordService{}).(*services.CaseRecordService),
		basePath: "/planning/api",
	}
}

func (c *ValidationRequestAPIController) Key() string {
	return c.basePath
}

func (c *ValidationRequestAPIController) Register(r *mux.Router) {
	readRouter := r.PathPrefix(c.basePath).Subrouter()
	readRouter.HandleFunc("/cases/{caseID}", c.ShowCase).Methods(http.MethodGet)
	readRouter.HandleFunc("/cases/{caseID}/audit", c.AuditTrail).Methods(http.MethodGet)
	readRouter.HandleFunc("/cases/{caseID}/validation-requests", c.List).Methods(http.MethodGet)
	readRouter.HandleFunc("/validation-requests/{id}", c.Show).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(middleware.WithTransaction())
	writeRouter.HandleFunc("/cases", c.CreateCase).Methods(http.MethodPost)
	writeRouter.HandleFunc("/cases/{caseID}/status", c.SetCaseStatus).Methods(http.MethodPost)
	writeRouter.HandleFunc("/cases/{caseID}/validation-requests", c.Create).Methods(http.MethodPost)
	writeRouter.HandleFunc("/validation-requests/{id}/send", c.Send).Methods(http.MethodPost)
	writeRouter.HandleFunc("/validation-requests/{id}/cancel", c.Cancel).Methods(http.MethodPost)
	writeRouter.HandleFunc("/validation-requests/{id}/close", c.Close).Methods(http.MethodPost)
}

func (c *ValidationRequestAPIController) CreateCase(w http.ResponseWriter, r *http.Request) {
	var dto CreateCaseRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PLANNING_INVALID_JSON", "invalid json")
		return
	}
	if fields, ok := dto.Ok(); !ok {
		writeValidationErrors(w, r, fields)
		return
	}

	rec, err := c.cases.Create(r.Context(), dto.Reference, dto.Description)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.CaseRecordToJSON(rec))
}

func (c *ValidationRequestAPIController) ShowCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "caseID")
	if !ok {
		return
	}

	rec, err := c.cases.GetByID(r.Context(), id)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.CaseRecordToJSON(rec))
}

func (c *ValidationRequestAPIController) SetCaseStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "caseID")
	if !ok {
		return
	}

	var dto SetCaseStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PLANNING_INVALID_JSON", "invalid json")
		return
	}
	if fields, ok := dto.Ok(); !ok {
		writeValidationErrors(w, r, fields)
		return
	}

	if err := c.cases.SetStatus(r.Context(), id, caserecord.Status(dto.Status), dto.Actor.ToActor()); err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (c *ValidationRequestAPIController) AuditTrail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "caseID")
	if !ok {
		return
	}

	trail, err := c.cases.AuditTrail(r.Context(), id)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}

	items := make([]map[string]any, 0, len(trail))
	for _, entry := range trail {
		items = append(items, mappers.AuditEntryToJSON(entry))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (c *ValidationRequestAPIController) List(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathUUID(w, r, "caseID")
	if !ok {
		return
	}

	params := &validationrequest.FindParams{CaseRecordID: caseID}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := validationrequest.ParseKind(raw)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "PLANNING_UNKNOWN_KIND", err.Error())
			return
		}
		params.Kind = &kind
	}
	for _, raw := range r.URL.Query()["state"] {
		params.States = append(params.States, validationrequest.State(raw))
	}

	items, err := c.requests.ListByCase(r.Context(), params)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, mappers.ValidationRequestToJSON(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *ValidationRequestAPIController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	request, err := c.requests.GetByID(r.Context(), id)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.ValidationRequestToJSON(request))
}

func (c *ValidationRequestAPIController) Create(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathUUID(w, r, "caseID")
	if !ok {
		return
	}

	var dto CreateValidationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PLANNING_INVALID_JSON", "invalid json")
		return
	}
	if fields, ok := dto.Ok(); !ok {
		writeValidationErrors(w, r, fields)
		return
	}

	kind, err := validationrequest.ParseKind(dto.Kind)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PLANNING_UNKNOWN_KIND", err.Error())
		return
	}

	request, err := c.requests.Create(r.Context(), caseID, kind, dto.Payload, dto.Actor.ToActor())
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.ValidationRequestToJSON(request))
}

func (c *ValidationRequestAPIController) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var dto SendValidationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PLANNING_INVALID_JSON", "invalid json")
		return
	}
	if fields, ok := dto.Ok(); !ok {
		writeValidationErrors(w, r, fields)
		return
	}

	request, err := c.requests.MarkAsSent(r.Context(), id, dto.Actor.ToActor())
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.ValidationRequestToJSON(request))
}

func (c *ValidationRequestAPIController) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var dto CancelValidationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PLANNING_INVALID_JSON", "invalid json")
		return
	}
	if fields, ok := dto.Ok(); !ok {
		writeValidationErrors(w, r, fields)
		return
	}

	request, err := c.requests.Cancel(r.Context(), id, dto.Reason, dto.Actor.ToActor())
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.ValidationRequestToJSON(request))
}

func (c *ValidationRequestAPIController) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var dto CloseValidationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PLANNING_INVALID_JSON", "invalid json")
		return
	}
	if fields, ok := dto.Ok(); !ok {
		writeValidationErrors(w, r, fields)
		return
	}

	request, err := c.requests.Close(r.Context(), id, dto.ToOutcome(), dto.Actor.ToActor())
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.ValidationRequestToJSON(request))
}

func (c *ValidationRequestAPIController) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		transitionErr  *validationrequest.InvalidTransitionError
		exclusivityErr *validationrequest.ExclusivityError
		windowErr      *validationrequest.CreationWindowClosedError
		baseErr        *serrors.BaseError
	)

	switch {
	case gerrors.Is(err, validationrequest.ErrNotFound), gerrors.Is(err, caserecord.ErrNotFound):
		writeAPIError(w, r, http.StatusNotFound, "PLANNING_NOT_FOUND", err.Error())
	case gerrors.As(err, &transitionErr):
		writeAPIError(w, r, http.StatusConflict, "PLANNING_INVALID_TRANSITION", transitionErr.Error())
	case gerrors.As(err, &exclusivityErr):
		writeAPIError(w, r, http.StatusConflict, "PLANNING_EXCLUSIVITY_CONFLICT", exclusivityErr.Error())
	case gerrors.As(err, &windowErr):
		writeAPIError(w, r, http.StatusUnprocessableEntity, "PLANNING_CREATION_WINDOW_CLOSED", windowErr.Error())
	case gerrors.As(err, &baseErr):
		writeAPIError(w, r, http.StatusUnprocessableEntity, baseErr.Code, baseErr.Message)
	default:
		c.app.Logger().WithError(err).Error("planning api: unhandled error")
		writeAPIError(w, r, http.StatusInternalServerError, "PLANNING_INTERNAL", "internal error")
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PLANNING_INVALID_ID", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
