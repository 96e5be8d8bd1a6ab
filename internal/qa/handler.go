package qa

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/factotum/pkg/handlers"
	"github.com/JaimeStill/factotum/pkg/pagination"
	"github.com/JaimeStill/factotum/pkg/routes"
)

// Handler provides HTTP endpoints for the QA workflow.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// ScriptSearchRequest combines pagination and script filter criteria.
type ScriptSearchRequest struct {
	pagination.PageRequest
	ScriptFilters
}

// TextSearchRequest combines pagination and extracted text filter criteria.
type TextSearchRequest struct {
	pagination.PageRequest
	TextFilters
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "qa"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for QA endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/qa",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/scripts", Handler: h.ListScripts},
			{Method: "POST", Pattern: "/scripts", Handler: h.CreateScript},
			{Method: "POST", Pattern: "/scripts/search", Handler: h.SearchScripts},
			{Method: "GET", Pattern: "/scripts/{id}", Handler: h.FindScript},
			{Method: "POST", Pattern: "/scripts/{id}/begin", Summary: "Begin QA on an extraction script", Handler: h.Begin},
			{Method: "GET", Pattern: "/texts", Handler: h.ListTexts},
			{Method: "POST", Pattern: "/texts", Handler: h.RegisterText},
			{Method: "POST", Pattern: "/texts/search", Handler: h.SearchTexts},
			{Method: "GET", Pattern: "/texts/{id}", Handler: h.FindText},
			{Method: "POST", Pattern: "/texts/{id}/approve", Summary: "Approve an extracted text", Handler: h.Approve},
			{Method: "GET", Pattern: "/groups/{id}", Handler: h.FindGroup},
			{Method: "GET", Pattern: "/groups/{id}/texts", Handler: h.GroupTexts},
			{Method: "GET", Pattern: "/groups/{id}/progress", Summary: "QA group approval progress", Handler: h.Progress},
			{Method: "POST", Pattern: "/groups/{id}/complete", Summary: "Complete a QA group", Handler: h.Complete},
		},
	}
}

// ListScripts returns a paginated list of extraction scripts.
func (h *Handler) ListScripts(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := ScriptFiltersFromQuery(r.URL.Query())

	result, err := h.sys.ListScripts(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// SearchScripts accepts a JSON body with pagination and filter criteria.
func (h *Handler) SearchScripts(w http.ResponseWriter, r *http.Request) {
	var req ScriptSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.ListScripts(r.Context(), req.PageRequest, req.ScriptFilters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// FindScript returns a single script with its text counts.
func (h *Handler) FindScript(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, ErrScriptNotFound)
	if !ok {
		return
	}

	s, err := h.sys.FindScript(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// CreateScript adds an extraction script.
func (h *Handler) CreateScript(w http.ResponseWriter, r *http.Request) {
	var cmd CreateScriptCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	s, err := h.sys.CreateScript(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, s)
}

// Begin starts or resumes review of a script. The body is optional.
func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, ErrScriptNotFound)
	if !ok {
		return
	}

	var cmd BeginCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	g, err := h.sys.BeginQA(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, g)
}

// ListTexts returns a paginated list of extracted texts.
func (h *Handler) ListTexts(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := TextFiltersFromQuery(r.URL.Query())

	result, err := h.sys.ListTexts(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// SearchTexts accepts a JSON body with pagination and filter criteria.
func (h *Handler) SearchTexts(w http.ResponseWriter, r *http.Request) {
	var req TextSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.ListTexts(r.Context(), req.PageRequest, req.TextFilters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// FindText returns a single extracted text.
func (h *Handler) FindText(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, ErrTextNotFound)
	if !ok {
		return
	}

	t, err := h.sys.FindText(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// RegisterText records a script's output for a document.
func (h *Handler) RegisterText(w http.ResponseWriter, r *http.Request) {
	var cmd RegisterTextCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	t, err := h.sys.RegisterText(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, t)
}

// Approve marks an extracted text as reviewed.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, ErrTextNotFound)
	if !ok {
		return
	}

	var cmd ApproveCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	t, err := h.sys.Approve(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

// FindGroup returns a single QA group.
func (h *Handler) FindGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, ErrGroupNotFound)
	if !ok {
		return
	}

	g, err := h.sys.FindGroup(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, g)
}

// GroupTexts returns every extracted text in a group.
func (h *Handler) GroupTexts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, ErrGroupNotFound)
	if !ok {
		return
	}

	texts, err := h.sys.GroupTexts(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, texts)
}

// Progress reports how much of a group has been approved.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, ErrGroupNotFound)
	if !ok {
		return
	}

	p, err := h.sys.Progress(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Complete closes a fully approved group.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, ErrGroupNotFound)
	if !ok {
		return
	}

	g, err := h.sys.Complete(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, g)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, notFound)
		return uuid.Nil, false
	}
	return id, true
}
