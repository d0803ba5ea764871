package webhooks

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
)

// Handler wires the admin-gated webhook endpoint routes.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the webhooks handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers endpoint management routes; the router mounts them
// behind the admin gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{endpointID}", h.handleShow)
	r.Put("/{endpointID}", h.handleUpdate)
	r.Delete("/{endpointID}", h.handleDelete)
}

type endpointRequest struct {
	URL    string   `json:"url" validate:"required,max=2048"`
	Events []string `json:"events" validate:"required,min=1"`
	Active *bool    `json:"active"`
}

// createdEndpointResponse carries the signing secret exactly once.
type createdEndpointResponse struct {
	Endpoint
	Secret string `json:"secret"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.teamID(w, r)
	if !ok {
		return
	}
	endpoints, err := h.service.List(r.Context(), teamID)
	if err != nil {
		h.logger.Error("list webhook endpoints", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if endpoints == nil {
		endpoints = []Endpoint{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"endpoints": endpoints})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	teamID, ok := h.teamID(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	endpoint, secret, err := h.service.Create(r.Context(), teamID, req.URL, req.Events)
	if err != nil {
		h.logger.Error("create webhook endpoint", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, createdEndpointResponse{Endpoint: endpoint, Secret: secret})
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	teamID, endpointID, ok := h.ids(w, r)
	if !ok {
		return
	}
	endpoint, err := h.service.Get(r.Context(), teamID, endpointID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, endpoint)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	teamID, endpointID, ok := h.ids(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	endpoint, err := h.service.Update(r.Context(), teamID, endpointID, req.URL, req.Events, active)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, endpoint)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	teamID, endpointID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), teamID, endpointID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (endpointRequest, bool) {
	var req endpointRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) teamID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid team id")
		return 0, false
	}
	return teamID, true
}

func (h *Handler) ids(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	teamID, ok := h.teamID(w, r)
	if !ok {
		return 0, 0, false
	}
	endpointID, err := strconv.ParseInt(chi.URLParam(r, "endpointID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid endpoint id")
		return 0, 0, false
	}
	return teamID, endpointID, true
}
