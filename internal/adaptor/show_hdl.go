package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-broker/internal/dto/request"
	"ticket-broker/internal/usecase"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ShowHandler struct {
	service usecase.ShowService
	log     *zap.Logger
}

func NewShowHandler(service usecase.ShowService, log *zap.Logger) *ShowHandler {
	return &ShowHandler{
		service: service,
		log:     log.With(zap.String("handler", "show")),
	}
}

// GetShows handles GET /api/public/shows
func (h *ShowHandler) GetShows(w http.ResponseWriter, r *http.Request) {
	shows, err := h.service.GetShows(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list shows")
		return
	}
	utils.ResponseSuccess(w, "success", shows)
}

// GetShow handles GET /api/public/shows/{id}
func (h *ShowHandler) GetShow(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid show ID", nil)
		return
	}

	show, err := h.service.GetShow(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "get show")
		return
	}
	utils.ResponseSuccess(w, "success", show)
}

// GetAvailability handles GET /api/public/shows/{id}/availability
func (h *ShowHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid show ID", nil)
		return
	}

	availability, err := h.service.Availability(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "get availability")
		return
	}
	utils.ResponseSuccess(w, "success", availability)
}

// CreateShow handles POST /api/admin/shows
func (h *ShowHandler) CreateShow(w http.ResponseWriter, r *http.Request) {
	var req request.CreateShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	show, err := h.service.CreateShow(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create show")
		return
	}
	utils.ResponseCreated(w, "success", show)
}

// UpdateShow handles PUT /api/admin/shows/{id}
func (h *ShowHandler) UpdateShow(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid show ID", nil)
		return
	}

	var req request.UpdateShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	show, err := h.service.UpdateShow(r.Context(), id, &req, adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "update show")
		return
	}
	utils.ResponseSuccess(w, "success", show)
}

// DeleteShow handles DELETE /api/admin/shows/{id}
func (h *ShowHandler) DeleteShow(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid show ID", nil)
		return
	}

	if err := h.service.DeleteShow(r.Context(), id); err != nil {
		handleServiceError(w, h.log, err, "delete show")
		return
	}
	utils.ResponseNoContent(w)
}

// Reconcile handles POST /api/admin/shows/reconcile
func (h *ShowHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.service.Reconcile(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "reconcile shows")
		return
	}
	utils.ResponseSuccess(w, "success", drifts)
}
