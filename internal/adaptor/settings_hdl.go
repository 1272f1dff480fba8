package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-broker/internal/dto/request"
	"ticket-broker/internal/usecase"
	"ticket-broker/pkg/utils"

	"go.uber.org/zap"
)

type SettingsHandler struct {
	service usecase.SettingsService
	log     *zap.Logger
}

func NewSettingsHandler(service usecase.SettingsService, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		log:     log.With(zap.String("handler", "settings")),
	}
}

// GetPublicSettings handles GET /api/public/settings. The admin email is
// the only key withheld from the public payload.
func (h *SettingsHandler) GetPublicSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetAll(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get settings")
		return
	}
	delete(settings, usecase.SettingAdminEmail)
	utils.ResponseSuccess(w, "success", settings)
}

// Contact handles POST /api/public/contact
func (h *SettingsHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req request.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.SendContactMessage(r.Context(), &req); err != nil {
		handleServiceError(w, h.log, err, "send contact message")
		return
	}
	utils.ResponseSuccess(w, "Message sent", nil)
}

// GetSettings handles GET /api/admin/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetAll(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get settings")
		return
	}
	utils.ResponseSuccess(w, "success", settings)
}

// UpdateSettings handles PUT /api/admin/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	settings, err := h.service.Update(r.Context(), &req, adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "update settings")
		return
	}
	utils.ResponseSuccess(w, "success", settings)
}
