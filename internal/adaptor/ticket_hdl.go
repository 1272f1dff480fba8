package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-broker/internal/data/repository"
	"ticket-broker/internal/dto/request"
	"ticket-broker/internal/usecase"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TicketHandler struct {
	service usecase.TicketService
	log     *zap.Logger
}

func NewTicketHandler(service usecase.TicketService, log *zap.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		log:     log.With(zap.String("handler", "ticket")),
	}
}

// ListTickets handles GET /api/admin/tickets?show_id=&used=&booking_reference=
func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.TicketFilter{
		BookingReference: query.Get("booking_reference"),
	}
	if raw := query.Get("show_id"); raw != "" {
		id, err := utils.ParseUUID(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "Invalid show ID", nil)
			return
		}
		filter.ShowID = &id
	}
	if raw := query.Get("used"); raw != "" {
		used := raw == "true"
		filter.Used = &used
	}

	tickets, err := h.service.ListTickets(r.Context(), filter)
	if err != nil {
		handleServiceError(w, h.log, err, "list tickets")
		return
	}
	utils.ResponseSuccess(w, "success", tickets)
}

// GetTicket handles GET /api/admin/tickets/{reference}
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		utils.ResponseBadRequest(w, "Ticket reference is required", nil)
		return
	}

	ticket, err := h.service.GetTicketByReference(r.Context(), reference)
	if err != nil {
		handleServiceError(w, h.log, err, "get ticket")
		return
	}
	utils.ResponseSuccess(w, "success", ticket)
}

// MarkUsed handles POST /api/admin/tickets/{reference}/use
func (h *TicketHandler) MarkUsed(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		utils.ResponseBadRequest(w, "Ticket reference is required", nil)
		return
	}

	ticket, err := h.service.MarkUsed(r.Context(), reference, adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "mark ticket used")
		return
	}
	utils.ResponseSuccess(w, "success", ticket)
}

// ToggleUsed handles PUT /api/admin/tickets/{id}/toggle-used
func (h *TicketHandler) ToggleUsed(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid ticket ID", nil)
		return
	}

	ticket, err := h.service.ToggleUsed(r.Context(), id, adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "toggle ticket")
		return
	}
	utils.ResponseSuccess(w, "success", ticket)
}

// ToggleUsedByReference handles PUT /api/admin/tickets/reference/{reference}/toggle-used
func (h *TicketHandler) ToggleUsedByReference(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		utils.ResponseBadRequest(w, "Ticket reference is required", nil)
		return
	}

	ticket, err := h.service.ToggleUsedByReference(r.Context(), reference, adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "toggle ticket")
		return
	}
	utils.ResponseSuccess(w, "success", ticket)
}

// DeleteTicket handles DELETE /api/admin/tickets/{id}
func (h *TicketHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid ticket ID", nil)
		return
	}

	if err := h.service.DeleteTicket(r.Context(), id, adminActor(r)); err != nil {
		handleServiceError(w, h.log, err, "delete ticket")
		return
	}
	utils.ResponseNoContent(w)
}

// ValidateTicket handles POST /api/public/tickets/validate and the same
// route under /api/admin. The door device may scan without credentials;
// the check-in is then attributed to "door".
func (h *TicketHandler) ValidateTicket(w http.ResponseWriter, r *http.Request) {
	var req request.TicketValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	checkedBy := "door"
	if user, _, ok := r.BasicAuth(); ok && user != "" {
		checkedBy = user
	}

	result, err := h.service.ValidateTicket(r.Context(), &req, checkedBy)
	if err != nil {
		handleServiceError(w, h.log, err, "validate ticket")
		return
	}
	utils.ResponseSuccess(w, result.Status, result)
}

// GenerateTickets handles POST /api/admin/bookings/{id}/tickets
func (h *TicketHandler) GenerateTickets(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	tickets, err := h.service.GenerateTickets(r.Context(), id, adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "generate tickets")
		return
	}
	utils.ResponseCreated(w, "success", tickets)
}

// ListBookingTickets handles GET /api/admin/bookings/{id}/tickets
func (h *TicketHandler) ListBookingTickets(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	tickets, err := h.service.ListTicketsForBooking(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "list booking tickets")
		return
	}
	utils.ResponseSuccess(w, "success", tickets)
}
