package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-broker/internal/data/entity"
	"ticket-broker/internal/dto/request"
	"ticket-broker/internal/usecase"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/public/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}
	utils.ResponseCreated(w, "success", booking)
}

// LookupBooking handles GET /api/public/bookings/{reference}?email=
func (h *BookingHandler) LookupBooking(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	email := r.URL.Query().Get("email")
	if reference == "" || email == "" {
		utils.ResponseBadRequest(w, "Booking reference and email are required", nil)
		return
	}

	booking, err := h.service.LookupBooking(r.Context(), reference, email)
	if err != nil {
		handleServiceError(w, h.log, err, "look up booking")
		return
	}
	utils.ResponseSuccess(w, "success", booking)
}

// SearchBookings handles GET /api/public/bookings/search?email=&last_name=
func (h *BookingHandler) SearchBookings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	lastName := r.URL.Query().Get("last_name")
	if email == "" || lastName == "" {
		utils.ResponseBadRequest(w, "Email and last name are required", nil)
		return
	}

	bookings, err := h.service.SearchBookings(r.Context(), email, lastName)
	if err != nil {
		handleServiceError(w, h.log, err, "search bookings")
		return
	}
	utils.ResponseSuccess(w, "success", bookings)
}

// InitiatePayment handles POST /api/public/bookings/{reference}/initiate-payment
func (h *BookingHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		utils.ResponseBadRequest(w, "Booking reference is required", nil)
		return
	}

	instructions, err := h.service.InitiatePayment(r.Context(), reference)
	if err != nil {
		handleServiceError(w, h.log, err, "initiate payment")
		return
	}
	utils.ResponseSuccess(w, "success", instructions)
}

// ConfirmPayment handles POST /api/public/bookings/{reference}/confirm-payment
func (h *BookingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		utils.ResponseBadRequest(w, "Booking reference is required", nil)
		return
	}

	booking, err := h.service.ConfirmPaymentByBuyer(r.Context(), reference)
	if err != nil {
		handleServiceError(w, h.log, err, "confirm payment")
		return
	}
	utils.ResponseSuccess(w, "success", booking)
}

// ==================== ADMIN METHODS ====================

// ListBookings handles GET /api/admin/bookings?status=&show_id=
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status := query.Get("status")

	var showID *uuid.UUID
	if raw := query.Get("show_id"); raw != "" {
		id, err := utils.ParseUUID(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "Invalid show ID", nil)
			return
		}
		showID = &id
	}

	bookings, err := h.service.ListBookings(r.Context(), status, showID)
	if err != nil {
		handleServiceError(w, h.log, err, "list bookings")
		return
	}
	utils.ResponseSuccess(w, "success", bookings)
}

// GetBookingByID handles GET /api/admin/bookings/{id}
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	booking, err := h.service.GetBookingByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}
	utils.ResponseSuccess(w, "success", booking)
}

// GetBookingByReference handles GET /api/admin/bookings/reference/{reference}
func (h *BookingHandler) GetBookingByReference(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		utils.ResponseBadRequest(w, "Booking reference is required", nil)
		return
	}

	booking, err := h.service.GetBookingByReference(r.Context(), reference)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking by reference")
		return
	}
	utils.ResponseSuccess(w, "success", booking)
}

// UpdateBooking handles PUT /api/admin/bookings/{id}
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	var req request.UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.UpdateBooking(r.Context(), id, &req, adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "update booking")
		return
	}
	utils.ResponseSuccess(w, "success", booking)
}

// UpdateBookingStatus handles PUT /api/admin/bookings/{id}/status
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	var req request.UpdateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.UpdateBookingStatus(r.Context(), id, entity.BookingStatus(req.Status), adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "update booking status")
		return
	}
	utils.ResponseSuccess(w, "success", booking)
}

// ConfirmBookingPayment handles POST /api/admin/bookings/{id}/confirm-payment.
// Shortcut for the reserved -> confirmed transition.
func (h *BookingHandler) ConfirmBookingPayment(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	booking, err := h.service.UpdateBookingStatus(r.Context(), id, entity.BookingStatusConfirmed, adminActor(r))
	if err != nil {
		handleServiceError(w, h.log, err, "confirm booking payment")
		return
	}
	utils.ResponseSuccess(w, "success", booking)
}

// ResendConfirmation handles POST /api/admin/bookings/{id}/resend-confirmation
func (h *BookingHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), id); err != nil {
		handleServiceError(w, h.log, err, "resend confirmation")
		return
	}
	utils.ResponseSuccess(w, "Confirmation sent", nil)
}

// ResendTickets handles POST /api/admin/bookings/{id}/resend-tickets
func (h *BookingHandler) ResendTickets(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	if err := h.service.ResendTickets(r.Context(), id); err != nil {
		handleServiceError(w, h.log, err, "resend tickets")
		return
	}
	utils.ResponseSuccess(w, "Tickets sent", nil)
}

// DeleteBooking handles DELETE /api/admin/bookings/{id}
func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	if err := h.service.DeleteBooking(r.Context(), id, adminActor(r)); err != nil {
		handleServiceError(w, h.log, err, "delete booking")
		return
	}
	utils.ResponseNoContent(w)
}
