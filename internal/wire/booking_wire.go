package wire

import (
	"ticket-broker/internal/adaptor"
	"ticket-broker/pkg/middleware"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	ticketHandler *adaptor.TicketHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Route("/api/public/bookings", func(r chi.Router) {
		// POST /api/public/bookings - Reserve tickets
		r.Post("/", bookingHandler.CreateBooking)

		// GET /api/public/bookings/search?email=&last_name= - Find own bookings
		r.Get("/search", bookingHandler.SearchBookings)

		// GET /api/public/bookings/{reference}?email= - Look up one booking
		r.Get("/{reference}", bookingHandler.LookupBooking)

		// POST /api/public/bookings/{reference}/initiate-payment - Swish instructions
		r.Post("/{reference}/initiate-payment", bookingHandler.InitiatePayment)

		// POST /api/public/bookings/{reference}/confirm-payment - Buyer says paid
		r.Post("/{reference}/confirm-payment", bookingHandler.ConfirmPayment)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.AdminBasicAuth(config.Admin, log))

		// GET /api/admin/bookings - List with optional status/show filters
		r.Get("/", bookingHandler.ListBookings)

		// GET /api/admin/bookings/reference/{reference} - Look up by reference
		r.Get("/reference/{reference}", bookingHandler.GetBookingByReference)

		// GET /api/admin/bookings/{id} - Booking details
		r.Get("/{id}", bookingHandler.GetBookingByID)

		// PUT /api/admin/bookings/{id} - Edit customer and payment fields
		r.Put("/{id}", bookingHandler.UpdateBooking)

		// PUT /api/admin/bookings/{id}/status - Drive the state machine
		r.Put("/{id}/status", bookingHandler.UpdateBookingStatus)

		// POST /api/admin/bookings/{id}/confirm-payment - Confirm and mint
		r.Post("/{id}/confirm-payment", bookingHandler.ConfirmBookingPayment)

		// POST /api/admin/bookings/{id}/resend-confirmation - Re-send reservation mail
		r.Post("/{id}/resend-confirmation", bookingHandler.ResendConfirmation)

		// POST /api/admin/bookings/{id}/resend-tickets - Re-send ticket mail
		r.Post("/{id}/resend-tickets", bookingHandler.ResendTickets)

		// DELETE /api/admin/bookings/{id} - Remove booking and its tickets
		r.Delete("/{id}", bookingHandler.DeleteBooking)

		// GET /api/admin/bookings/{id}/tickets - Tickets of one booking
		r.Get("/{id}/tickets", ticketHandler.ListBookingTickets)

		// POST /api/admin/bookings/{id}/tickets - Regenerate missing tickets
		r.Post("/{id}/tickets", ticketHandler.GenerateTickets)
	})
}
