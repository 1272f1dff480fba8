package wire

import (
	"ticket-broker/internal/adaptor"
	"ticket-broker/pkg/middleware"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTicket(
	r chi.Router,
	ticketHandler *adaptor.TicketHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// POST /api/public/tickets/validate - Door scanner check-in
	r.Post("/api/public/tickets/validate", ticketHandler.ValidateTicket)

	// ==================== ADMIN ROUTES ====================
	// The booking-scoped ticket routes live under /api/admin/bookings and
	// are registered in booking_wire.go.
	r.Route("/api/admin/tickets", func(r chi.Router) {
		r.Use(middleware.AdminBasicAuth(config.Admin, log))

		// GET /api/admin/tickets - List with show/used/reference filters
		r.Get("/", ticketHandler.ListTickets)

		// POST /api/admin/tickets/validate - Door check-in flow
		r.Post("/validate", ticketHandler.ValidateTicket)

		// GET /api/admin/tickets/{reference} - Ticket details
		r.Get("/{reference}", ticketHandler.GetTicket)

		// POST /api/admin/tickets/{reference}/use - Check a ticket in
		r.Post("/{reference}/use", ticketHandler.MarkUsed)

		// PUT /api/admin/tickets/{id}/toggle-used - Correction path
		r.Put("/{id}/toggle-used", ticketHandler.ToggleUsed)

		// PUT /api/admin/tickets/reference/{reference}/toggle-used - Same, by reference
		r.Put("/reference/{reference}/toggle-used", ticketHandler.ToggleUsedByReference)

		// DELETE /api/admin/tickets/{id} - Remove one unused ticket
		r.Delete("/{id}", ticketHandler.DeleteTicket)
	})
}
