package wire

import (
	"ticket-broker/internal/adaptor"
	"ticket-broker/pkg/middleware"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireShow(
	r chi.Router,
	showHandler *adaptor.ShowHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Route("/api/public/shows", func(r chi.Router) {
		// GET /api/public/shows - List all shows
		r.Get("/", showHandler.GetShows)

		// GET /api/public/shows/{id} - Show details
		r.Get("/{id}", showHandler.GetShow)

		// GET /api/public/shows/{id}/availability - Remaining capacity
		r.Get("/{id}/availability", showHandler.GetAvailability)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/shows", func(r chi.Router) {
		r.Use(middleware.AdminBasicAuth(config.Admin, log))

		// GET /api/admin/shows - List all shows
		r.Get("/", showHandler.GetShows)

		// POST /api/admin/shows - Create show
		r.Post("/", showHandler.CreateShow)

		// POST /api/admin/shows/reconcile - Re-derive availability counters
		r.Post("/reconcile", showHandler.Reconcile)

		// PUT /api/admin/shows/{id} - Update show details or capacity
		r.Put("/{id}", showHandler.UpdateShow)

		// DELETE /api/admin/shows/{id} - Delete a show without bookings
		r.Delete("/{id}", showHandler.DeleteShow)
	})
}
