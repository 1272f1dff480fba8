package wire

import (
	"ticket-broker/internal/adaptor"
	"ticket-broker/pkg/middleware"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSettings(
	r chi.Router,
	settingsHandler *adaptor.SettingsHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/public/settings - Concert info, prices, Swish details
	r.Get("/api/public/settings", settingsHandler.GetPublicSettings)

	// POST /api/public/contact - Contact form
	r.Post("/api/public/contact", settingsHandler.Contact)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/settings", func(r chi.Router) {
		r.Use(middleware.AdminBasicAuth(config.Admin, log))

		// GET /api/admin/settings - All settings including defaults
		r.Get("/", settingsHandler.GetSettings)

		// PUT /api/admin/settings - Change settings (audited per key)
		r.Put("/", settingsHandler.UpdateSettings)
	})
}
