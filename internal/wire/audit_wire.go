package wire

import (
	"ticket-broker/internal/adaptor"
	"ticket-broker/pkg/middleware"
	"ticket-broker/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAudit(
	r chi.Router,
	auditHandler *adaptor.AuditHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/audit", func(r chi.Router) {
		r.Use(middleware.AdminBasicAuth(config.Admin, log))

		// GET /api/admin/audit - Paged trail with filter dropdown values
		r.Get("/", auditHandler.GetLogs)
	})
}
