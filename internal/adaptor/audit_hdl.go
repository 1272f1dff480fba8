package adaptor

import (
	"net/http"

	"ticket-broker/internal/data/repository"
	"ticket-broker/internal/usecase"
	"ticket-broker/pkg/utils"

	"go.uber.org/zap"
)

type AuditHandler struct {
	service usecase.AuditService
	log     *zap.Logger
}

func NewAuditHandler(service usecase.AuditService, log *zap.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		log:     log.With(zap.String("handler", "audit")),
	}
}

// GetLogs handles GET /api/admin/audit?action=&entity=&user=&page=&size=
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.AuditFilter{
		ActionType:     query.Get("action"),
		EntityType:     query.Get("entity"),
		UserIdentifier: query.Get("user"),
	}
	page := utils.ParseInt(query.Get("page"), 0)
	size := utils.ParseInt(query.Get("size"), 50)

	logs, err := h.service.GetLogs(r.Context(), filter, page, size)
	if err != nil {
		handleServiceError(w, h.log, err, "list audit logs")
		return
	}
	utils.ResponseSuccess(w, "success", logs)
}
