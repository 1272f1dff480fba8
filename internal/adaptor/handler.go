package adaptor

import (
	"errors"
	"net/http"
	"strings"

	"ticket-broker/internal/data/entity"
	"ticket-broker/internal/usecase"
	"ticket-broker/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Show     *ShowHandler
	Booking  *BookingHandler
	Ticket   *TicketHandler
	Settings *SettingsHandler
	Audit    *AuditHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Show:     NewShowHandler(service.Show, log),
		Booking:  NewBookingHandler(service.Booking, log),
		Ticket:   NewTicketHandler(service.Ticket, log),
		Settings: NewSettingsHandler(service.Settings, log),
		Audit:    NewAuditHandler(service.Audit, log),
	}
}

// handleServiceError maps the domain sentinels onto HTTP responses. Errors
// that are not sentinels fall through to a 500 without leaking internals.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, entity.ErrShowNotFound),
		errors.Is(err, entity.ErrBookingNotFound),
		errors.Is(err, entity.ErrTicketNotFound),
		errors.Is(err, entity.ErrBuyerNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, entity.ErrInsufficientCapacity),
		errors.Is(err, entity.ErrInvalidStatusTransition),
		errors.Is(err, entity.ErrUsedTicketsPresent),
		errors.Is(err, entity.ErrAlreadyUsed),
		errors.Is(err, entity.ErrCannotDeleteUsedTicket),
		errors.Is(err, entity.ErrInvalidCapacity),
		errors.Is(err, entity.ErrShowHasBookings):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case isValidationError(err):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func isValidationError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"validation failed", "invalid", "unknown", "limited to", "at least one", "must be"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// adminActor returns the authenticated admin username for audit trails.
// Admin routes sit behind basic auth, so the credentials are always there.
func adminActor(r *http.Request) string {
	if user, _, ok := r.BasicAuth(); ok && user != "" {
		return user
	}
	return "admin"
}
