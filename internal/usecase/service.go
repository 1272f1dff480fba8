package usecase

import (
	"ticket-broker/internal/data/repository"

	"go.uber.org/zap"
)

type Service struct {
	Show     ShowService
	Booking  BookingService
	Ticket   TicketService
	Settings SettingsService
	Audit    AuditService
}

func NewService(repo *repository.Repository, mailer Mailer, log *zap.Logger) *Service {
	audit := NewAuditService(repo, log)
	settings := NewSettingsService(repo, audit, mailer, log)
	return &Service{
		Show:     NewShowService(repo, log),
		Booking:  NewBookingService(repo, audit, settings, mailer, log),
		Ticket:   NewTicketService(repo, audit, settings, log),
		Settings: settings,
		Audit:    audit,
	}
}
