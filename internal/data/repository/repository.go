package repository

import (
	"ticket-broker/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Show     ShowRepository
	Booking  BookingRepository
	Ticket   TicketRepository
	Buyer    BuyerRepository
	AuditLog AuditLogRepository
	Setting  SettingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Show:     NewShowRepository(db, log),
		Booking:  NewBookingRepository(db, log),
		Ticket:   NewTicketRepository(db, log),
		Buyer:    NewBuyerRepository(db, log),
		AuditLog: NewAuditLogRepository(db, log),
		Setting:  NewSettingRepository(db, log),
	}
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
