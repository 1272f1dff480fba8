package entity

import (
	"time"

	"github.com/google/uuid"
)

type TicketType string

const (
	TicketTypeNormal  TicketType = "normal"
	TicketTypeStudent TicketType = "student"
)

// Ticket is one admission unit minted from a confirmed booking. ShowID is
// denormalized from the booking for check-in queries.
type Ticket struct {
	BaseSimple
	TicketReference string     `db:"ticket_reference"`
	BookingID       uuid.UUID  `db:"booking_id"`
	ShowID          uuid.UUID  `db:"show_id"`
	BuyerID         uuid.UUID  `db:"buyer_id"`
	TicketType      TicketType `db:"ticket_type"`
	TicketNumber    int        `db:"ticket_number"`
	IsUsed          bool       `db:"is_used"`
	UsedAt          *time.Time `db:"used_at"`
	CheckedBy       *string    `db:"checked_by"`
}
