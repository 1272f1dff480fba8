package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "reserved"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// validTransitions is the authoritative transition table. Cancelled is
// terminal. Leaving confirmed destroys the booking's tickets, which is why
// both confirmed->reserved and confirmed->cancelled carry the used-ticket
// guard in the service layer.
var validTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusReserved:  {BookingStatusConfirmed: true, BookingStatusCancelled: true},
	BookingStatusConfirmed: {BookingStatusReserved: true, BookingStatusCancelled: true},
	BookingStatusCancelled: {},
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusReserved, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// HoldsCapacity reports whether a booking in this status counts against
// the show's available tickets.
func (s BookingStatus) HoldsCapacity() bool {
	return s == BookingStatusReserved || s == BookingStatusConfirmed
}

func CanTransition(from, to BookingStatus) bool {
	return validTransitions[from][to]
}

type Booking struct {
	Base
	BookingReference        string        `db:"booking_reference"`
	ShowID                  uuid.UUID     `db:"show_id"`
	FirstName               string        `db:"first_name"`
	LastName                string        `db:"last_name"`
	Email                   string        `db:"email"`
	Phone                   string        `db:"phone"`
	AdultTickets            int           `db:"adult_tickets"`
	StudentTickets          int           `db:"student_tickets"`
	TotalAmount             int           `db:"total_amount"` // SEK
	Status                  BookingStatus `db:"status"`
	BuyerConfirmedPayment   bool          `db:"buyer_confirmed_payment"`
	SwishPaymentInitiated   bool          `db:"swish_payment_initiated"`
	SwishPaymentInitiatedAt *time.Time    `db:"swish_payment_initiated_at"`
	GdprConsent             bool          `db:"gdpr_consent"`
	ConfirmedAt             *time.Time    `db:"confirmed_at"`
}

func (b *Booking) TotalTickets() int {
	return b.AdultTickets + b.StudentTickets
}

func (b *Booking) FullName() string {
	return b.FirstName + " " + b.LastName
}
