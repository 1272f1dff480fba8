package entity

import "errors"

// Sentinel errors shared by the repository and usecase layers. Handlers
// translate these into 4xx responses with errors.Is; none of them is fatal
// to the process.
var (
	ErrShowNotFound    = errors.New("show not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrBuyerNotFound   = errors.New("buyer not found")

	// ErrInsufficientCapacity is returned when a reservation asks for more
	// tickets than the show has available at the instant of the locked check.
	ErrInsufficientCapacity = errors.New("not enough tickets available")

	ErrInvalidStatusTransition = errors.New("invalid booking status transition")

	// ErrUsedTicketsPresent blocks any transition out of confirmed while at
	// least one of the booking's tickets has been checked in.
	ErrUsedTicketsPresent = errors.New("booking has used tickets")

	ErrAlreadyUsed            = errors.New("ticket is already used")
	ErrCannotDeleteUsedTicket = errors.New("cannot delete a used ticket")

	// ErrReferenceExhausted is the safety bound on the collision-retry loop
	// of the booking reference generator.
	ErrReferenceExhausted = errors.New("could not generate a unique booking reference")

	// ErrInvalidCapacity covers every rejected admin capacity edit: negative
	// values, available above total, or available below the committed sum of
	// reserved and confirmed tickets.
	ErrInvalidCapacity = errors.New("invalid capacity values")

	ErrShowHasBookings = errors.New("show has existing bookings")
)
