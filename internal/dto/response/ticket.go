package response

import (
	"time"

	"ticket-broker/internal/data/entity"
)

type TicketResponse struct {
	ID               string            `json:"id"`
	TicketReference  string            `json:"ticket_reference"`
	TicketType       entity.TicketType `json:"ticket_type"`
	TicketNumber     int               `json:"ticket_number"`
	IsUsed           bool              `json:"is_used"`
	UsedAt           *time.Time        `json:"used_at,omitempty"`
	CheckedBy        *string           `json:"checked_by,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	BookingReference string            `json:"booking_reference,omitempty"`
	BuyerName        string            `json:"buyer_name,omitempty"`
	BuyerPhone       string            `json:"buyer_phone,omitempty"`
	ShowID           string            `json:"show_id"`
	ShowTime         string            `json:"show_time,omitempty"`
}

func TicketToResponse(ticket *entity.Ticket, booking *entity.Booking, buyer *entity.Buyer, show *entity.Show) *TicketResponse {
	resp := &TicketResponse{
		ID:              ticket.ID.String(),
		TicketReference: ticket.TicketReference,
		TicketType:      ticket.TicketType,
		TicketNumber:    ticket.TicketNumber,
		IsUsed:          ticket.IsUsed,
		UsedAt:          ticket.UsedAt,
		CheckedBy:       ticket.CheckedBy,
		CreatedAt:       ticket.CreatedAt,
		ShowID:          ticket.ShowID.String(),
	}
	if booking != nil {
		resp.BookingReference = booking.BookingReference
	}
	if buyer != nil {
		resp.BuyerName = buyer.FullName()
		resp.BuyerPhone = buyer.Phone
	}
	if show != nil {
		resp.ShowTime = show.StartTime + "-" + show.EndTime
	}
	return resp
}

// ValidationResponse is the door check-in outcome. Status is one of
// "success", "used", "unconfirmed", "wrong_show".
type ValidationResponse struct {
	Valid            bool   `json:"valid"`
	Message          string `json:"message"`
	Status           string `json:"status"`
	TicketReference  string `json:"ticket_reference"`
	TicketType       string `json:"ticket_type,omitempty"`
	BookingReference string `json:"booking_reference,omitempty"`
	BookingStatus    string `json:"booking_status,omitempty"`
	UsedAt           string `json:"used_at,omitempty"`
}
